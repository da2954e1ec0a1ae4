package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"credit-ledger.backend/internal/domain/entities"
	domainerrors "credit-ledger.backend/internal/domain/errors"
	"credit-ledger.backend/internal/domain/gateways"
	"credit-ledger.backend/internal/domain/repositories"
	"credit-ledger.backend/pkg/logger"
)

// DisputeUsecase handles the contested-order workflow
type DisputeUsecase struct {
	walletUC    *WalletUsecase
	walletRepo  repositories.WalletRepository
	orderRepo   repositories.OrderRepository
	disputeRepo repositories.DisputeRepository
	configRepo  repositories.ConfigRepository
	uow         repositories.UnitOfWork
	messages    gateways.MessageGateway
}

// NewDisputeUsecase creates a new dispute usecase
func NewDisputeUsecase(
	walletUC *WalletUsecase,
	walletRepo repositories.WalletRepository,
	orderRepo repositories.OrderRepository,
	disputeRepo repositories.DisputeRepository,
	configRepo repositories.ConfigRepository,
	uow repositories.UnitOfWork,
	messages gateways.MessageGateway,
) *DisputeUsecase {
	return &DisputeUsecase{
		walletUC:    walletUC,
		walletRepo:  walletRepo,
		orderRepo:   orderRepo,
		disputeRepo: disputeRepo,
		configRepo:  configRepo,
		uow:         uow,
		messages:    messages,
	}
}

// disputeCutoff returns the oldest trade time still eligible for a dispute
func (u *DisputeUsecase) disputeCutoff(ctx context.Context, now time.Time) time.Time {
	window := u.configRepo.GetInt(ctx, entities.ConfigDisputeTimeWindowHours)
	return now.Add(-time.Duration(window) * time.Hour)
}

// ListDisputable lists the user's orders still open to a dispute
func (u *DisputeUsecase) ListDisputable(ctx context.Context, userID int64, limit int) ([]*entities.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return u.orderRepo.ListDisputable(ctx, userID, u.disputeCutoff(ctx, time.Now()), limit)
}

// Create opens a dispute against an order. Only the payer of a successful
// payment or transfer may dispute, within the configured window of the trade
// time, and only once per order.
func (u *DisputeUsecase) Create(ctx context.Context, userID int64, orderNo, reason string) (*entities.Dispute, error) {
	if reason == "" {
		return nil, domainerrors.Validation("dispute reason required")
	}

	order, err := u.orderRepo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		if err == domainerrors.ErrNotFound {
			return nil, domainerrors.NotFound("order not found")
		}
		return nil, err
	}
	if order.PayerUserID != userID {
		return nil, domainerrors.Forbidden("only the payer may dispute an order")
	}
	if order.Status != entities.OrderStatusSuccess {
		return nil, domainerrors.InvalidState("only successful orders can be disputed")
	}
	if !order.OrderType.Disputable() {
		return nil, domainerrors.InvalidState("this order type cannot be disputed")
	}

	now := time.Now()
	tradeTime := order.CreatedAt
	if order.TradeTime.Valid {
		tradeTime = order.TradeTime.Time
	}
	if tradeTime.Before(u.disputeCutoff(ctx, now)) {
		return nil, domainerrors.Expired("dispute window has closed")
	}

	deadlineHours := u.configRepo.GetInt(ctx, entities.ConfigDisputeAutoRefundHours)
	dispute := &entities.Dispute{
		OrderID:         order.ID,
		InitiatorUserID: userID,
		Reason:          reason,
		Status:          entities.DisputeStatusDisputing,
		DeadlineAt:      now.Add(time.Duration(deadlineHours) * time.Hour),
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if createErr := u.disputeRepo.Create(txCtx, dispute); createErr != nil {
			if createErr == domainerrors.ErrConflict {
				return domainerrors.Conflict("order already has a dispute")
			}
			return createErr
		}
		return u.orderRepo.UpdateStatus(txCtx, order.ID, entities.OrderStatusDisputing)
	})
	if err != nil {
		return nil, err
	}

	u.notify(ctx, order.PayeeUserID, "Order disputed",
		fmt.Sprintf("Order %s has been disputed: %s\n\nPlease respond before the deadline or the order will be refunded automatically.", order.OrderNo, reason))
	return dispute, nil
}

// Refund resolves a dispute in the payer's favor. Only the order payee may
// resolve; the payer gets the full amount back and the payee is debited the
// amount actually received, floored at zero.
func (u *DisputeUsecase) Refund(ctx context.Context, handlerUserID, disputeID int64, resolution string) error {
	return u.resolve(ctx, handlerUserID, disputeID, entities.DisputeStatusRefund, resolution, decimal.Zero)
}

// Reject closes a dispute in the payee's favor. A reason is required.
func (u *DisputeUsecase) Reject(ctx context.Context, handlerUserID, disputeID int64, resolution string) error {
	if resolution == "" {
		return domainerrors.Validation("rejection reason required")
	}
	return u.resolve(ctx, handlerUserID, disputeID, entities.DisputeStatusClosed, resolution, decimal.Zero)
}

// Withdraw closes a dispute at the initiator's request, restoring the order
func (u *DisputeUsecase) Withdraw(ctx context.Context, initiatorUserID, disputeID int64) error {
	return u.uow.Do(ctx, func(txCtx context.Context) error {
		dispute, err := u.disputeRepo.GetByID(u.uow.WithLock(txCtx), disputeID)
		if err != nil {
			return err
		}
		if dispute.InitiatorUserID != initiatorUserID {
			return domainerrors.Forbidden("only the initiator may withdraw a dispute")
		}
		if dispute.Status.Terminal() {
			return domainerrors.InvalidState("dispute already resolved")
		}

		dispute.Status = entities.DisputeStatusClosed
		dispute.Resolution = null.StringFrom("withdrawn by initiator")
		dispute.HandlerUserID = null.Int64From(initiatorUserID)
		if err := u.disputeRepo.Update(txCtx, dispute); err != nil {
			return err
		}
		return u.orderRepo.UpdateStatus(txCtx, dispute.OrderID, entities.OrderStatusSuccess)
	})
}

// AutoResolve refunds an overdue dispute with the configured compensation
// penalty on top. Called by the scheduled sweep once the deadline passes.
func (u *DisputeUsecase) AutoResolve(ctx context.Context, disputeID int64) error {
	rate := u.configRepo.GetDecimal(ctx, entities.ConfigDisputeCompensationRate)
	return u.resolve(ctx, entities.SystemUserID, disputeID, entities.DisputeStatusAutoRefunded, "no response before deadline", rate)
}

// resolve applies a terminal transition under lock. compensationRate is only
// nonzero for the auto-refund path.
func (u *DisputeUsecase) resolve(ctx context.Context, handlerUserID, disputeID int64, target entities.DisputeStatus, resolution string, compensationRate decimal.Decimal) error {
	var payerID, payeeID int64
	var refunded, compensation decimal.Decimal

	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		dispute, err := u.disputeRepo.GetByID(u.uow.WithLock(txCtx), disputeID)
		if err != nil {
			return err
		}
		if dispute.Status.Terminal() {
			return domainerrors.InvalidState("dispute already resolved")
		}

		order, err := u.orderRepo.GetByID(u.uow.WithLock(txCtx), dispute.OrderID)
		if err != nil {
			return err
		}
		// system is the handler for the auto path
		if handlerUserID != entities.SystemUserID && order.PayeeUserID != handlerUserID {
			return domainerrors.Forbidden("only the order payee may resolve this dispute")
		}
		payerID, payeeID = order.PayerUserID, order.PayeeUserID

		dispute.HandlerUserID = null.Int64From(handlerUserID)
		dispute.Resolution = null.StringFrom(resolution)
		dispute.Status = target

		if target == entities.DisputeStatusClosed {
			if err := u.disputeRepo.Update(txCtx, dispute); err != nil {
				return err
			}
			return u.orderRepo.UpdateStatus(txCtx, order.ID, entities.OrderStatusRefused)
		}

		// refund path: payer recovers the full amount; the payee gives back
		// only what actually arrived
		now := time.Now()
		refunded = order.Amount
		compensation = order.Amount.Mul(compensationRate).Round(2)
		dispute.CompensationAmount = compensation
		if err := u.disputeRepo.Update(txCtx, dispute); err != nil {
			return err
		}
		if err := u.orderRepo.UpdateStatus(txCtx, order.ID, entities.OrderStatusRefund); err != nil {
			return err
		}

		payerWallet, err := u.walletUC.EnsureWallet(txCtx, order.PayerUserID)
		if err != nil {
			return err
		}
		payeeWallet, err := u.walletUC.EnsureWallet(txCtx, order.PayeeUserID)
		if err != nil {
			return err
		}

		clawback := compensation
		if order.PayeeReceived() {
			clawback = clawback.Add(order.ActualAmount)
		}
		if clawback.IsPositive() {
			if err := u.walletRepo.ClampedAdjust(txCtx, payeeWallet.ID, clawback.Neg()); err != nil {
				return err
			}
		}
		if _, err := u.walletRepo.ConditionalAdjust(txCtx, payerWallet.ID, refunded.Add(compensation),
			repositories.CounterDelta{Counter: repositories.CounterTotalReceive, Delta: refunded.Add(compensation)}); err != nil {
			return err
		}

		if compensation.IsPositive() {
			compOrder := &entities.Order{
				OrderNo:      GenerateOrderNo(now),
				OrderName:    "dispute compensation",
				PayerUserID:  order.PayeeUserID,
				PayeeUserID:  order.PayerUserID,
				Amount:       compensation,
				ActualAmount: compensation,
				Status:       entities.OrderStatusSuccess,
				OrderType:    entities.OrderTypeDisputeCompensation,
				Remark:       fmt.Sprintf("dispute:%d", dispute.ID),
				TradeTime:    null.TimeFrom(now),
			}
			if err := u.orderRepo.Create(txCtx, compOrder); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	switch target {
	case entities.DisputeStatusRefund:
		u.notify(ctx, payerID, "Dispute refunded", fmt.Sprintf("Your dispute was accepted and %s credits were returned.", refunded.StringFixed(2)))
	case entities.DisputeStatusClosed:
		u.notify(ctx, payerID, "Dispute rejected", "Your dispute was rejected: "+resolution)
	case entities.DisputeStatusAutoRefunded:
		u.notify(ctx, payerID, "Dispute auto-refunded", fmt.Sprintf("No response was received in time. %s credits were returned with %s compensation.", refunded.StringFixed(2), compensation.StringFixed(2)))
		u.notify(ctx, payeeID, "Dispute auto-refunded", "A dispute against you expired without a response and was refunded automatically.")
	}

	logger.Info(ctx, "dispute resolved",
		zap.Int64("dispute_id", disputeID),
		zap.String("status", string(target)),
		zap.String("compensation", compensation.String()))
	return nil
}

// ListMine lists disputes the user opened
func (u *DisputeUsecase) ListMine(ctx context.Context, userID int64, status entities.DisputeStatus, limit, offset int) ([]*entities.Dispute, int64, error) {
	return u.disputeRepo.ListByInitiator(ctx, userID, status, limit, offset)
}

// ListIncoming lists disputes against orders paying the user
func (u *DisputeUsecase) ListIncoming(ctx context.Context, payeeUserID int64, status entities.DisputeStatus, limit, offset int) ([]*entities.Dispute, int64, error) {
	return u.disputeRepo.ListForPayee(ctx, payeeUserID, status, limit, offset)
}

func (u *DisputeUsecase) notify(ctx context.Context, userID int64, title, body string) {
	if u.messages == nil || userID == entities.SystemUserID {
		return
	}
	if err := u.messages.SendPrivateMessage(ctx, userID, title, body); err != nil {
		logger.Warn(ctx, "dispute notification failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}
