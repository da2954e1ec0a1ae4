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

// TransferUsecase handles user-to-user credit transfers
type TransferUsecase struct {
	walletUC   *WalletUsecase
	walletRepo repositories.WalletRepository
	orderRepo  repositories.OrderRepository
	configRepo repositories.ConfigRepository
	fees       *FeeResolver
	uow        repositories.UnitOfWork
	identity   gateways.IdentityGateway
	messages   gateways.MessageGateway
}

// NewTransferUsecase creates a new transfer usecase
func NewTransferUsecase(
	walletUC *WalletUsecase,
	walletRepo repositories.WalletRepository,
	orderRepo repositories.OrderRepository,
	configRepo repositories.ConfigRepository,
	fees *FeeResolver,
	uow repositories.UnitOfWork,
	identity gateways.IdentityGateway,
	messages gateways.MessageGateway,
) *TransferUsecase {
	return &TransferUsecase{
		walletUC:   walletUC,
		walletRepo: walletRepo,
		orderRepo:  orderRepo,
		configRepo: configRepo,
		fees:       fees,
		uow:        uow,
		identity:   identity,
		messages:   messages,
	}
}

// TransferInput is a transfer request
type TransferInput struct {
	ToUsername string
	Amount     decimal.Decimal
	PIN        string
	Remark     string
}

// Transfer moves credits from one user to another. Debit and credit land in
// one transaction; the daily limit and fee rate come from the config store.
func (u *TransferUsecase) Transfer(ctx context.Context, fromUserID int64, input *TransferInput) (*entities.Order, error) {
	if err := validateAmount(input.Amount); err != nil {
		return nil, err
	}

	payee, err := u.identity.ResolveUsername(ctx, input.ToUsername)
	if err != nil {
		if err == domainerrors.ErrNotFound {
			return nil, domainerrors.NotFound("recipient not found")
		}
		return nil, err
	}
	if !payee.Active {
		return nil, domainerrors.Validation("recipient account is not active")
	}
	if payee.ID == fromUserID {
		return nil, domainerrors.Validation("cannot transfer to yourself")
	}

	payerWallet, err := u.walletUC.EnsureWallet(ctx, fromUserID)
	if err != nil {
		return nil, err
	}
	payeeWallet, err := u.walletUC.EnsureWallet(ctx, payee.ID)
	if err != nil {
		return nil, err
	}
	if err := u.walletUC.VerifyPIN(ctx, payerWallet, input.PIN); err != nil {
		return nil, err
	}

	now := time.Now()
	dailyLimit := decimal.NewFromInt(int64(u.configRepo.GetInt(ctx, entities.ConfigDailyTransferLimit)))
	if dailyLimit.IsPositive() {
		sent, sumErr := u.orderRepo.SumTransfersSince(ctx, fromUserID, startOfDay(now))
		if sumErr != nil {
			return nil, sumErr
		}
		if sent.Add(input.Amount).GreaterThan(dailyLimit) {
			return nil, domainerrors.Validation(fmt.Sprintf("daily transfer limit of %s exceeded", dailyLimit.String()))
		}
	}

	rate := u.fees.Resolve(ctx, payerWallet.PayScore, entities.ConfigTransferFeeRate)
	fee, actual := SplitFee(input.Amount, rate)

	order := &entities.Order{
		OrderNo:      GenerateOrderNo(now),
		OrderName:    "transfer to " + payee.Username,
		PayerUserID:  fromUserID,
		PayeeUserID:  payee.ID,
		Amount:       input.Amount,
		FeeRate:      rate,
		FeeAmount:    fee,
		ActualAmount: actual,
		Status:       entities.OrderStatusSuccess,
		OrderType:    entities.OrderTypeTransfer,
		Remark:       input.Remark,
		TradeTime:    null.TimeFrom(now),
	}
	// The payee gets their own ledger row so both sides see the movement
	// in their order history.
	receiveOrder := &entities.Order{
		OrderNo:      GenerateOrderNo(now),
		OrderName:    "transfer received",
		PayerUserID:  entities.SystemUserID,
		PayeeUserID:  payee.ID,
		Amount:       actual,
		ActualAmount: actual,
		Status:       entities.OrderStatusSuccess,
		OrderType:    entities.OrderTypeReceive,
		Remark:       input.Remark,
		TradeTime:    null.TimeFrom(now),
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if debitErr := debitWallet(txCtx, u.walletRepo, payerWallet.ID, input.Amount,
			repositories.CounterDelta{Counter: repositories.CounterTotalTransfer, Delta: input.Amount},
			repositories.CounterDelta{Counter: repositories.CounterTotalPayment, Delta: input.Amount}); debitErr != nil {
			return debitErr
		}
		if _, creditErr := u.walletRepo.ConditionalAdjust(txCtx, payeeWallet.ID, actual,
			repositories.CounterDelta{Counter: repositories.CounterTotalReceive, Delta: actual}); creditErr != nil {
			return creditErr
		}
		if createErr := u.orderRepo.Create(txCtx, order); createErr != nil {
			return createErr
		}
		return u.orderRepo.Create(txCtx, receiveOrder)
	})
	if err != nil {
		return nil, err
	}

	u.walletUC.AccruePayScore(ctx, payerWallet.ID, u.fees.PayScoreDelta(ctx, input.Amount))
	u.notifyPayee(ctx, payee.ID, actual, input.Remark)
	return order, nil
}

// SearchRecipients finds candidate transfer recipients by username keyword
func (u *TransferUsecase) SearchRecipients(ctx context.Context, keyword string, limit int) ([]*gateways.ForumUser, error) {
	if keyword == "" {
		return nil, domainerrors.Validation("search keyword required")
	}
	if limit <= 0 || limit > 20 {
		limit = 10
	}
	return u.identity.SearchUsers(ctx, keyword, limit)
}

func (u *TransferUsecase) notifyPayee(ctx context.Context, payeeID int64, amount decimal.Decimal, remark string) {
	if u.messages == nil {
		return
	}
	body := fmt.Sprintf("You received a transfer of %s credits.", amount.StringFixed(2))
	if remark != "" {
		body += "\n\n> " + remark
	}
	if err := u.messages.SendPrivateMessage(ctx, payeeID, "Transfer received", body); err != nil {
		logger.Warn(ctx, "transfer notification failed", zap.Int64("payee_id", payeeID), zap.Error(err))
	}
}

// validateAmount enforces the shared amount rules: positive, at least 0.01,
// no more than 2 decimal places.
func validateAmount(amount decimal.Decimal) error {
	if amount.LessThan(decimal.NewFromFloat(0.01)) {
		return domainerrors.Validation("amount must be at least 0.01")
	}
	if amount.Exponent() < -2 {
		return domainerrors.Validation("amount must have at most 2 decimal places")
	}
	return nil
}
