package usecases

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
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

var minClaim = decimal.NewFromFloat(0.01)

// RedEnvelopeUsecase handles pooled gift creation, claiming and refund
type RedEnvelopeUsecase struct {
	walletUC     *WalletUsecase
	walletRepo   repositories.WalletRepository
	orderRepo    repositories.OrderRepository
	envelopeRepo repositories.RedEnvelopeRepository
	configRepo   repositories.ConfigRepository
	uow          repositories.UnitOfWork
	identity     gateways.IdentityGateway
}

// NewRedEnvelopeUsecase creates a new red envelope usecase
func NewRedEnvelopeUsecase(
	walletUC *WalletUsecase,
	walletRepo repositories.WalletRepository,
	orderRepo repositories.OrderRepository,
	envelopeRepo repositories.RedEnvelopeRepository,
	configRepo repositories.ConfigRepository,
	uow repositories.UnitOfWork,
	identity gateways.IdentityGateway,
) *RedEnvelopeUsecase {
	return &RedEnvelopeUsecase{
		walletUC:     walletUC,
		walletRepo:   walletRepo,
		orderRepo:    orderRepo,
		envelopeRepo: envelopeRepo,
		configRepo:   configRepo,
		uow:          uow,
		identity:     identity,
	}
}

// CreateEnvelopeInput is a red envelope creation request
type CreateEnvelopeInput struct {
	Type         entities.EnvelopeType
	TotalAmount  decimal.Decimal
	TotalCount   int
	Message      string
	PIN          string
	TopicID      *int64
	PostID       *int64
	RequireReply bool
}

// Create debits the sender for the pool plus fee and opens the envelope
func (u *RedEnvelopeUsecase) Create(ctx context.Context, senderID int64, input *CreateEnvelopeInput) (*entities.RedEnvelope, error) {
	if input.Type != entities.EnvelopeTypeFixed && input.Type != entities.EnvelopeTypeRandom {
		return nil, domainerrors.Validation("envelope type must be fixed or random")
	}
	if err := validateAmount(input.TotalAmount); err != nil {
		return nil, err
	}
	maxRecipients := u.configRepo.GetInt(ctx, entities.ConfigRedEnvelopeMaxRecipients)
	if input.TotalCount < 1 || input.TotalCount > maxRecipients {
		return nil, domainerrors.Validation(fmt.Sprintf("recipient count must be between 1 and %d", maxRecipients))
	}
	maxAmount := u.configRepo.GetDecimal(ctx, entities.ConfigRedEnvelopeMaxAmount)
	if input.TotalAmount.GreaterThan(maxAmount) {
		return nil, domainerrors.Validation(fmt.Sprintf("envelope must not exceed %s", maxAmount.String()))
	}
	// every slot must be claimable
	if input.TotalAmount.LessThan(minClaim.Mul(decimal.NewFromInt(int64(input.TotalCount)))) {
		return nil, domainerrors.Validation("amount too small for the recipient count")
	}
	if input.RequireReply && input.TopicID == nil {
		return nil, domainerrors.Validation("reply-gated envelopes need a topic")
	}

	now := time.Now()
	dailyLimit := u.configRepo.GetInt(ctx, entities.ConfigRedEnvelopeDailyLimit)
	if dailyLimit > 0 {
		sentToday, err := u.envelopeRepo.CountCreatedSince(ctx, senderID, startOfDay(now))
		if err != nil {
			return nil, err
		}
		if sentToday >= int64(dailyLimit) {
			return nil, domainerrors.Validation(fmt.Sprintf("daily limit of %d envelopes reached", dailyLimit))
		}
	}

	wallet, err := u.walletUC.EnsureWallet(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if err := u.walletUC.VerifyPIN(ctx, wallet, input.PIN); err != nil {
		return nil, err
	}

	feeRate := u.configRepo.GetDecimal(ctx, entities.ConfigRedEnvelopeFeeRate)
	fee := input.TotalAmount.Mul(feeRate).Round(2)
	charge := input.TotalAmount.Add(fee)
	expireHours := u.configRepo.GetInt(ctx, entities.ConfigRedEnvelopeExpireHours)

	envelope := &entities.RedEnvelope{
		SenderID:        senderID,
		EnvelopeType:    input.Type,
		TotalAmount:     input.TotalAmount,
		RemainingAmount: input.TotalAmount,
		TotalCount:      input.TotalCount,
		RemainingCount:  input.TotalCount,
		Message:         input.Message,
		Status:          entities.EnvelopeStatusActive,
		TopicID:         input.TopicID,
		PostID:          input.PostID,
		RequireReply:    input.RequireReply,
		ExpiresAt:       now.Add(time.Duration(expireHours) * time.Hour),
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if debitErr := debitWallet(txCtx, u.walletRepo, wallet.ID, charge,
			repositories.CounterDelta{Counter: repositories.CounterTotalPayment, Delta: charge}); debitErr != nil {
			return debitErr
		}
		if createErr := u.envelopeRepo.Create(txCtx, envelope); createErr != nil {
			return createErr
		}
		order := &entities.Order{
			OrderNo:      GenerateOrderNo(now),
			OrderName:    "red envelope",
			PayerUserID:  senderID,
			PayeeUserID:  entities.SystemUserID,
			Amount:       input.TotalAmount,
			FeeRate:      feeRate,
			FeeAmount:    fee,
			ActualAmount: input.TotalAmount,
			Status:       entities.OrderStatusSuccess,
			OrderType:    entities.OrderTypeRedEnvelopeSend,
			Remark:       fmt.Sprintf("envelope:%d,%s", envelope.ID, input.Message),
			TradeTime:    null.TimeFrom(now),
		}
		return u.orderRepo.Create(txCtx, order)
	})
	if err != nil {
		return nil, err
	}
	return envelope, nil
}

// Claim grabs one slot of an envelope. The envelope row is read under lock
// so concurrent claimants each see the true remaining amount.
func (u *RedEnvelopeUsecase) Claim(ctx context.Context, envelopeID, userID int64) (*entities.RedEnvelopeClaim, error) {
	wallet, err := u.walletUC.EnsureWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	var claim *entities.RedEnvelopeClaim
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		envelope, getErr := u.envelopeRepo.GetByID(u.uow.WithLock(txCtx), envelopeID)
		if getErr != nil {
			if getErr == domainerrors.ErrNotFound {
				return domainerrors.NotFound("red envelope not found")
			}
			return getErr
		}

		now := time.Now()
		if envelope.Status != entities.EnvelopeStatusActive || envelope.Exhausted() {
			return domainerrors.InvalidState("red envelope has been fully claimed")
		}
		if now.After(envelope.ExpiresAt) {
			return domainerrors.Expired("red envelope has expired")
		}
		if envelope.SenderID == userID {
			return domainerrors.Validation("cannot claim your own red envelope")
		}
		if taken, hasErr := u.envelopeRepo.HasClaim(txCtx, envelopeID, userID); hasErr != nil {
			return hasErr
		} else if taken {
			return domainerrors.Conflict("red envelope already claimed")
		}
		if envelope.RequireReply && envelope.TopicID != nil {
			replied, replyErr := u.identity.HasReplied(txCtx, userID, *envelope.TopicID)
			if replyErr != nil {
				return replyErr
			}
			if !replied {
				return domainerrors.Validation("reply to the topic before claiming")
			}
		}

		amount, splitErr := splitAmount(envelope)
		if splitErr != nil {
			return splitErr
		}

		claim = &entities.RedEnvelopeClaim{RedEnvelopeID: envelopeID, UserID: userID, Amount: amount}
		if createErr := u.envelopeRepo.CreateClaim(txCtx, claim); createErr != nil {
			if createErr == domainerrors.ErrConflict {
				return domainerrors.Conflict("red envelope already claimed")
			}
			return createErr
		}

		envelope.RemainingAmount = envelope.RemainingAmount.Sub(amount)
		envelope.RemainingCount--
		if envelope.Exhausted() {
			envelope.Status = entities.EnvelopeStatusFinished
		}
		if updateErr := u.envelopeRepo.Update(txCtx, envelope); updateErr != nil {
			return updateErr
		}

		if _, creditErr := u.walletRepo.ConditionalAdjust(txCtx, wallet.ID, amount,
			repositories.CounterDelta{Counter: repositories.CounterTotalReceive, Delta: amount}); creditErr != nil {
			return creditErr
		}

		order := &entities.Order{
			OrderNo:      GenerateOrderNo(now),
			OrderName:    "red envelope claim",
			PayerUserID:  envelope.SenderID,
			PayeeUserID:  userID,
			Amount:       amount,
			ActualAmount: amount,
			Status:       entities.OrderStatusSuccess,
			OrderType:    entities.OrderTypeRedEnvelopeReceive,
			Remark:       fmt.Sprintf("envelope:%d", envelopeID),
			TradeTime:    null.TimeFrom(now),
		}
		return u.orderRepo.Create(txCtx, order)
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// splitAmount computes the claimant's share.
//
// Fixed envelopes pay round(total/count, 2) per slot; rounding remainder
// accumulates into the last slot, which takes whatever is left. Random
// envelopes draw uniformly from (0, 2 x remaining/count], clamped so at
// least 0.01 stays behind for each unclaimed slot.
func splitAmount(envelope *entities.RedEnvelope) (decimal.Decimal, error) {
	remaining := envelope.RemainingAmount
	count := int64(envelope.RemainingCount)
	if count <= 0 || !remaining.IsPositive() {
		return decimal.Zero, domainerrors.InvalidState("red envelope has been fully claimed")
	}
	if count == 1 {
		return remaining, nil
	}

	if envelope.EnvelopeType == entities.EnvelopeTypeFixed {
		per := envelope.TotalAmount.Div(decimal.NewFromInt(int64(envelope.TotalCount))).Round(2)
		if per.LessThan(minClaim) {
			per = minClaim
		}
		if per.GreaterThan(remaining) {
			per = remaining
		}
		return per, nil
	}

	// random: mean of the draw is remaining/count so expectation stays fair
	// for later claimants
	doubleShare := remaining.Mul(decimal.NewFromInt(2)).Div(decimal.NewFromInt(count)).Round(2)
	drawn, err := randomAmount(doubleShare)
	if err != nil {
		return decimal.Zero, err
	}
	reserve := minClaim.Mul(decimal.NewFromInt(count - 1))
	ceiling := remaining.Sub(reserve)
	if drawn.GreaterThan(ceiling) {
		drawn = ceiling
	}
	if drawn.LessThan(minClaim) {
		drawn = minClaim
	}
	return drawn, nil
}

// randomAmount draws a uniform amount in (0, max] at cent granularity.
func randomAmount(max decimal.Decimal) (decimal.Decimal, error) {
	cents := max.Mul(decimal.NewFromInt(100)).IntPart()
	if cents < 1 {
		return minClaim, nil
	}
	n, err := rand.Int(rand.Reader, big.NewInt(cents))
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(n.Int64()+1, -2), nil
}

// EnvelopeDetail is an envelope with its claims and the viewer's own claim
type EnvelopeDetail struct {
	Envelope *entities.RedEnvelope        `json:"envelope"`
	Claims   []*entities.RedEnvelopeClaim `json:"claims"`
	MyClaim  *entities.RedEnvelopeClaim   `json:"myClaim,omitempty"`
}

// Show returns an envelope with its claim history
func (u *RedEnvelopeUsecase) Show(ctx context.Context, envelopeID, viewerID int64) (*EnvelopeDetail, error) {
	envelope, err := u.envelopeRepo.GetByID(ctx, envelopeID)
	if err != nil {
		if err == domainerrors.ErrNotFound {
			return nil, domainerrors.NotFound("red envelope not found")
		}
		return nil, err
	}
	claims, err := u.envelopeRepo.ListClaims(ctx, envelopeID)
	if err != nil {
		return nil, err
	}
	detail := &EnvelopeDetail{Envelope: envelope, Claims: claims}
	for _, c := range claims {
		if c.UserID == viewerID {
			detail.MyClaim = c
			break
		}
	}
	return detail, nil
}

// ListSent lists envelopes the user created
func (u *RedEnvelopeUsecase) ListSent(ctx context.Context, userID int64, limit, offset int) ([]*entities.RedEnvelope, int64, error) {
	return u.envelopeRepo.ListBySender(ctx, userID, limit, offset)
}

// ListClaimed lists the user's claims
func (u *RedEnvelopeUsecase) ListClaimed(ctx context.Context, userID int64, limit, offset int) ([]*entities.RedEnvelopeClaim, int64, error) {
	return u.envelopeRepo.ListClaimedBy(ctx, userID, limit, offset)
}

// RefundExpired returns an expired envelope's remaining pool to the sender.
// Used by the scheduled sweep; the envelope is re-read under lock so a claim
// racing the sweep never double-spends the pool.
func (u *RedEnvelopeUsecase) RefundExpired(ctx context.Context, envelopeID int64) error {
	return u.uow.Do(ctx, func(txCtx context.Context) error {
		envelope, err := u.envelopeRepo.GetByID(u.uow.WithLock(txCtx), envelopeID)
		if err != nil {
			return err
		}
		if envelope.Status != entities.EnvelopeStatusActive {
			return nil
		}
		now := time.Now()
		if now.Before(envelope.ExpiresAt) {
			return nil
		}

		refund := envelope.RemainingAmount
		envelope.Status = entities.EnvelopeStatusExpired
		envelope.RemainingAmount = decimal.Zero
		envelope.RemainingCount = 0
		if err := u.envelopeRepo.Update(txCtx, envelope); err != nil {
			return err
		}
		if !refund.IsPositive() {
			return nil
		}

		wallet, err := u.walletUC.EnsureWallet(txCtx, envelope.SenderID)
		if err != nil {
			return err
		}
		if _, err := u.walletRepo.ConditionalAdjust(txCtx, wallet.ID, refund,
			repositories.CounterDelta{Counter: repositories.CounterTotalReceive, Delta: refund}); err != nil {
			return err
		}

		order := &entities.Order{
			OrderNo:      GenerateOrderNo(now),
			OrderName:    "red envelope refund",
			PayerUserID:  entities.SystemUserID,
			PayeeUserID:  envelope.SenderID,
			Amount:       refund,
			ActualAmount: refund,
			Status:       entities.OrderStatusSuccess,
			OrderType:    entities.OrderTypeRedEnvelopeRefund,
			Remark:       fmt.Sprintf("envelope:%d", envelope.ID),
			TradeTime:    null.TimeFrom(now),
		}
		if err := u.orderRepo.Create(txCtx, order); err != nil {
			return err
		}
		logger.Info(txCtx, "expired envelope refunded",
			zap.Int64("envelope_id", envelope.ID),
			zap.String("amount", refund.String()))
		return nil
	})
}
