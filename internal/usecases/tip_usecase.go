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

// TipUsecase handles tipping post authors
type TipUsecase struct {
	walletUC   *WalletUsecase
	walletRepo repositories.WalletRepository
	orderRepo  repositories.OrderRepository
	configRepo repositories.ConfigRepository
	fees       *FeeResolver
	uow        repositories.UnitOfWork
	identity   gateways.IdentityGateway
	messages   gateways.MessageGateway
}

// NewTipUsecase creates a new tip usecase
func NewTipUsecase(
	walletUC *WalletUsecase,
	walletRepo repositories.WalletRepository,
	orderRepo repositories.OrderRepository,
	configRepo repositories.ConfigRepository,
	fees *FeeResolver,
	uow repositories.UnitOfWork,
	identity gateways.IdentityGateway,
	messages gateways.MessageGateway,
) *TipUsecase {
	return &TipUsecase{
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

// TipInput is a tip request. AuthorUserID is the post author resolved by the
// hosting forum.
type TipInput struct {
	PostID       int64
	AuthorUserID int64
	Amount       decimal.Decimal
	PIN          string
	Message      string
}

// Tip sends credits to a post author, bound to the post for later listing
func (u *TipUsecase) Tip(ctx context.Context, fromUserID int64, input *TipInput) (*entities.Order, error) {
	if err := validateAmount(input.Amount); err != nil {
		return nil, err
	}
	if input.AuthorUserID == fromUserID {
		return nil, domainerrors.Validation("cannot tip your own post")
	}

	minTip := u.configRepo.GetDecimal(ctx, entities.ConfigTipMinAmount)
	maxTip := u.configRepo.GetDecimal(ctx, entities.ConfigTipMaxAmount)
	if input.Amount.LessThan(minTip) {
		return nil, domainerrors.Validation(fmt.Sprintf("tip must be at least %s", minTip.String()))
	}
	if maxTip.IsPositive() && input.Amount.GreaterThan(maxTip) {
		return nil, domainerrors.Validation(fmt.Sprintf("tip must not exceed %s", maxTip.String()))
	}

	author, err := u.identity.ResolveUser(ctx, input.AuthorUserID)
	if err != nil {
		if err == domainerrors.ErrNotFound {
			return nil, domainerrors.NotFound("post author not found")
		}
		return nil, err
	}
	if !author.Active {
		return nil, domainerrors.Validation("post author account is not active")
	}

	payerWallet, err := u.walletUC.EnsureWallet(ctx, fromUserID)
	if err != nil {
		return nil, err
	}
	authorWallet, err := u.walletUC.EnsureWallet(ctx, author.ID)
	if err != nil {
		return nil, err
	}
	if err := u.walletUC.VerifyPIN(ctx, payerWallet, input.PIN); err != nil {
		return nil, err
	}

	rate := u.fees.Resolve(ctx, payerWallet.PayScore, entities.ConfigTipFeeRate)
	fee, actual := SplitFee(input.Amount, rate)

	now := time.Now()
	postID := input.PostID
	order := &entities.Order{
		OrderNo:      GenerateOrderNo(now),
		OrderName:    "tip for " + author.Username,
		PayerUserID:  fromUserID,
		PayeeUserID:  author.ID,
		Amount:       input.Amount,
		FeeRate:      rate,
		FeeAmount:    fee,
		ActualAmount: actual,
		Status:       entities.OrderStatusSuccess,
		OrderType:    entities.OrderTypeTip,
		Remark:       input.Message,
		PostID:       &postID,
		TradeTime:    null.TimeFrom(now),
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if debitErr := debitWallet(txCtx, u.walletRepo, payerWallet.ID, input.Amount,
			repositories.CounterDelta{Counter: repositories.CounterTotalPayment, Delta: input.Amount}); debitErr != nil {
			return debitErr
		}
		if _, creditErr := u.walletRepo.ConditionalAdjust(txCtx, authorWallet.ID, actual,
			repositories.CounterDelta{Counter: repositories.CounterTotalReceive, Delta: actual}); creditErr != nil {
			return creditErr
		}
		return u.orderRepo.Create(txCtx, order)
	})
	if err != nil {
		return nil, err
	}

	u.walletUC.AccruePayScore(ctx, payerWallet.ID, u.fees.PayScoreDelta(ctx, input.Amount))
	if u.messages != nil {
		body := fmt.Sprintf("Your post received a %s credit tip.", actual.StringFixed(2))
		if input.Message != "" {
			body += "\n\n> " + input.Message
		}
		if msgErr := u.messages.SendPrivateMessage(ctx, author.ID, "Tip received", body); msgErr != nil {
			logger.Warn(ctx, "tip notification failed", zap.Int64("author_id", author.ID), zap.Error(msgErr))
		}
	}
	return order, nil
}

// PostTips lists the settled tips bound to a post
func (u *TipUsecase) PostTips(ctx context.Context, postID int64) ([]*entities.Order, error) {
	return u.orderRepo.ListTipsForPost(ctx, postID)
}
