package usecases

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"credit-ledger.backend/internal/domain/entities"
	domainerrors "credit-ledger.backend/internal/domain/errors"
	"credit-ledger.backend/internal/domain/gateways"
	"credit-ledger.backend/internal/domain/repositories"
	"credit-ledger.backend/pkg/crypto"
	"credit-ledger.backend/pkg/logger"
)

// WalletUsecase handles wallet lifecycle and PIN management
type WalletUsecase struct {
	walletRepo repositories.WalletRepository
	orderRepo  repositories.OrderRepository
	configRepo repositories.ConfigRepository
	uow        repositories.UnitOfWork
	scores     gateways.ScoreGateway
}

// NewWalletUsecase creates a new wallet usecase
func NewWalletUsecase(
	walletRepo repositories.WalletRepository,
	orderRepo repositories.OrderRepository,
	configRepo repositories.ConfigRepository,
	uow repositories.UnitOfWork,
	scores gateways.ScoreGateway,
) *WalletUsecase {
	return &WalletUsecase{
		walletRepo: walletRepo,
		orderRepo:  orderRepo,
		configRepo: configRepo,
		uow:        uow,
		scores:     scores,
	}
}

// EnsureWallet returns the user's wallet, creating it on first access. A new
// wallet receives the configured initial credit, snapshots the current
// leaderboard score as the community-sync baseline, and records the grant as
// an order so balances stay explainable from the order log alone.
func (u *WalletUsecase) EnsureWallet(ctx context.Context, userID int64) (*entities.Wallet, error) {
	wallet, err := u.walletRepo.GetByUserID(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if err != domainerrors.ErrNotFound {
		return nil, err
	}

	signKey, err := crypto.GenerateSignKey()
	if err != nil {
		return nil, err
	}
	initial := u.configRepo.GetDecimal(ctx, entities.ConfigNewUserInitialCredit)

	baseline := 0
	if u.scores != nil {
		if score, scoreErr := u.scores.Score(ctx, userID); scoreErr == nil {
			baseline = score
		}
	}

	created := &entities.Wallet{
		UserID:                  userID,
		SignKey:                 signKey,
		AvailableBalance:        initial,
		TotalReceive:            initial,
		InitialLeaderboardScore: baseline,
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if createErr := u.walletRepo.Create(txCtx, created); createErr != nil {
			return createErr
		}
		if initial.IsPositive() {
			now := time.Now()
			order := &entities.Order{
				OrderNo:      GenerateOrderNo(now),
				OrderName:    "signup bonus",
				PayerUserID:  entities.SystemUserID,
				PayeeUserID:  userID,
				Amount:       initial,
				ActualAmount: initial,
				Status:       entities.OrderStatusSuccess,
				OrderType:    entities.OrderTypeReceive,
				Remark:       "initial credit on account opening",
				TradeTime:    null.TimeFrom(now),
			}
			if orderErr := u.orderRepo.Create(txCtx, order); orderErr != nil {
				return orderErr
			}
		}
		return nil
	})
	if err != nil {
		// a concurrent first access may have created the row already
		if existing, getErr := u.walletRepo.GetByUserID(ctx, userID); getErr == nil {
			return existing, nil
		}
		return nil, err
	}

	logger.Info(ctx, "wallet created",
		zap.Int64("user_id", userID),
		zap.String("initial_credit", initial.String()),
		zap.Int("baseline_score", baseline))
	return created, nil
}

// ListOrders returns the user's order history with the given filter
func (u *WalletUsecase) ListOrders(ctx context.Context, userID int64, filter repositories.OrderListFilter, limit, offset int) ([]*entities.Order, int64, error) {
	if filter == "" {
		filter = repositories.OrderFilterAll
	}
	return u.orderRepo.ListForUser(ctx, userID, filter, limit, offset)
}

// SetPayKey sets or changes the 6-digit payment PIN. Changing an existing
// PIN requires the old one.
func (u *WalletUsecase) SetPayKey(ctx context.Context, userID int64, newPIN, oldPIN string) error {
	if !validPIN(newPIN) {
		return domainerrors.Validation("payment PIN must be 6 digits")
	}
	wallet, err := u.EnsureWallet(ctx, userID)
	if err != nil {
		return err
	}
	if wallet.HasPayKey() {
		if oldPIN == "" {
			return domainerrors.Validation("current payment PIN required")
		}
		if !crypto.VerifyPayKey(wallet.SignKey, wallet.PayKey, oldPIN) {
			return domainerrors.Unauthorized("incorrect payment PIN")
		}
	}
	encrypted, err := crypto.EncryptPayKey(wallet.SignKey, newPIN)
	if err != nil {
		return err
	}
	return u.walletRepo.SetPayKey(ctx, wallet.ID, encrypted)
}

// VerifyPIN checks the payment PIN for a charged operation. A wallet without
// a PIN cannot authorize payments.
func (u *WalletUsecase) VerifyPIN(ctx context.Context, wallet *entities.Wallet, pin string) error {
	if !wallet.HasPayKey() {
		return domainerrors.InvalidState("payment PIN not set")
	}
	if !crypto.VerifyPayKey(wallet.SignKey, wallet.PayKey, pin) {
		return domainerrors.Unauthorized("incorrect payment PIN")
	}
	return nil
}

// AccruePayScore adds reputation for a spent amount. Best effort: the caller
// never fails a settled payment over it.
func (u *WalletUsecase) AccruePayScore(ctx context.Context, walletID int64, delta int) {
	if delta <= 0 {
		return
	}
	if err := u.walletRepo.AddPayScore(ctx, walletID, delta); err != nil {
		logger.Warn(ctx, "pay score accrual failed",
			zap.Int64("wallet_id", walletID), zap.Int("delta", delta), zap.Error(err))
	}
}

func validPIN(pin string) bool {
	if len(pin) != 6 {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// debitWallet runs the conditional debit and maps a zero rows-affected
// result to the insufficient-balance error. Shared by every paying usecase.
func debitWallet(ctx context.Context, repo repositories.WalletRepository, walletID int64, amount decimal.Decimal, counters ...repositories.CounterDelta) error {
	affected, err := repo.ConditionalAdjust(ctx, walletID, amount.Neg(), counters...)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domainerrors.InsufficientBalance("insufficient balance")
	}
	return nil
}
