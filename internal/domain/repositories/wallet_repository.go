package repositories

import (
	"context"

	"github.com/shopspring/decimal"
	"credit-ledger.backend/internal/domain/entities"
)

// BalanceCounter names a wallet running-total column adjusted alongside the
// available balance.
type BalanceCounter string

const (
	CounterTotalReceive     BalanceCounter = "total_receive"
	CounterTotalPayment     BalanceCounter = "total_payment"
	CounterTotalTransfer    BalanceCounter = "total_transfer"
	CounterCommunityBalance BalanceCounter = "community_balance"
	CounterTotalCommunity   BalanceCounter = "total_community"
)

// CounterDelta pairs a counter with the delta applied to it.
type CounterDelta struct {
	Counter BalanceCounter
	Delta   decimal.Decimal
}

// WalletRepository defines wallet data operations. All balance mutations go
// through ConditionalAdjust or ClampedAdjust so the atomicity contract is a
// first-class abstraction instead of inlined query strings.
type WalletRepository interface {
	Create(ctx context.Context, wallet *entities.Wallet) error
	GetByUserID(ctx context.Context, userID int64) (*entities.Wallet, error)
	GetByID(ctx context.Context, id int64) (*entities.Wallet, error)

	// ConditionalAdjust applies delta to available_balance and every counter
	// delta in the same statement, guarded by
	// "available_balance + delta >= 0". It returns the number of rows
	// affected: 0 means the balance check failed at write time.
	ConditionalAdjust(ctx context.Context, walletID int64, delta decimal.Decimal, counters ...CounterDelta) (int64, error)

	// ClampedAdjust applies delta to available_balance and the counters,
	// flooring each column at zero instead of rejecting the write. Used by
	// reconciliation paths that reclaim more than the wallet still holds.
	ClampedAdjust(ctx context.Context, walletID int64, delta decimal.Decimal, counters ...CounterDelta) error

	// AddPayScore increments the reputation counter.
	AddPayScore(ctx context.Context, walletID int64, delta int) error

	SetPayKey(ctx context.Context, walletID int64, encryptedPayKey string) error
	SetBaselineScore(ctx context.Context, walletID int64, score int) error

	// ListUserIDs returns the user ids of all wallets, for the score sync
	// sweep which processes wallets independently.
	ListUserIDs(ctx context.Context) ([]int64, error)
}
