package repositories

import (
	"context"
	"time"

	"credit-ledger.backend/internal/domain/entities"
)

// PaymentTransactionRepository defines payment-intent data operations
type PaymentTransactionRepository interface {
	Create(ctx context.Context, txn *entities.PaymentTransaction) error
	GetByTransactionID(ctx context.Context, transactionID string) (*entities.PaymentTransaction, error)
	// GetByReference looks up the merchant's idempotency key within one app.
	GetByReference(ctx context.Context, merchantAppID int64, externalReference string) (*entities.PaymentTransaction, error)
	Update(ctx context.Context, txn *entities.PaymentTransaction) error

	// ExpirePending bulk-flips pending transactions past their deadline.
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}
