package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"credit-ledger.backend/internal/domain/entities"
	domainerrors "credit-ledger.backend/internal/domain/errors"
)

// PaymentTransactionRepositoryImpl implements payment-intent data operations
type PaymentTransactionRepositoryImpl struct {
	db *gorm.DB
}

// NewPaymentTransactionRepository creates a new payment transaction repository
func NewPaymentTransactionRepository(db *gorm.DB) *PaymentTransactionRepositoryImpl {
	return &PaymentTransactionRepositoryImpl{db: db}
}

// Create records a payment intent. The unique index on (app, reference)
// turns a duplicate merchant reference into ErrConflict.
func (r *PaymentTransactionRepositoryImpl) Create(ctx context.Context, txn *entities.PaymentTransaction) error {
	err := GetDB(ctx, r.db).WithContext(ctx).Create(txn).Error
	if err != nil && isUniqueViolation(err) {
		return domainerrors.ErrConflict
	}
	return err
}

// GetByTransactionID gets a transaction by its public id
func (r *PaymentTransactionRepositoryImpl) GetByTransactionID(ctx context.Context, transactionID string) (*entities.PaymentTransaction, error) {
	var txn entities.PaymentTransaction
	err := scoped(ctx, r.db).WithContext(ctx).Where("transaction_id = ?", transactionID).First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// GetByReference looks up the merchant's idempotency key within one app
func (r *PaymentTransactionRepositoryImpl) GetByReference(ctx context.Context, merchantAppID int64, externalReference string) (*entities.PaymentTransaction, error) {
	var txn entities.PaymentTransaction
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("merchant_app_id = ? AND external_reference = ?", merchantAppID, externalReference).
		First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// Update persists all fields of the transaction
func (r *PaymentTransactionRepositoryImpl) Update(ctx context.Context, txn *entities.PaymentTransaction) error {
	return GetDB(ctx, r.db).WithContext(ctx).Save(txn).Error
}

// ExpirePending bulk-flips pending transactions past their deadline
func (r *PaymentTransactionRepositoryImpl) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	res := GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.PaymentTransaction{}).
		Where("status = ? AND expires_at < ?", entities.TransactionStatusPending, now).
		Update("status", entities.TransactionStatusExpired)
	return res.RowsAffected, res.Error
}
