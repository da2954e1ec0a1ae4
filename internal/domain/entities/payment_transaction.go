package entities

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// TransactionStatus represents payment transaction status
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
	TransactionStatusRefunded  TransactionStatus = "refunded"
	TransactionStatusExpired   TransactionStatus = "expired"
)

// PaymentTransaction is an external merchant's payment intent, distinct from
// the settlement Order created once the payer confirms. ExternalReference is
// the merchant-supplied idempotency key, unique per merchant app.
type PaymentTransaction struct {
	ID                int64             `json:"id" gorm:"primaryKey"`
	TransactionID     string            `json:"transactionId" gorm:"size:64;uniqueIndex;not null"`
	MerchantAppID     int64             `json:"merchantAppId" gorm:"not null;index;uniqueIndex:idx_txn_app_reference"`
	ExternalReference string            `json:"externalReference" gorm:"size:128;not null;uniqueIndex:idx_txn_app_reference"`
	Description       string            `json:"description" gorm:"size:500;default:''"`
	Amount            decimal.Decimal   `json:"amount" gorm:"type:decimal(20,2);not null"`
	PlatformFee       decimal.Decimal   `json:"platformFee" gorm:"type:decimal(20,2);default:0"`
	MerchantPoints    decimal.Decimal   `json:"merchantPoints" gorm:"type:decimal(20,2);default:0"`
	Status            TransactionStatus `json:"status" gorm:"size:20;default:'pending';index"`
	PayerUserID       null.Int64        `json:"payerUserId,omitempty"`
	CreditOrderID     null.Int64        `json:"creditOrderId,omitempty"`
	PaidAt            null.Time         `json:"paidAt,omitempty"`
	ExpiresAt         null.Time         `json:"expiresAt,omitempty"`
	ErrorMessage      null.String       `json:"errorMessage,omitempty" gorm:"size:500"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// TableName overrides the table name
func (PaymentTransaction) TableName() string {
	return "credit_payment_transactions"
}

// Expired reports whether a pending transaction is past its deadline.
func (t *PaymentTransaction) Expired(now time.Time) bool {
	return t.Status == TransactionStatusPending && t.ExpiresAt.Valid && t.ExpiresAt.Time.Before(now)
}

// Completable reports whether the payer may still confirm the transaction.
func (t *PaymentTransaction) Completable(now time.Time) bool {
	return t.Status == TransactionStatusPending && !t.Expired(now)
}
