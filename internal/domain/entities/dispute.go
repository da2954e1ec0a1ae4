package entities

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// DisputeStatus represents dispute lifecycle status
type DisputeStatus string

const (
	DisputeStatusDisputing    DisputeStatus = "disputing"
	DisputeStatusRefund       DisputeStatus = "refund"
	DisputeStatusClosed       DisputeStatus = "closed"
	DisputeStatusAutoRefunded DisputeStatus = "auto_refunded"
)

// Terminal reports whether the dispute reached a final state. No transition
// ever leaves a terminal state.
func (s DisputeStatus) Terminal() bool {
	return s != DisputeStatusDisputing
}

// Dispute is a contested-order workflow, one-to-one with its order. It is
// resolved manually by the payee (refund or reject), withdrawn by the
// initiator, or auto-refunded by the scheduled sweep past DeadlineAt.
type Dispute struct {
	ID                 int64           `json:"id" gorm:"primaryKey"`
	OrderID            int64           `json:"orderId" gorm:"uniqueIndex;not null"`
	InitiatorUserID    int64           `json:"initiatorUserId" gorm:"not null;index"`
	Reason             string          `json:"reason" gorm:"size:500;not null"`
	Status             DisputeStatus   `json:"status" gorm:"size:20;default:'disputing';index"`
	HandlerUserID      null.Int64      `json:"handlerUserId,omitempty"`
	DeadlineAt         time.Time       `json:"deadlineAt" gorm:"index"`
	Resolution         null.String     `json:"resolution,omitempty" gorm:"size:500"`
	CompensationAmount decimal.Decimal `json:"compensationAmount" gorm:"type:decimal(20,2);default:0"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// TableName overrides the table name
func (Dispute) TableName() string {
	return "credit_disputes"
}
