package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// EnvelopeType represents how an envelope is split among claimants
type EnvelopeType string

const (
	EnvelopeTypeFixed  EnvelopeType = "fixed"
	EnvelopeTypeRandom EnvelopeType = "random"
)

// EnvelopeStatus represents envelope lifecycle status
type EnvelopeStatus string

const (
	EnvelopeStatusActive   EnvelopeStatus = "active"
	EnvelopeStatusFinished EnvelopeStatus = "finished"
	EnvelopeStatusExpired  EnvelopeStatus = "expired"
)

// RedEnvelope is a pooled gift split among up to TotalCount claimants.
// remaining_amount and remaining_count only decrease while active;
// remaining_count == 0 implies status finished.
type RedEnvelope struct {
	ID              int64           `json:"id" gorm:"primaryKey"`
	SenderID        int64           `json:"senderId" gorm:"not null;index"`
	EnvelopeType    EnvelopeType    `json:"envelopeType" gorm:"size:20;not null"`
	TotalAmount     decimal.Decimal `json:"totalAmount" gorm:"type:decimal(20,2);not null"`
	RemainingAmount decimal.Decimal `json:"remainingAmount" gorm:"type:decimal(20,2);not null"`
	TotalCount      int             `json:"totalCount" gorm:"not null"`
	RemainingCount  int             `json:"remainingCount" gorm:"not null"`
	Message         string          `json:"message" gorm:"size:100;default:''"`
	Status          EnvelopeStatus  `json:"status" gorm:"size:20;not null;default:'active';index"`
	TopicID         *int64          `json:"topicId,omitempty" gorm:"index"`
	PostID          *int64          `json:"postId,omitempty" gorm:"index"`
	RequireReply    bool            `json:"requireReply" gorm:"default:false"`
	ExpiresAt       time.Time       `json:"expiresAt" gorm:"not null;index"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// TableName overrides the table name
func (RedEnvelope) TableName() string {
	return "credit_red_envelopes"
}

// Exhausted reports whether every slot has been claimed.
func (e *RedEnvelope) Exhausted() bool {
	return e.RemainingCount <= 0
}

// RedEnvelopeClaim records one user's claim on one envelope. At most one
// claim per (envelope, user) pair; amount is immutable once recorded.
type RedEnvelopeClaim struct {
	ID            int64           `json:"id" gorm:"primaryKey"`
	RedEnvelopeID int64           `json:"redEnvelopeId" gorm:"not null;uniqueIndex:idx_claim_envelope_user"`
	UserID        int64           `json:"userId" gorm:"not null;uniqueIndex:idx_claim_envelope_user;index"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// TableName overrides the table name
func (RedEnvelopeClaim) TableName() string {
	return "credit_red_envelope_claims"
}
