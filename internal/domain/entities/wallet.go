package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a forum user's credit balance and running totals.
// One row per user, created lazily on first access and never hard-deleted.
type Wallet struct {
	ID                      int64           `json:"id" gorm:"primaryKey"`
	UserID                  int64           `json:"userId" gorm:"uniqueIndex;not null"`
	SignKey                 string          `json:"-" gorm:"size:64;not null"`
	PayKey                  string          `json:"-" gorm:"size:200;default:''"`
	AvailableBalance        decimal.Decimal `json:"availableBalance" gorm:"type:decimal(20,2);not null;default:0"`
	TotalReceive            decimal.Decimal `json:"totalReceive" gorm:"type:decimal(20,2);not null;default:0"`
	TotalPayment            decimal.Decimal `json:"totalPayment" gorm:"type:decimal(20,2);not null;default:0"`
	TotalTransfer           decimal.Decimal `json:"totalTransfer" gorm:"type:decimal(20,2);not null;default:0"`
	CommunityBalance        decimal.Decimal `json:"communityBalance" gorm:"type:decimal(20,2);not null;default:0"`
	TotalCommunity          decimal.Decimal `json:"totalCommunity" gorm:"type:decimal(20,2);not null;default:0"`
	InitialLeaderboardScore int             `json:"initialLeaderboardScore" gorm:"not null;default:0"`
	PayScore                int             `json:"payScore" gorm:"not null;default:0"`
	IsAdmin                 bool            `json:"isAdmin" gorm:"default:false"`
	CreatedAt               time.Time       `json:"createdAt"`
	UpdatedAt               time.Time       `json:"updatedAt"`
}

// TableName overrides the table name
func (Wallet) TableName() string {
	return "credit_wallets"
}

// HasPayKey reports whether the wallet has a payment PIN configured.
func (w *Wallet) HasPayKey() bool {
	return w.PayKey != ""
}

// PayLevelConfig is a reputation-score bracket determining a user's
// effective fee rate. A bracket matches a score when min_score <= score
// and max_score is either null or > score.
type PayLevelConfig struct {
	ID         int64            `json:"id" gorm:"primaryKey"`
	Level      int              `json:"level" gorm:"uniqueIndex;not null"`
	MinScore   int              `json:"minScore" gorm:"not null;default:0"`
	MaxScore   *int             `json:"maxScore,omitempty"`
	DailyLimit *int             `json:"dailyLimit,omitempty"`
	FeeRate    *decimal.Decimal `json:"feeRate,omitempty" gorm:"type:decimal(5,4)"`
	ScoreRate  decimal.Decimal  `json:"scoreRate" gorm:"type:decimal(5,4);default:0"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// TableName overrides the table name
func (PayLevelConfig) TableName() string {
	return "credit_pay_configs"
}

// Matches reports whether the bracket covers the given pay score.
func (c *PayLevelConfig) Matches(score int) bool {
	if score < c.MinScore {
		return false
	}
	return c.MaxScore == nil || *c.MaxScore > score
}
