package usecases

import (
	"context"

	"github.com/shopspring/decimal"

	"credit-ledger.backend/internal/domain/entities"
	"credit-ledger.backend/internal/domain/repositories"
)

// FeeResolver resolves a payer's effective fee rate. The pay-level tier wins
// when one matches and carries a configured rate; a configured rate of zero
// is a real value, not a fallthrough. Otherwise the named config key applies.
type FeeResolver struct {
	payLevelRepo repositories.PayLevelRepository
	configRepo   repositories.ConfigRepository
}

// NewFeeResolver creates a fee resolver
func NewFeeResolver(payLevelRepo repositories.PayLevelRepository, configRepo repositories.ConfigRepository) *FeeResolver {
	return &FeeResolver{payLevelRepo: payLevelRepo, configRepo: configRepo}
}

// Resolve returns the effective fee rate for a payer with the given pay
// score, falling back to the config key when no tier rate is configured.
func (f *FeeResolver) Resolve(ctx context.Context, payScore int, fallbackKey string) decimal.Decimal {
	tier, err := f.payLevelRepo.ForScore(ctx, payScore)
	if err == nil && tier != nil && tier.FeeRate != nil {
		return *tier.FeeRate
	}
	return f.configRepo.GetDecimal(ctx, fallbackKey)
}

// PayScoreDelta converts a spent amount into earned reputation points,
// rounded to the nearest integer. Non-positive results accrue nothing.
func (f *FeeResolver) PayScoreDelta(ctx context.Context, amount decimal.Decimal) int {
	rate := f.configRepo.GetDecimal(ctx, entities.ConfigPayScoreRate)
	delta := amount.Mul(rate).Round(0).IntPart()
	if delta <= 0 {
		return 0
	}
	return int(delta)
}

// SplitFee computes the fee taken from an amount at the given rate and the
// actual amount credited to the payee. Fees round to 2 decimal places.
func SplitFee(amount, rate decimal.Decimal) (fee, actual decimal.Decimal) {
	fee = amount.Mul(rate).Round(2)
	if fee.IsNegative() {
		fee = decimal.Zero
	}
	if fee.GreaterThan(amount) {
		fee = amount
	}
	return fee, amount.Sub(fee)
}
