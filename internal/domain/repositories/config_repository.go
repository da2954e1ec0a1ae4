package repositories

import (
	"context"

	"github.com/shopspring/decimal"
	"credit-ledger.backend/internal/domain/entities"
)

// ConfigRepository is the read-mostly key/value config store with typed
// accessors. Missing rows fall back to entities.ConfigDefaults.
type ConfigRepository interface {
	Get(ctx context.Context, key string) string
	GetInt(ctx context.Context, key string) int
	GetDecimal(ctx context.Context, key string) decimal.Decimal
	Set(ctx context.Context, key, value string) error
	List(ctx context.Context) ([]*entities.SystemConfig, error)

	// SeedDefaults inserts any missing default rows; existing rows are left
	// untouched so deployments keep their overrides.
	SeedDefaults(ctx context.Context) error
}

// PayLevelRepository resolves fee tiers from pay scores.
type PayLevelRepository interface {
	// ForScore returns the tier with the greatest min_score <= score whose
	// max_score is null or > score, or nil when no tier matches.
	ForScore(ctx context.Context, score int) (*entities.PayLevelConfig, error)
	List(ctx context.Context) ([]*entities.PayLevelConfig, error)
	SeedDefaults(ctx context.Context) error
}
