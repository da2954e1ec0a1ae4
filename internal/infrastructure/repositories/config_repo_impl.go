package repositories

import (
	"context"
	"errors"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"credit-ledger.backend/internal/domain/entities"
	"credit-ledger.backend/pkg/logger"
)

// ConfigRepositoryImpl implements the key/value config store. Reads fall
// back to entities.ConfigDefaults so a missing or unreadable row never
// blocks a settlement path.
type ConfigRepositoryImpl struct {
	db *gorm.DB
}

// NewConfigRepository creates a new config repository
func NewConfigRepository(db *gorm.DB) *ConfigRepositoryImpl {
	return &ConfigRepositoryImpl{db: db}
}

// Get returns the stored value or the compiled-in default
func (r *ConfigRepositoryImpl) Get(ctx context.Context, key string) string {
	var cfg entities.SystemConfig
	err := GetDB(ctx, r.db).WithContext(ctx).Where("key = ?", key).First(&cfg).Error
	if err == nil {
		return cfg.Value
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Warn(ctx, "config read failed, using default", zap.String("key", key), zap.Error(err))
	}
	return ConfigDefault(key)
}

// GetInt returns the value parsed as int, falling back to the default on
// parse failure.
func (r *ConfigRepositoryImpl) GetInt(ctx context.Context, key string) int {
	if n, err := strconv.Atoi(r.Get(ctx, key)); err == nil {
		return n
	}
	n, _ := strconv.Atoi(ConfigDefault(key))
	return n
}

// GetDecimal returns the value parsed as decimal, falling back to the
// default on parse failure.
func (r *ConfigRepositoryImpl) GetDecimal(ctx context.Context, key string) decimal.Decimal {
	if d, err := decimal.NewFromString(r.Get(ctx, key)); err == nil {
		return d
	}
	d, _ := decimal.NewFromString(ConfigDefault(key))
	return d
}

// Set upserts a config value
func (r *ConfigRepositoryImpl) Set(ctx context.Context, key, value string) error {
	cfg := entities.SystemConfig{Key: key, Value: value}
	if def, ok := entities.ConfigDefaults[key]; ok {
		cfg.Description = def.Description
	}
	return GetDB(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&cfg).Error
}

// List returns all stored config rows
func (r *ConfigRepositoryImpl) List(ctx context.Context) ([]*entities.SystemConfig, error) {
	var configs []*entities.SystemConfig
	err := GetDB(ctx, r.db).WithContext(ctx).Order("key ASC").Find(&configs).Error
	return configs, err
}

// SeedDefaults inserts missing default rows without touching overrides
func (r *ConfigRepositoryImpl) SeedDefaults(ctx context.Context) error {
	db := GetDB(ctx, r.db).WithContext(ctx)
	for key, def := range entities.ConfigDefaults {
		cfg := entities.SystemConfig{Key: key, Value: def.Value, Description: def.Description}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&cfg).Error; err != nil {
			return err
		}
	}
	return nil
}

// ConfigDefault returns the compiled-in default value for a key, or ""
// for unknown keys.
func ConfigDefault(key string) string {
	if def, ok := entities.ConfigDefaults[key]; ok {
		return def.Value
	}
	return ""
}

// PayLevelRepositoryImpl resolves fee tiers from pay scores
type PayLevelRepositoryImpl struct {
	db *gorm.DB
}

// NewPayLevelRepository creates a new pay level repository
func NewPayLevelRepository(db *gorm.DB) *PayLevelRepositoryImpl {
	return &PayLevelRepositoryImpl{db: db}
}

// ForScore returns the matching tier, or nil when no tier covers the score
func (r *PayLevelRepositoryImpl) ForScore(ctx context.Context, score int) (*entities.PayLevelConfig, error) {
	var level entities.PayLevelConfig
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("min_score <= ? AND (max_score IS NULL OR max_score > ?)", score, score).
		Order("min_score DESC").
		First(&level).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &level, nil
}

// List returns all tiers ordered by level
func (r *PayLevelRepositoryImpl) List(ctx context.Context) ([]*entities.PayLevelConfig, error) {
	var levels []*entities.PayLevelConfig
	err := GetDB(ctx, r.db).WithContext(ctx).Order("level ASC").Find(&levels).Error
	return levels, err
}

// SeedDefaults inserts missing default tiers without touching overrides
func (r *PayLevelRepositoryImpl) SeedDefaults(ctx context.Context) error {
	db := GetDB(ctx, r.db).WithContext(ctx)
	for _, level := range entities.DefaultPayLevels() {
		l := level
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&l).Error; err != nil {
			return err
		}
	}
	return nil
}
