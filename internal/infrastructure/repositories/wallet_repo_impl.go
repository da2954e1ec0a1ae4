package repositories

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"credit-ledger.backend/internal/domain/entities"
	domainerrors "credit-ledger.backend/internal/domain/errors"
	domainRepos "credit-ledger.backend/internal/domain/repositories"
)

// WalletRepositoryImpl implements wallet data operations
type WalletRepositoryImpl struct {
	db *gorm.DB
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *gorm.DB) *WalletRepositoryImpl {
	return &WalletRepositoryImpl{db: db}
}

// Create creates a new wallet
func (r *WalletRepositoryImpl) Create(ctx context.Context, wallet *entities.Wallet) error {
	return GetDB(ctx, r.db).WithContext(ctx).Create(wallet).Error
}

// GetByUserID gets a wallet by its owner's user id
func (r *WalletRepositoryImpl) GetByUserID(ctx context.Context, userID int64) (*entities.Wallet, error) {
	var wallet entities.Wallet
	err := scoped(ctx, r.db).WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// GetByID gets a wallet by id
func (r *WalletRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.Wallet, error) {
	var wallet entities.Wallet
	err := scoped(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// ConditionalAdjust applies delta to available_balance and the counters in
// one statement, guarded at write time by available_balance + delta >= 0.
func (r *WalletRepositoryImpl) ConditionalAdjust(ctx context.Context, walletID int64, delta decimal.Decimal, counters ...domainRepos.CounterDelta) (int64, error) {
	updates := map[string]interface{}{
		"available_balance": gorm.Expr("available_balance + ?", delta),
	}
	for _, c := range counters {
		col := string(c.Counter)
		updates[col] = gorm.Expr(col+" + ?", c.Delta)
	}

	res := GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.Wallet{}).
		Where("id = ?", walletID).
		Where("available_balance + ? >= 0", delta).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// ClampedAdjust applies delta to available_balance and the counters,
// flooring every adjusted column at zero.
func (r *WalletRepositoryImpl) ClampedAdjust(ctx context.Context, walletID int64, delta decimal.Decimal, counters ...domainRepos.CounterDelta) error {
	updates := map[string]interface{}{
		"available_balance": clampedExpr("available_balance", delta),
	}
	for _, c := range counters {
		updates[string(c.Counter)] = clampedExpr(string(c.Counter), c.Delta)
	}

	return GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.Wallet{}).
		Where("id = ?", walletID).
		Updates(updates).Error
}

// CASE expression instead of GREATEST, which SQLite lacks.
func clampedExpr(col string, delta decimal.Decimal) interface{} {
	return gorm.Expr("CASE WHEN "+col+" + ? < 0 THEN 0 ELSE "+col+" + ? END", delta, delta)
}

// AddPayScore increments the reputation counter
func (r *WalletRepositoryImpl) AddPayScore(ctx context.Context, walletID int64, delta int) error {
	return GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.Wallet{}).
		Where("id = ?", walletID).
		UpdateColumn("pay_score", gorm.Expr("pay_score + ?", delta)).Error
}

// SetPayKey stores the encrypted payment PIN blob
func (r *WalletRepositoryImpl) SetPayKey(ctx context.Context, walletID int64, encryptedPayKey string) error {
	return GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.Wallet{}).
		Where("id = ?", walletID).
		Update("pay_key", encryptedPayKey).Error
}

// SetBaselineScore advances the external-score baseline snapshot
func (r *WalletRepositoryImpl) SetBaselineScore(ctx context.Context, walletID int64, score int) error {
	return GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.Wallet{}).
		Where("id = ?", walletID).
		Update("initial_leaderboard_score", score).Error
}

// ListUserIDs returns all wallet owner ids
func (r *WalletRepositoryImpl) ListUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.Wallet{}).
		Order("id").
		Pluck("user_id", &ids).Error
	return ids, err
}
