package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"credit-ledger.backend/internal/domain/entities"
	domainerrors "credit-ledger.backend/internal/domain/errors"
)

// MerchantAppRepositoryImpl implements merchant app data operations
type MerchantAppRepositoryImpl struct {
	db *gorm.DB
}

// NewMerchantAppRepository creates a new merchant app repository
func NewMerchantAppRepository(db *gorm.DB) *MerchantAppRepositoryImpl {
	return &MerchantAppRepositoryImpl{db: db}
}

// Create creates a new merchant app
func (r *MerchantAppRepositoryImpl) Create(ctx context.Context, app *entities.MerchantApp) error {
	return GetDB(ctx, r.db).WithContext(ctx).Create(app).Error
}

// GetByID gets a merchant app by id
func (r *MerchantAppRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.MerchantApp, error) {
	var app entities.MerchantApp
	err := GetDB(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// GetByClientID gets a merchant app by client id regardless of status
func (r *MerchantAppRepositoryImpl) GetByClientID(ctx context.Context, clientID string) (*entities.MerchantApp, error) {
	var app entities.MerchantApp
	err := GetDB(ctx, r.db).WithContext(ctx).Where("client_id = ?", clientID).First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// GetActiveByClientID gets an active merchant app by client id
func (r *MerchantAppRepositoryImpl) GetActiveByClientID(ctx context.Context, clientID string) (*entities.MerchantApp, error) {
	var app entities.MerchantApp
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("client_id = ? AND is_active = ?", clientID, true).
		First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// GetByClientCredentials gets an active merchant app by client id and secret
func (r *MerchantAppRepositoryImpl) GetByClientCredentials(ctx context.Context, clientID, clientSecret string) (*entities.MerchantApp, error) {
	var app entities.MerchantApp
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("client_id = ? AND client_secret = ? AND is_active = ?", clientID, clientSecret, true).
		First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// ListByUser lists a user's merchant apps
func (r *MerchantAppRepositoryImpl) ListByUser(ctx context.Context, userID int64) ([]*entities.MerchantApp, error) {
	var apps []*entities.MerchantApp
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&apps).Error
	return apps, err
}

// Update persists all fields of the merchant app
func (r *MerchantAppRepositoryImpl) Update(ctx context.Context, app *entities.MerchantApp) error {
	return GetDB(ctx, r.db).WithContext(ctx).Save(app).Error
}
