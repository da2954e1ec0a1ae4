package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"credit-ledger.backend/internal/domain/entities"
	domainerrors "credit-ledger.backend/internal/domain/errors"
)

// ProductRepositoryImpl implements product and card-key inventory operations
type ProductRepositoryImpl struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) *ProductRepositoryImpl {
	return &ProductRepositoryImpl{db: db}
}

// Create creates a new product
func (r *ProductRepositoryImpl) Create(ctx context.Context, product *entities.Product) error {
	return GetDB(ctx, r.db).WithContext(ctx).Create(product).Error
}

// GetByID gets a product by id, honoring any pending row lock
func (r *ProductRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.Product, error) {
	var product entities.Product
	err := scoped(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListByMerchantApp lists a merchant app's products
func (r *ProductRepositoryImpl) ListByMerchantApp(ctx context.Context, merchantAppID int64) ([]*entities.Product, error) {
	var products []*entities.Product
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("merchant_app_id = ?", merchantAppID).
		Order("created_at DESC").
		Find(&products).Error
	return products, err
}

// Update persists all fields of the product
func (r *ProductRepositoryImpl) Update(ctx context.Context, product *entities.Product) error {
	return GetDB(ctx, r.db).WithContext(ctx).Save(product).Error
}

// Delete removes a product
func (r *ProductRepositoryImpl) Delete(ctx context.Context, id int64) error {
	return GetDB(ctx, r.db).WithContext(ctx).Delete(&entities.Product{}, id).Error
}

// CreateCardKeys bulk-inserts card keys for a product
func (r *ProductRepositoryImpl) CreateCardKeys(ctx context.Context, keys []*entities.CardKey) error {
	if len(keys) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).WithContext(ctx).Create(&keys).Error
}

// TakeAvailableCardKey returns the oldest available key for the product
func (r *ProductRepositoryImpl) TakeAvailableCardKey(ctx context.Context, productID int64) (*entities.CardKey, error) {
	var key entities.CardKey
	err := scoped(ctx, r.db).WithContext(ctx).
		Where("product_id = ? AND status = ?", productID, entities.CardKeyStatusAvailable).
		Order("id ASC").
		First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// UpdateCardKey persists all fields of the card key
func (r *ProductRepositoryImpl) UpdateCardKey(ctx context.Context, key *entities.CardKey) error {
	return GetDB(ctx, r.db).WithContext(ctx).Save(key).Error
}

// CountAvailableCardKeys counts unsold keys in a product's pool
func (r *ProductRepositoryImpl) CountAvailableCardKeys(ctx context.Context, productID int64) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.CardKey{}).
		Where("product_id = ? AND status = ?", productID, entities.CardKeyStatusAvailable).
		Count(&count).Error
	return count, err
}
