package repositories

import (
	"context"

	"credit-ledger.backend/internal/domain/entities"
)

// ProductRepository defines product and card-key inventory operations
type ProductRepository interface {
	Create(ctx context.Context, product *entities.Product) error
	GetByID(ctx context.Context, id int64) (*entities.Product, error)
	ListByMerchantApp(ctx context.Context, merchantAppID int64) ([]*entities.Product, error)
	Update(ctx context.Context, product *entities.Product) error
	Delete(ctx context.Context, id int64) error

	CreateCardKeys(ctx context.Context, keys []*entities.CardKey) error
	// TakeAvailableCardKey returns one available key for the product, read
	// under the surrounding row lock. ErrNotFound when the pool is empty.
	TakeAvailableCardKey(ctx context.Context, productID int64) (*entities.CardKey, error)
	UpdateCardKey(ctx context.Context, key *entities.CardKey) error
	CountAvailableCardKeys(ctx context.Context, productID int64) (int64, error)
}
