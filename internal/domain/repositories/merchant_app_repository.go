package repositories

import (
	"context"

	"credit-ledger.backend/internal/domain/entities"
)

// MerchantAppRepository defines merchant app data operations
type MerchantAppRepository interface {
	Create(ctx context.Context, app *entities.MerchantApp) error
	GetByID(ctx context.Context, id int64) (*entities.MerchantApp, error)
	GetByClientID(ctx context.Context, clientID string) (*entities.MerchantApp, error)
	// GetActiveByClientID returns only active apps; inactive merchants must
	// not create new payment intents.
	GetActiveByClientID(ctx context.Context, clientID string) (*entities.MerchantApp, error)
	GetByClientCredentials(ctx context.Context, clientID, clientSecret string) (*entities.MerchantApp, error)
	ListByUser(ctx context.Context, userID int64) ([]*entities.MerchantApp, error)
	Update(ctx context.Context, app *entities.MerchantApp) error
}
