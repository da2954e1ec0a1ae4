package usecases

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"credit-ledger.backend/internal/domain/entities"
	domainerrors "credit-ledger.backend/internal/domain/errors"
	"credit-ledger.backend/internal/domain/repositories"
	"credit-ledger.backend/pkg/crypto"
	"credit-ledger.backend/pkg/logger"
)

const maxAppsPerUser = 10

// MerchantUsecase manages merchant apps and their product inventory
type MerchantUsecase struct {
	appRepo     repositories.MerchantAppRepository
	productRepo repositories.ProductRepository
}

// NewMerchantUsecase creates a new merchant usecase
func NewMerchantUsecase(
	appRepo repositories.MerchantAppRepository,
	productRepo repositories.ProductRepository,
) *MerchantUsecase {
	return &MerchantUsecase{
		appRepo:     appRepo,
		productRepo: productRepo,
	}
}

// AppInput carries the merchant-editable app fields
type AppInput struct {
	AppName     string `json:"appName" binding:"required,max=100"`
	RedirectURI string `json:"redirectUri" binding:"max=500"`
	NotifyURL   string `json:"notifyUrl" binding:"max=500"`
	ReturnURL   string `json:"returnUrl" binding:"max=500"`
	CallbackURL string `json:"callbackUrl" binding:"max=500"`
	LogoURL     string `json:"logoUrl" binding:"max=500"`
	Description string `json:"description" binding:"max=500"`
	TestMode    bool   `json:"testMode"`
}

// CreateApp registers a merchant app with fresh credentials
func (u *MerchantUsecase) CreateApp(ctx context.Context, userID int64, input AppInput) (*entities.MerchantApp, error) {
	if strings.TrimSpace(input.AppName) == "" {
		return nil, domainerrors.Validation("app name required")
	}
	existing, err := u.appRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(existing) >= maxAppsPerUser {
		return nil, domainerrors.InvalidState("merchant app limit reached")
	}

	clientID, err := crypto.GenerateClientID()
	if err != nil {
		return nil, err
	}
	clientSecret, err := crypto.GenerateClientSecret()
	if err != nil {
		return nil, err
	}
	token, err := crypto.GenerateToken()
	if err != nil {
		return nil, err
	}

	app := &entities.MerchantApp{
		UserID:       userID,
		AppName:      strings.TrimSpace(input.AppName),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Token:        token,
		RedirectURI:  input.RedirectURI,
		NotifyURL:    input.NotifyURL,
		ReturnURL:    input.ReturnURL,
		CallbackURL:  input.CallbackURL,
		LogoURL:      input.LogoURL,
		Description:  input.Description,
		IsActive:     true,
		TestMode:     input.TestMode,
	}
	if err := u.appRepo.Create(ctx, app); err != nil {
		return nil, err
	}
	logger.Info(ctx, "merchant app created", zap.Int64("user_id", userID), zap.String("client_id", clientID))
	return app, nil
}

// ListApps lists the user's merchant apps
func (u *MerchantUsecase) ListApps(ctx context.Context, userID int64) ([]*entities.MerchantApp, error) {
	return u.appRepo.ListByUser(ctx, userID)
}

// GetApp returns one of the user's apps, enforcing ownership
func (u *MerchantUsecase) GetApp(ctx context.Context, userID, appID int64) (*entities.MerchantApp, error) {
	app, err := u.appRepo.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app.UserID != userID {
		return nil, domainerrors.Forbidden("not your merchant app")
	}
	return app, nil
}

// UpdateApp overwrites the editable fields of an owned app
func (u *MerchantUsecase) UpdateApp(ctx context.Context, userID, appID int64, input AppInput) (*entities.MerchantApp, error) {
	app, err := u.GetApp(ctx, userID, appID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.AppName) == "" {
		return nil, domainerrors.Validation("app name required")
	}
	app.AppName = strings.TrimSpace(input.AppName)
	app.RedirectURI = input.RedirectURI
	app.NotifyURL = input.NotifyURL
	app.ReturnURL = input.ReturnURL
	app.CallbackURL = input.CallbackURL
	app.LogoURL = input.LogoURL
	app.Description = input.Description
	app.TestMode = input.TestMode
	if err := u.appRepo.Update(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// SetAppActive toggles whether the app may accept new payments
func (u *MerchantUsecase) SetAppActive(ctx context.Context, userID, appID int64, active bool) error {
	app, err := u.GetApp(ctx, userID, appID)
	if err != nil {
		return err
	}
	app.IsActive = active
	return u.appRepo.Update(ctx, app)
}

// ResetCredentials rotates the app secret and token. Existing integrations
// break immediately; the caller must redeploy with the new values.
func (u *MerchantUsecase) ResetCredentials(ctx context.Context, userID, appID int64) (*entities.MerchantApp, error) {
	app, err := u.GetApp(ctx, userID, appID)
	if err != nil {
		return nil, err
	}
	secret, err := crypto.GenerateClientSecret()
	if err != nil {
		return nil, err
	}
	token, err := crypto.GenerateToken()
	if err != nil {
		return nil, err
	}
	app.ClientSecret = secret
	app.Token = token
	if err := u.appRepo.Update(ctx, app); err != nil {
		return nil, err
	}
	logger.Info(ctx, "merchant credentials rotated", zap.Int64("app_id", appID))
	return app, nil
}

// ProductInput carries the merchant-editable product fields
type ProductInput struct {
	Name            string          `json:"name" binding:"required,max=100"`
	Description     string          `json:"description" binding:"max=500"`
	LogoURL         string          `json:"logoUrl" binding:"max=500"`
	Price           decimal.Decimal `json:"price" binding:"required"`
	Stock           int             `json:"stock"`
	LimitPerUser    int             `json:"limitPerUser"`
	AutoDelivery    bool            `json:"autoDelivery"`
	DeliveryMessage string          `json:"deliveryMessage" binding:"max=1000"`
}

func (in *ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return domainerrors.Validation("product name required")
	}
	if err := validateAmount(in.Price); err != nil {
		return domainerrors.Validation("invalid product price")
	}
	if in.Stock < entities.UnlimitedStock {
		return domainerrors.Validation("invalid stock")
	}
	if in.LimitPerUser < 0 {
		return domainerrors.Validation("invalid per-user limit")
	}
	return nil
}

// CreateProduct adds a product to an owned app
func (u *MerchantUsecase) CreateProduct(ctx context.Context, userID, appID int64, input ProductInput) (*entities.Product, error) {
	if _, err := u.GetApp(ctx, userID, appID); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	product := &entities.Product{
		MerchantAppID:   appID,
		Name:            strings.TrimSpace(input.Name),
		Description:     input.Description,
		LogoURL:         input.LogoURL,
		Price:           input.Price,
		Stock:           input.Stock,
		LimitPerUser:    input.LimitPerUser,
		AutoDelivery:    input.AutoDelivery,
		DeliveryMessage: input.DeliveryMessage,
		Status:          entities.ProductStatusActive,
	}
	if err := u.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// ListProducts lists the products of an owned app
func (u *MerchantUsecase) ListProducts(ctx context.Context, userID, appID int64) ([]*entities.Product, error) {
	if _, err := u.GetApp(ctx, userID, appID); err != nil {
		return nil, err
	}
	return u.productRepo.ListByMerchantApp(ctx, appID)
}

// getOwnedProduct loads a product and checks it belongs to one of the
// caller's apps
func (u *MerchantUsecase) getOwnedProduct(ctx context.Context, userID, productID int64) (*entities.Product, error) {
	product, err := u.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if _, err := u.GetApp(ctx, userID, product.MerchantAppID); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct overwrites the editable fields of an owned product
func (u *MerchantUsecase) UpdateProduct(ctx context.Context, userID, productID int64, input ProductInput) (*entities.Product, error) {
	product, err := u.getOwnedProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.LogoURL = input.LogoURL
	product.Price = input.Price
	product.Stock = input.Stock
	product.LimitPerUser = input.LimitPerUser
	product.AutoDelivery = input.AutoDelivery
	product.DeliveryMessage = input.DeliveryMessage
	if err := u.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// SetProductStatus flips a product between active and inactive
func (u *MerchantUsecase) SetProductStatus(ctx context.Context, userID, productID int64, status entities.ProductStatus) error {
	if status != entities.ProductStatusActive && status != entities.ProductStatusInactive {
		return domainerrors.Validation("invalid product status")
	}
	product, err := u.getOwnedProduct(ctx, userID, productID)
	if err != nil {
		return err
	}
	product.Status = status
	return u.productRepo.Update(ctx, product)
}

// DeleteProduct removes an owned product. Past orders keep their remark
// reference; only the listing goes away.
func (u *MerchantUsecase) DeleteProduct(ctx context.Context, userID, productID int64) error {
	if _, err := u.getOwnedProduct(ctx, userID, productID); err != nil {
		return err
	}
	return u.productRepo.Delete(ctx, productID)
}

// AddCardKeys loads delivery keys into an auto-delivery product's pool and
// returns the new available count
func (u *MerchantUsecase) AddCardKeys(ctx context.Context, userID, productID int64, rawKeys []string) (int64, error) {
	product, err := u.getOwnedProduct(ctx, userID, productID)
	if err != nil {
		return 0, err
	}
	if !product.AutoDelivery {
		return 0, domainerrors.InvalidState("product is not auto-delivery")
	}

	keys := make([]*entities.CardKey, 0, len(rawKeys))
	for _, raw := range rawKeys {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		keys = append(keys, &entities.CardKey{
			ProductID: productID,
			CardKey:   raw,
			Status:    entities.CardKeyStatusAvailable,
		})
	}
	if len(keys) == 0 {
		return 0, domainerrors.Validation("no card keys provided")
	}
	if err := u.productRepo.CreateCardKeys(ctx, keys); err != nil {
		return 0, err
	}
	return u.productRepo.CountAvailableCardKeys(ctx, productID)
}

// ProductStats summarizes inventory and sales for a merchant's product
type ProductStats struct {
	Product       *entities.Product `json:"product"`
	AvailableKeys int64             `json:"availableKeys"`
	TotalSold     int64             `json:"totalSold"`
}

// GetProductStats returns inventory counts for an owned product
func (u *MerchantUsecase) GetProductStats(ctx context.Context, userID, productID int64) (*ProductStats, error) {
	product, err := u.getOwnedProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	stats := &ProductStats{Product: product, TotalSold: int64(product.SoldCount)}
	if product.AutoDelivery {
		available, err := u.productRepo.CountAvailableCardKeys(ctx, productID)
		if err != nil {
			return nil, err
		}
		stats.AvailableKeys = available
	}
	return stats, nil
}
