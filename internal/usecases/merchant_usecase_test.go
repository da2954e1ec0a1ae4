package usecases_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"credit-ledger.backend/internal/domain/entities"
	"credit-ledger.backend/internal/usecases"
)

func newMerchantFixture() (*MockMerchantAppRepository, *MockProductRepository, *usecases.MerchantUsecase) {
	appRepo := new(MockMerchantAppRepository)
	productRepo := new(MockProductRepository)
	return appRepo, productRepo, usecases.NewMerchantUsecase(appRepo, productRepo)
}

func TestCreateApp_GeneratesCredentials(t *testing.T) {
	appRepo, _, uc := newMerchantFixture()
	appRepo.On("ListByUser", mock.Anything, int64(10)).Return([]*entities.MerchantApp{}, nil)
	appRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.MerchantApp")).Return(nil)

	app, err := uc.CreateApp(context.Background(), 10, usecases.AppInput{AppName: "My Shop"})

	require.NoError(t, err)
	require.Equal(t, "My Shop", app.AppName)
	require.True(t, app.IsActive)
	require.Regexp(t, `^pay_[0-9a-f]+$`, app.ClientID)
	require.Regexp(t, `^tk_[0-9a-f]+$`, app.Token)
	require.NotEmpty(t, app.ClientSecret)
	require.Len(t, app.SecretKey(), 64)
}

func TestCreateApp_LimitReached(t *testing.T) {
	appRepo, _, uc := newMerchantFixture()
	existing := make([]*entities.MerchantApp, 10)
	for i := range existing {
		existing[i] = &entities.MerchantApp{UserID: 10}
	}
	appRepo.On("ListByUser", mock.Anything, int64(10)).Return(existing, nil)

	_, err := uc.CreateApp(context.Background(), 10, usecases.AppInput{AppName: "One Too Many"})
	require.Error(t, err)
}

func TestGetApp_EnforcesOwnership(t *testing.T) {
	appRepo, _, uc := newMerchantFixture()
	appRepo.On("GetByID", mock.Anything, int64(1)).Return(&entities.MerchantApp{ID: 1, UserID: 10}, nil)

	_, err := uc.GetApp(context.Background(), 10, 1)
	require.NoError(t, err)

	_, err = uc.GetApp(context.Background(), 99, 1)
	require.Error(t, err)
}

func TestResetCredentials_RotatesSecretAndToken(t *testing.T) {
	appRepo, _, uc := newMerchantFixture()
	app := &entities.MerchantApp{ID: 1, UserID: 10, ClientSecret: "old-secret", Token: "tk_old"}
	appRepo.On("GetByID", mock.Anything, int64(1)).Return(app, nil)
	appRepo.On("Update", mock.Anything, app).Return(nil)

	updated, err := uc.ResetCredentials(context.Background(), 10, 1)

	require.NoError(t, err)
	require.NotEqual(t, "old-secret", updated.ClientSecret)
	require.NotEqual(t, "tk_old", updated.Token)
}

func TestCreateProduct_Validation(t *testing.T) {
	appRepo, _, uc := newMerchantFixture()
	appRepo.On("GetByID", mock.Anything, int64(1)).Return(&entities.MerchantApp{ID: 1, UserID: 10}, nil)

	cases := []usecases.ProductInput{
		{Name: "", Price: decimal.NewFromInt(5)},
		{Name: "thing", Price: decimal.Zero},
		{Name: "thing", Price: decimal.NewFromInt(5), Stock: -2},
		{Name: "thing", Price: decimal.NewFromInt(5), LimitPerUser: -1},
	}
	for _, input := range cases {
		_, err := uc.CreateProduct(context.Background(), 10, 1, input)
		require.Error(t, err)
	}
}

func TestCreateProduct_Success(t *testing.T) {
	appRepo, productRepo, uc := newMerchantFixture()
	appRepo.On("GetByID", mock.Anything, int64(1)).Return(&entities.MerchantApp{ID: 1, UserID: 10}, nil)
	productRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.Product")).Return(nil)

	product, err := uc.CreateProduct(context.Background(), 10, 1, usecases.ProductInput{
		Name:  "Monthly Pass",
		Price: decimal.RequireFromString("9.90"),
		Stock: entities.UnlimitedStock,
	})

	require.NoError(t, err)
	require.Equal(t, entities.ProductStatusActive, product.Status)
	require.Equal(t, entities.UnlimitedStock, product.Stock)
}

func TestAddCardKeys(t *testing.T) {
	appRepo, productRepo, uc := newMerchantFixture()
	appRepo.On("GetByID", mock.Anything, int64(1)).Return(&entities.MerchantApp{ID: 1, UserID: 10}, nil)
	product := &entities.Product{ID: 4, MerchantAppID: 1, AutoDelivery: true}
	productRepo.On("GetByID", mock.Anything, int64(4)).Return(product, nil)
	productRepo.On("CreateCardKeys", mock.Anything, mock.MatchedBy(func(keys []*entities.CardKey) bool {
		return len(keys) == 2
	})).Return(nil)
	productRepo.On("CountAvailableCardKeys", mock.Anything, int64(4)).Return(int64(2), nil)

	// blank lines in the paste are dropped
	count, err := uc.AddCardKeys(context.Background(), 10, 4, []string{"KEY-1", "", "  ", "KEY-2"})

	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestAddCardKeys_RequiresAutoDelivery(t *testing.T) {
	appRepo, productRepo, uc := newMerchantFixture()
	appRepo.On("GetByID", mock.Anything, int64(1)).Return(&entities.MerchantApp{ID: 1, UserID: 10}, nil)
	productRepo.On("GetByID", mock.Anything, int64(4)).Return(&entities.Product{ID: 4, MerchantAppID: 1}, nil)

	_, err := uc.AddCardKeys(context.Background(), 10, 4, []string{"KEY-1"})
	require.Error(t, err)
}
