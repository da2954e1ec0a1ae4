package usecases_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"credit-ledger.backend/internal/domain/entities"
	domainerrors "credit-ledger.backend/internal/domain/errors"
	"credit-ledger.backend/internal/domain/gateways"
	"credit-ledger.backend/internal/usecases"
)

type tipFixture struct {
	walletRepo *MockWalletRepository
	orderRepo  *MockOrderRepository
	configRepo *MockConfigRepository
	identity   *MockIdentityGateway
	messages   *MockMessageGateway
	uc         *usecases.TipUsecase
}

func newTipFixture(t *testing.T) *tipFixture {
	t.Helper()
	walletRepo := new(MockWalletRepository)
	orderRepo := new(MockOrderRepository)
	configRepo := newConfigRepo()
	payLevels := new(MockPayLevelRepository)
	payLevels.On("ForScore", mock.Anything, mock.Anything).Return(nil, nil)
	identity := new(MockIdentityGateway)
	messages := newMessageGateway()
	uow := newUOW()

	walletUC := usecases.NewWalletUsecase(walletRepo, orderRepo, configRepo, uow, nil)
	fees := usecases.NewFeeResolver(payLevels, configRepo)
	uc := usecases.NewTipUsecase(walletUC, walletRepo, orderRepo, configRepo, fees, uow, identity, messages)
	return &tipFixture{
		walletRepo: walletRepo,
		orderRepo:  orderRepo,
		configRepo: configRepo,
		identity:   identity,
		messages:   messages,
		uc:         uc,
	}
}

func TestTip_Success(t *testing.T) {
	f := newTipFixture(t)
	payer := testWallet(t, 1, 10, "100", "123456")
	author := testWallet(t, 2, 20, "0", "")

	f.identity.On("ResolveUser", mock.Anything, int64(20)).Return(&gateways.ForumUser{ID: 20, Username: "bob", Active: true}, nil)
	f.walletRepo.On("GetByUserID", mock.Anything, int64(10)).Return(payer, nil)
	f.walletRepo.On("GetByUserID", mock.Anything, int64(20)).Return(author, nil)
	f.walletRepo.On("ConditionalAdjust", mock.Anything, int64(1), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.RequireFromString("-10.00"))
	}), mock.Anything).Return(int64(1), nil)
	// default tip fee rate is 1%, so the author is credited 9.90
	f.walletRepo.On("ConditionalAdjust", mock.Anything, int64(2), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.RequireFromString("9.90"))
	}), mock.Anything).Return(int64(1), nil)
	f.orderRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.Order")).Return(nil)
	f.walletRepo.On("AddPayScore", mock.Anything, int64(1), mock.Anything).Return(nil)

	order, err := f.uc.Tip(context.Background(), 10, &usecases.TipInput{
		PostID:       77,
		AuthorUserID: 20,
		Amount:       decimal.RequireFromString("10.00"),
		PIN:          "123456",
		Message:      "great post",
	})

	require.NoError(t, err)
	require.Equal(t, entities.OrderTypeTip, order.OrderType)
	require.Equal(t, entities.OrderStatusSuccess, order.Status)
	require.Equal(t, int64(10), order.PayerUserID)
	require.Equal(t, int64(20), order.PayeeUserID)
	require.NotNil(t, order.PostID)
	require.Equal(t, int64(77), *order.PostID)
	require.True(t, order.FeeAmount.Equal(decimal.RequireFromString("0.10")))
	require.True(t, order.ActualAmount.Equal(decimal.RequireFromString("9.90")))
	require.True(t, order.TradeTime.Valid)
	f.messages.AssertCalled(t, "SendPrivateMessage", mock.Anything, int64(20), "Tip received", mock.Anything)
}

func TestTip_OwnPostRejected(t *testing.T) {
	f := newTipFixture(t)

	_, err := f.uc.Tip(context.Background(), 10, &usecases.TipInput{
		PostID:       77,
		AuthorUserID: 10,
		Amount:       decimal.NewFromInt(1),
		PIN:          "123456",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "own post")
}

func TestTip_AmountBounds(t *testing.T) {
	f := newTipFixture(t)
	// default bounds are 0.01 to 1000
	f.configRepo.override(entities.ConfigTipMinAmount, "1")

	_, err := f.uc.Tip(context.Background(), 10, &usecases.TipInput{
		PostID:       77,
		AuthorUserID: 20,
		Amount:       decimal.RequireFromString("0.50"),
		PIN:          "123456",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "at least")

	_, err = f.uc.Tip(context.Background(), 10, &usecases.TipInput{
		PostID:       77,
		AuthorUserID: 20,
		Amount:       decimal.NewFromInt(2000),
		PIN:          "123456",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not exceed")
}

func TestTip_UnknownAuthor(t *testing.T) {
	f := newTipFixture(t)
	f.identity.On("ResolveUser", mock.Anything, int64(99)).Return(nil, domainerrors.ErrNotFound)

	_, err := f.uc.Tip(context.Background(), 10, &usecases.TipInput{
		PostID:       77,
		AuthorUserID: 99,
		Amount:       decimal.NewFromInt(1),
		PIN:          "123456",
	})

	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestTip_InactiveAuthorRejected(t *testing.T) {
	f := newTipFixture(t)
	f.identity.On("ResolveUser", mock.Anything, int64(20)).Return(&gateways.ForumUser{ID: 20, Username: "bob", Active: false}, nil)

	_, err := f.uc.Tip(context.Background(), 10, &usecases.TipInput{
		PostID:       77,
		AuthorUserID: 20,
		Amount:       decimal.NewFromInt(1),
		PIN:          "123456",
	})
	require.Error(t, err)
}

func TestPostTips(t *testing.T) {
	f := newTipFixture(t)
	f.orderRepo.On("ListTipsForPost", mock.Anything, int64(77)).Return([]*entities.Order{
		{ID: 1, OrderType: entities.OrderTypeTip},
	}, nil)

	tips, err := f.uc.PostTips(context.Background(), 77)
	require.NoError(t, err)
	require.Len(t, tips, 1)
}
