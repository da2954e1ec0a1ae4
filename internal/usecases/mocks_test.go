package usecases_test

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"credit-ledger.backend/internal/domain/entities"
	"credit-ledger.backend/internal/domain/gateways"
	"credit-ledger.backend/internal/domain/repositories"
)

// Mock UnitOfWork. Do runs the function directly so mutations on mocked
// repositories happen in-process; WithLock passes the context through.
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Called(ctx, fn)
	return fn(ctx)
}

func (m *MockUnitOfWork) WithLock(ctx context.Context) context.Context {
	m.Called(ctx)
	return ctx
}

// newUOW returns a unit of work that accepts any Do/WithLock call.
func newUOW() *MockUnitOfWork {
	uow := new(MockUnitOfWork)
	uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	uow.On("WithLock", mock.Anything).Return()
	return uow
}

// Mock WalletRepository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) Create(ctx context.Context, wallet *entities.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

func (m *MockWalletRepository) GetByUserID(ctx context.Context, userID int64) (*entities.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetByID(ctx context.Context, id int64) (*entities.Wallet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wallet), args.Error(1)
}

func (m *MockWalletRepository) ConditionalAdjust(ctx context.Context, walletID int64, delta decimal.Decimal, counters ...repositories.CounterDelta) (int64, error) {
	args := m.Called(ctx, walletID, delta, counters)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWalletRepository) ClampedAdjust(ctx context.Context, walletID int64, delta decimal.Decimal, counters ...repositories.CounterDelta) error {
	args := m.Called(ctx, walletID, delta, counters)
	return args.Error(0)
}

func (m *MockWalletRepository) AddPayScore(ctx context.Context, walletID int64, delta int) error {
	args := m.Called(ctx, walletID, delta)
	return args.Error(0)
}

func (m *MockWalletRepository) SetPayKey(ctx context.Context, walletID int64, encryptedPayKey string) error {
	args := m.Called(ctx, walletID, encryptedPayKey)
	return args.Error(0)
}

func (m *MockWalletRepository) SetBaselineScore(ctx context.Context, walletID int64, score int) error {
	args := m.Called(ctx, walletID, score)
	return args.Error(0)
}

func (m *MockWalletRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// Mock OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *entities.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64) (*entities.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*entities.Order, error) {
	args := m.Called(ctx, orderNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByMerchantRef(ctx context.Context, clientID, merchantOrderNo string) (*entities.Order, error) {
	args := m.Called(ctx, clientID, merchantOrderNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Order), args.Error(1)
}

func (m *MockOrderRepository) Update(ctx context.Context, order *entities.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id int64, status entities.OrderStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOrderRepository) ListForUser(ctx context.Context, userID int64, filter repositories.OrderListFilter, limit, offset int) ([]*entities.Order, int64, error) {
	args := m.Called(ctx, userID, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) ListDisputable(ctx context.Context, payerUserID int64, cutoff time.Time, limit int) ([]*entities.Order, error) {
	args := m.Called(ctx, payerUserID, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Order), args.Error(1)
}

func (m *MockOrderRepository) ListTipsForPost(ctx context.Context, postID int64) ([]*entities.Order, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Order), args.Error(1)
}

func (m *MockOrderRepository) CountProductPurchases(ctx context.Context, userID, productID int64) (int64, error) {
	args := m.Called(ctx, userID, productID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) SumTransfersSince(ctx context.Context, payerUserID int64, since time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, payerUserID, since)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockOrderRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// Mock RedEnvelopeRepository
type MockRedEnvelopeRepository struct {
	mock.Mock
}

func (m *MockRedEnvelopeRepository) Create(ctx context.Context, envelope *entities.RedEnvelope) error {
	args := m.Called(ctx, envelope)
	return args.Error(0)
}

func (m *MockRedEnvelopeRepository) GetByID(ctx context.Context, id int64) (*entities.RedEnvelope, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RedEnvelope), args.Error(1)
}

func (m *MockRedEnvelopeRepository) Update(ctx context.Context, envelope *entities.RedEnvelope) error {
	args := m.Called(ctx, envelope)
	return args.Error(0)
}

func (m *MockRedEnvelopeRepository) CreateClaim(ctx context.Context, claim *entities.RedEnvelopeClaim) error {
	args := m.Called(ctx, claim)
	return args.Error(0)
}

func (m *MockRedEnvelopeRepository) GetClaim(ctx context.Context, envelopeID, userID int64) (*entities.RedEnvelopeClaim, error) {
	args := m.Called(ctx, envelopeID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RedEnvelopeClaim), args.Error(1)
}

func (m *MockRedEnvelopeRepository) HasClaim(ctx context.Context, envelopeID, userID int64) (bool, error) {
	args := m.Called(ctx, envelopeID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRedEnvelopeRepository) ListClaims(ctx context.Context, envelopeID int64) ([]*entities.RedEnvelopeClaim, error) {
	args := m.Called(ctx, envelopeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.RedEnvelopeClaim), args.Error(1)
}

func (m *MockRedEnvelopeRepository) ListBySender(ctx context.Context, senderID int64, limit, offset int) ([]*entities.RedEnvelope, int64, error) {
	args := m.Called(ctx, senderID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.RedEnvelope), args.Get(1).(int64), args.Error(2)
}

func (m *MockRedEnvelopeRepository) ListClaimedBy(ctx context.Context, userID int64, limit, offset int) ([]*entities.RedEnvelopeClaim, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.RedEnvelopeClaim), args.Get(1).(int64), args.Error(2)
}

func (m *MockRedEnvelopeRepository) CountCreatedSince(ctx context.Context, senderID int64, since time.Time) (int64, error) {
	args := m.Called(ctx, senderID, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRedEnvelopeRepository) ListExpiredRefundable(ctx context.Context, now time.Time, limit int) ([]*entities.RedEnvelope, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.RedEnvelope), args.Error(1)
}

// Mock DisputeRepository
type MockDisputeRepository struct {
	mock.Mock
}

func (m *MockDisputeRepository) Create(ctx context.Context, dispute *entities.Dispute) error {
	args := m.Called(ctx, dispute)
	return args.Error(0)
}

func (m *MockDisputeRepository) GetByID(ctx context.Context, id int64) (*entities.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Dispute), args.Error(1)
}

func (m *MockDisputeRepository) GetByOrderID(ctx context.Context, orderID int64) (*entities.Dispute, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Dispute), args.Error(1)
}

func (m *MockDisputeRepository) ExistsForOrder(ctx context.Context, orderID int64) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDisputeRepository) Update(ctx context.Context, dispute *entities.Dispute) error {
	args := m.Called(ctx, dispute)
	return args.Error(0)
}

func (m *MockDisputeRepository) ListByInitiator(ctx context.Context, userID int64, status entities.DisputeStatus, limit, offset int) ([]*entities.Dispute, int64, error) {
	args := m.Called(ctx, userID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.Dispute), args.Get(1).(int64), args.Error(2)
}

func (m *MockDisputeRepository) ListForPayee(ctx context.Context, payeeUserID int64, status entities.DisputeStatus, limit, offset int) ([]*entities.Dispute, int64, error) {
	args := m.Called(ctx, payeeUserID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.Dispute), args.Get(1).(int64), args.Error(2)
}

func (m *MockDisputeRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*entities.Dispute, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Dispute), args.Error(1)
}

// Mock MerchantAppRepository
type MockMerchantAppRepository struct {
	mock.Mock
}

func (m *MockMerchantAppRepository) Create(ctx context.Context, app *entities.MerchantApp) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockMerchantAppRepository) GetByID(ctx context.Context, id int64) (*entities.MerchantApp, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MerchantApp), args.Error(1)
}

func (m *MockMerchantAppRepository) GetByClientID(ctx context.Context, clientID string) (*entities.MerchantApp, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MerchantApp), args.Error(1)
}

func (m *MockMerchantAppRepository) GetActiveByClientID(ctx context.Context, clientID string) (*entities.MerchantApp, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MerchantApp), args.Error(1)
}

func (m *MockMerchantAppRepository) GetByClientCredentials(ctx context.Context, clientID, clientSecret string) (*entities.MerchantApp, error) {
	args := m.Called(ctx, clientID, clientSecret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MerchantApp), args.Error(1)
}

func (m *MockMerchantAppRepository) ListByUser(ctx context.Context, userID int64) ([]*entities.MerchantApp, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.MerchantApp), args.Error(1)
}

func (m *MockMerchantAppRepository) Update(ctx context.Context, app *entities.MerchantApp) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

// Mock PaymentTransactionRepository
type MockPaymentTransactionRepository struct {
	mock.Mock
}

func (m *MockPaymentTransactionRepository) Create(ctx context.Context, txn *entities.PaymentTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockPaymentTransactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*entities.PaymentTransaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PaymentTransaction), args.Error(1)
}

func (m *MockPaymentTransactionRepository) GetByReference(ctx context.Context, merchantAppID int64, externalReference string) (*entities.PaymentTransaction, error) {
	args := m.Called(ctx, merchantAppID, externalReference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PaymentTransaction), args.Error(1)
}

func (m *MockPaymentTransactionRepository) Update(ctx context.Context, txn *entities.PaymentTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockPaymentTransactionRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// Mock ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *entities.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id int64) (*entities.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Product), args.Error(1)
}

func (m *MockProductRepository) ListByMerchantApp(ctx context.Context, merchantAppID int64) ([]*entities.Product, error) {
	args := m.Called(ctx, merchantAppID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, product *entities.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) CreateCardKeys(ctx context.Context, keys []*entities.CardKey) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockProductRepository) TakeAvailableCardKey(ctx context.Context, productID int64) (*entities.CardKey, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CardKey), args.Error(1)
}

func (m *MockProductRepository) UpdateCardKey(ctx context.Context, key *entities.CardKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockProductRepository) CountAvailableCardKeys(ctx context.Context, productID int64) (int64, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(int64), args.Error(1)
}

// Mock ConfigRepository. Values not stubbed explicitly fall back to the
// compiled-in defaults, like the real store.
type MockConfigRepository struct {
	mock.Mock
	overrides map[string]string
}

func newConfigRepo() *MockConfigRepository {
	return &MockConfigRepository{overrides: map[string]string{}}
}

func (m *MockConfigRepository) override(key, value string) {
	m.overrides[key] = value
}

func (m *MockConfigRepository) value(key string) string {
	if v, ok := m.overrides[key]; ok {
		return v
	}
	return entities.ConfigDefaults[key].Value
}

func (m *MockConfigRepository) Get(ctx context.Context, key string) string {
	return m.value(key)
}

func (m *MockConfigRepository) GetInt(ctx context.Context, key string) int {
	n, _ := strconv.Atoi(m.value(key))
	return n
}

func (m *MockConfigRepository) GetDecimal(ctx context.Context, key string) decimal.Decimal {
	d, _ := decimal.NewFromString(m.value(key))
	return d
}

func (m *MockConfigRepository) Set(ctx context.Context, key, value string) error {
	m.overrides[key] = value
	return nil
}

func (m *MockConfigRepository) List(ctx context.Context) ([]*entities.SystemConfig, error) {
	return nil, nil
}

func (m *MockConfigRepository) SeedDefaults(ctx context.Context) error {
	return nil
}

// Mock PayLevelRepository
type MockPayLevelRepository struct {
	mock.Mock
}

func (m *MockPayLevelRepository) ForScore(ctx context.Context, score int) (*entities.PayLevelConfig, error) {
	args := m.Called(ctx, score)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PayLevelConfig), args.Error(1)
}

func (m *MockPayLevelRepository) List(ctx context.Context) ([]*entities.PayLevelConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PayLevelConfig), args.Error(1)
}

func (m *MockPayLevelRepository) SeedDefaults(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Mock IdentityGateway
type MockIdentityGateway struct {
	mock.Mock
}

func (m *MockIdentityGateway) ResolveUser(ctx context.Context, userID int64) (*gateways.ForumUser, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateways.ForumUser), args.Error(1)
}

func (m *MockIdentityGateway) ResolveUsername(ctx context.Context, username string) (*gateways.ForumUser, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateways.ForumUser), args.Error(1)
}

func (m *MockIdentityGateway) SearchUsers(ctx context.Context, keyword string, limit int) ([]*gateways.ForumUser, error) {
	args := m.Called(ctx, keyword, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*gateways.ForumUser), args.Error(1)
}

func (m *MockIdentityGateway) HasReplied(ctx context.Context, userID, topicID int64) (bool, error) {
	args := m.Called(ctx, userID, topicID)
	return args.Bool(0), args.Error(1)
}

// Mock MessageGateway
type MockMessageGateway struct {
	mock.Mock
}

func (m *MockMessageGateway) SendPrivateMessage(ctx context.Context, userID int64, title, body string) error {
	args := m.Called(ctx, userID, title, body)
	return args.Error(0)
}

// newMessageGateway returns a gateway accepting any send.
func newMessageGateway() *MockMessageGateway {
	mg := new(MockMessageGateway)
	mg.On("SendPrivateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return mg
}

// Mock ScoreGateway
type MockScoreGateway struct {
	mock.Mock
}

func (m *MockScoreGateway) Score(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}
