package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"credit-ledger.backend/internal/domain/entities"
	"credit-ledger.backend/internal/domain/repositories"
)

type expirerStub struct {
	count int64
	err   error
	calls int
}

func (s *expirerStub) ExpirePending(_ context.Context, _ time.Time) (int64, error) {
	s.calls++
	return s.count, s.err
}

func TestOrderExpiryRunOnce(t *testing.T) {
	stub := &expirerStub{count: 7}
	job := NewOrderExpiryJob(stub, time.Minute)

	report := job.RunOnce(context.Background())
	require.Equal(t, Report{Processed: 7}, report)
	require.Equal(t, 1, stub.calls)
}

func TestOrderExpiryRunOnce_Error(t *testing.T) {
	stub := &expirerStub{err: errors.New("db down")}
	job := NewOrderExpiryJob(stub, time.Minute)

	report := job.RunOnce(context.Background())
	require.Equal(t, Report{Failed: 1}, report)
}

func TestTransactionExpiryRunOnce(t *testing.T) {
	stub := &expirerStub{count: 2}
	job := NewTransactionExpiryJob(stub, time.Minute)

	require.Equal(t, Report{Processed: 2}, job.RunOnce(context.Background()))
}

type envelopeListerStub struct {
	envelopes []*entities.RedEnvelope
	err       error
}

func (s *envelopeListerStub) ListExpiredRefundable(_ context.Context, _ time.Time, _ int) ([]*entities.RedEnvelope, error) {
	return s.envelopes, s.err
}

type refunderStub struct {
	failFor map[int64]error
	seen    []int64
}

func (s *refunderStub) RefundExpired(_ context.Context, envelopeID int64) error {
	s.seen = append(s.seen, envelopeID)
	return s.failFor[envelopeID]
}

func TestEnvelopeRefundRunOnce(t *testing.T) {
	lister := &envelopeListerStub{envelopes: []*entities.RedEnvelope{{ID: 1}, {ID: 2}, {ID: 3}}}
	refunder := &refunderStub{failFor: map[int64]error{2: errors.New("locked")}}
	job := NewEnvelopeRefundJob(lister, refunder, time.Minute)

	report := job.RunOnce(context.Background())
	require.Equal(t, Report{Processed: 2, Failed: 1}, report)
	require.Equal(t, []int64{1, 2, 3}, refunder.seen)
}

func TestEnvelopeRefundRunOnce_ListError(t *testing.T) {
	job := NewEnvelopeRefundJob(&envelopeListerStub{err: errors.New("db down")}, &refunderStub{}, time.Minute)
	require.Equal(t, Report{Failed: 1}, job.RunOnce(context.Background()))
}

type disputeListerStub struct {
	disputes []*entities.Dispute
	err      error
}

func (s *disputeListerStub) ListExpired(_ context.Context, _ time.Time, _ int) ([]*entities.Dispute, error) {
	return s.disputes, s.err
}

type resolverStub struct {
	err  error
	seen []int64
}

func (s *resolverStub) AutoResolve(_ context.Context, disputeID int64) error {
	s.seen = append(s.seen, disputeID)
	return s.err
}

func TestDisputeResolveRunOnce(t *testing.T) {
	lister := &disputeListerStub{disputes: []*entities.Dispute{{ID: 4}, {ID: 5}}}
	resolver := &resolverStub{}
	job := NewDisputeResolveJob(lister, resolver, time.Minute)

	report := job.RunOnce(context.Background())
	require.Equal(t, Report{Processed: 2}, report)
	require.Equal(t, []int64{4, 5}, resolver.seen)
}

func TestStartStopsOnContextCancel(t *testing.T) {
	job := NewOrderExpiryJob(&expirerStub{}, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not stop after context cancel")
	}
}

// score sync stubs

type scoreWalletRepoStub struct {
	userIDs   []int64
	wallets   map[int64]*entities.Wallet
	adjusted  map[int64]decimal.Decimal
	clamped   map[int64]decimal.Decimal
	baselines map[int64]int
}

func newScoreWalletRepoStub() *scoreWalletRepoStub {
	return &scoreWalletRepoStub{
		wallets:   map[int64]*entities.Wallet{},
		adjusted:  map[int64]decimal.Decimal{},
		clamped:   map[int64]decimal.Decimal{},
		baselines: map[int64]int{},
	}
}

func (s *scoreWalletRepoStub) Create(_ context.Context, _ *entities.Wallet) error { return nil }

func (s *scoreWalletRepoStub) GetByUserID(_ context.Context, userID int64) (*entities.Wallet, error) {
	w, ok := s.wallets[userID]
	if !ok {
		return nil, errors.New("wallet not found")
	}
	return w, nil
}

func (s *scoreWalletRepoStub) GetByID(_ context.Context, _ int64) (*entities.Wallet, error) {
	return nil, errors.New("not implemented")
}

func (s *scoreWalletRepoStub) ConditionalAdjust(_ context.Context, walletID int64, delta decimal.Decimal, _ ...repositories.CounterDelta) (int64, error) {
	s.adjusted[walletID] = delta
	return 1, nil
}

func (s *scoreWalletRepoStub) ClampedAdjust(_ context.Context, walletID int64, delta decimal.Decimal, _ ...repositories.CounterDelta) error {
	s.clamped[walletID] = delta
	return nil
}

func (s *scoreWalletRepoStub) AddPayScore(_ context.Context, _ int64, _ int) error { return nil }

func (s *scoreWalletRepoStub) SetPayKey(_ context.Context, _ int64, _ string) error { return nil }

func (s *scoreWalletRepoStub) SetBaselineScore(_ context.Context, walletID int64, score int) error {
	s.baselines[walletID] = score
	return nil
}

func (s *scoreWalletRepoStub) ListUserIDs(_ context.Context) ([]int64, error) {
	return s.userIDs, nil
}

type orderCreatorStub struct {
	orders []*entities.Order
}

func (s *orderCreatorStub) Create(_ context.Context, order *entities.Order) error {
	s.orders = append(s.orders, order)
	return nil
}

func (s *orderCreatorStub) GetByID(_ context.Context, _ int64) (*entities.Order, error) {
	return nil, errors.New("not implemented")
}
func (s *orderCreatorStub) GetByOrderNo(_ context.Context, _ string) (*entities.Order, error) {
	return nil, errors.New("not implemented")
}
func (s *orderCreatorStub) GetByMerchantRef(_ context.Context, _, _ string) (*entities.Order, error) {
	return nil, errors.New("not implemented")
}
func (s *orderCreatorStub) Update(_ context.Context, _ *entities.Order) error { return nil }
func (s *orderCreatorStub) UpdateStatus(_ context.Context, _ int64, _ entities.OrderStatus) error {
	return nil
}
func (s *orderCreatorStub) ListForUser(_ context.Context, _ int64, _ repositories.OrderListFilter, _, _ int) ([]*entities.Order, int64, error) {
	return nil, 0, nil
}
func (s *orderCreatorStub) ListDisputable(_ context.Context, _ int64, _ time.Time, _ int) ([]*entities.Order, error) {
	return nil, nil
}
func (s *orderCreatorStub) ListTipsForPost(_ context.Context, _ int64) ([]*entities.Order, error) {
	return nil, nil
}
func (s *orderCreatorStub) CountProductPurchases(_ context.Context, _, _ int64) (int64, error) {
	return 0, nil
}
func (s *orderCreatorStub) SumTransfersSince(_ context.Context, _ int64, _ time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (s *orderCreatorStub) ExpirePending(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type scoreGatewayStub struct {
	scores map[int64]int
	errFor map[int64]error
}

func (s *scoreGatewayStub) Score(_ context.Context, userID int64) (int, error) {
	if err := s.errFor[userID]; err != nil {
		return 0, err
	}
	return s.scores[userID], nil
}

type passthroughUOW struct{}

func (passthroughUOW) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passthroughUOW) WithLock(ctx context.Context) context.Context { return ctx }

func newScoreSyncJob(wallets *scoreWalletRepoStub, orders *orderCreatorStub, scores *scoreGatewayStub) *ScoreSyncJob {
	job := NewScoreSyncJob(wallets, orders, scores, passthroughUOW{}, time.Hour)
	job.sleep = func(time.Duration) {}
	return job
}

func TestScoreSyncRunOnce_GrantsPositiveDelta(t *testing.T) {
	wallets := newScoreWalletRepoStub()
	wallets.userIDs = []int64{10}
	wallets.wallets[10] = &entities.Wallet{ID: 1, UserID: 10, InitialLeaderboardScore: 40}
	orders := &orderCreatorStub{}
	scores := &scoreGatewayStub{scores: map[int64]int{10: 55}}

	report := newScoreSyncJob(wallets, orders, scores).RunOnce(context.Background())

	require.Equal(t, Report{Processed: 1}, report)
	require.True(t, wallets.adjusted[1].Equal(decimal.NewFromInt(15)))
	require.Equal(t, 55, wallets.baselines[1])
	require.Len(t, orders.orders, 1)
	require.Equal(t, entities.OrderTypeCommunity, orders.orders[0].OrderType)
	require.Equal(t, entities.SystemUserID, orders.orders[0].PayerUserID)
	require.Equal(t, int64(10), orders.orders[0].PayeeUserID)
}

func TestScoreSyncRunOnce_ReclaimsNegativeDelta(t *testing.T) {
	wallets := newScoreWalletRepoStub()
	wallets.userIDs = []int64{10}
	wallets.wallets[10] = &entities.Wallet{ID: 1, UserID: 10, InitialLeaderboardScore: 40}
	orders := &orderCreatorStub{}
	scores := &scoreGatewayStub{scores: map[int64]int{10: 30}}

	report := newScoreSyncJob(wallets, orders, scores).RunOnce(context.Background())

	require.Equal(t, Report{Processed: 1}, report)
	require.True(t, wallets.clamped[1].Equal(decimal.NewFromInt(-10)))
	require.Equal(t, 30, wallets.baselines[1])
	require.Len(t, orders.orders, 1)
	require.Equal(t, int64(10), orders.orders[0].PayerUserID)
	require.Equal(t, entities.SystemUserID, orders.orders[0].PayeeUserID)
}

func TestScoreSyncRunOnce_SkipsUnchangedAndFailed(t *testing.T) {
	wallets := newScoreWalletRepoStub()
	wallets.userIDs = []int64{10, 11, 12}
	wallets.wallets[10] = &entities.Wallet{ID: 1, UserID: 10, InitialLeaderboardScore: 50}
	wallets.wallets[12] = &entities.Wallet{ID: 3, UserID: 12, InitialLeaderboardScore: 0}
	orders := &orderCreatorStub{}
	scores := &scoreGatewayStub{
		scores: map[int64]int{10: 50, 12: 5},
		errFor: map[int64]error{11: errors.New("forum unreachable")},
	}

	report := newScoreSyncJob(wallets, orders, scores).RunOnce(context.Background())

	// unchanged wallet skipped, unreachable score failed, third processed
	require.Equal(t, Report{Processed: 1, Skipped: 1, Failed: 1}, report)
	require.Len(t, orders.orders, 1)
}
