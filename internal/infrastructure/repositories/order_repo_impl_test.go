package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"credit-ledger.backend/internal/domain/entities"
	domainerrors "credit-ledger.backend/internal/domain/errors"
	domainRepos "credit-ledger.backend/internal/domain/repositories"
)

func seedOrder(t *testing.T, repo *OrderRepositoryImpl, o *entities.Order) *entities.Order {
	t.Helper()
	if o.OrderNo == "" {
		o.OrderNo = fmt.Sprintf("TEST%d%d", time.Now().UnixNano(), o.PayerUserID)
	}
	if o.OrderName == "" {
		o.OrderName = "test order"
	}
	if o.Amount.IsZero() {
		o.Amount = decimal.NewFromInt(10)
	}
	require.NoError(t, repo.Create(context.Background(), o))
	return o
}

func TestOrderRepository_CreateAndFinders(t *testing.T) {
	db := newTestDB(t)
	createOrderTable(t, db)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	o := seedOrder(t, repo, &entities.Order{
		OrderNo:         "NO123",
		MerchantOrderNo: null.StringFrom("m-001"),
		ClientID:        null.StringFrom("pay_abc"),
		PayerUserID:     1,
		PayeeUserID:     2,
		OrderType:       entities.OrderTypePayment,
		Status:          entities.OrderStatusPending,
	})

	byID, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, "NO123", byID.OrderNo)

	byNo, err := repo.GetByOrderNo(ctx, "NO123")
	require.NoError(t, err)
	require.Equal(t, o.ID, byNo.ID)

	byRef, err := repo.GetByMerchantRef(ctx, "pay_abc", "m-001")
	require.NoError(t, err)
	require.Equal(t, o.ID, byRef.ID)

	_, err = repo.GetByMerchantRef(ctx, "pay_abc", "missing")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	require.NoError(t, repo.UpdateStatus(ctx, o.ID, entities.OrderStatusSuccess))
	byID, err = repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, entities.OrderStatusSuccess, byID.Status)
}

func TestOrderRepository_ListForUserFilters(t *testing.T) {
	db := newTestDB(t)
	createOrderTable(t, db)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	const uid = int64(7)
	// income from another user
	seedOrder(t, repo, &entities.Order{PayerUserID: 9, PayeeUserID: uid, OrderType: entities.OrderTypeTransfer, Status: entities.OrderStatusSuccess})
	// expense to another user
	seedOrder(t, repo, &entities.Order{PayerUserID: uid, PayeeUserID: 9, OrderType: entities.OrderTypePayment, Status: entities.OrderStatusSuccess})
	// system grant, payer 0, excluded from expense
	seedOrder(t, repo, &entities.Order{PayerUserID: entities.SystemUserID, PayeeUserID: uid, OrderType: entities.OrderTypeReceive, Status: entities.OrderStatusSuccess})
	// tip sent by uid
	seedOrder(t, repo, &entities.Order{PayerUserID: uid, PayeeUserID: 9, OrderType: entities.OrderTypeTip, Status: entities.OrderStatusSuccess})
	// envelope claim received by uid
	seedOrder(t, repo, &entities.Order{PayerUserID: 9, PayeeUserID: uid, OrderType: entities.OrderTypeRedEnvelopeReceive, Status: entities.OrderStatusSuccess})
	// unrelated pair, never visible for uid
	seedOrder(t, repo, &entities.Order{PayerUserID: 3, PayeeUserID: 4, OrderType: entities.OrderTypePayment, Status: entities.OrderStatusSuccess})

	all, total, err := repo.ListForUser(ctx, uid, domainRepos.OrderFilterAll, 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(5), total)
	require.Len(t, all, 5)

	income, total, err := repo.ListForUser(ctx, uid, domainRepos.OrderFilterIncome, 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	for _, o := range income {
		require.Equal(t, uid, o.PayeeUserID)
	}

	expense, total, err := repo.ListForUser(ctx, uid, domainRepos.OrderFilterExpense, 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	for _, o := range expense {
		require.Equal(t, uid, o.PayerUserID)
	}

	tips, total, err := repo.ListForUser(ctx, uid, domainRepos.OrderFilterTip, 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, entities.OrderTypeTip, tips[0].OrderType)

	envelopes, total, err := repo.ListForUser(ctx, uid, domainRepos.OrderFilterRedEnvelope, 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, entities.OrderTypeRedEnvelopeReceive, envelopes[0].OrderType)

	// pagination applies after the filter
	page, total, err := repo.ListForUser(ctx, uid, domainRepos.OrderFilterAll, 2, 0)
	require.NoError(t, err)
	require.Equal(t, int64(5), total)
	require.Len(t, page, 2)
}

func TestOrderRepository_ListDisputable(t *testing.T) {
	db := newTestDB(t)
	createOrderTable(t, db)
	createDisputeTable(t, db)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	now := time.Now()
	cutoff := now.Add(-72 * time.Hour)

	eligible := seedOrder(t, repo, &entities.Order{
		PayerUserID: 1, PayeeUserID: 2,
		OrderType: entities.OrderTypePayment,
		Status:    entities.OrderStatusSuccess,
		TradeTime: null.TimeFrom(now.Add(-time.Hour)),
	})
	// too old
	seedOrder(t, repo, &entities.Order{
		PayerUserID: 1, PayeeUserID: 2,
		OrderType: entities.OrderTypeTransfer,
		Status:    entities.OrderStatusSuccess,
		TradeTime: null.TimeFrom(now.Add(-100 * time.Hour)),
	})
	// wrong type
	seedOrder(t, repo, &entities.Order{
		PayerUserID: 1, PayeeUserID: 2,
		OrderType: entities.OrderTypeTip,
		Status:    entities.OrderStatusSuccess,
		TradeTime: null.TimeFrom(now.Add(-time.Hour)),
	})
	// already disputed
	disputed := seedOrder(t, repo, &entities.Order{
		PayerUserID: 1, PayeeUserID: 2,
		OrderType: entities.OrderTypePayment,
		Status:    entities.OrderStatusSuccess,
		TradeTime: null.TimeFrom(now.Add(-time.Hour)),
	})
	mustExec(t, db, `INSERT INTO credit_disputes(order_id,initiator_user_id,reason,status,deadline_at,created_at,updated_at) VALUES (?,?,?,?,?,?,?)`,
		disputed.ID, 1, "not delivered", "disputing", now.Add(24*time.Hour), now, now)

	orders, err := repo.ListDisputable(ctx, 1, cutoff, 50)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, eligible.ID, orders[0].ID)
}

func TestOrderRepository_TipsAndPurchaseCounts(t *testing.T) {
	db := newTestDB(t)
	createOrderTable(t, db)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	postID := int64(55)
	seedOrder(t, repo, &entities.Order{PayerUserID: 1, PayeeUserID: 2, OrderType: entities.OrderTypeTip, Status: entities.OrderStatusSuccess, PostID: &postID})
	seedOrder(t, repo, &entities.Order{PayerUserID: 3, PayeeUserID: 2, OrderType: entities.OrderTypeTip, Status: entities.OrderStatusSuccess, PostID: &postID})
	// failed tip stays invisible
	seedOrder(t, repo, &entities.Order{PayerUserID: 4, PayeeUserID: 2, OrderType: entities.OrderTypeTip, Status: entities.OrderStatusFailed, PostID: &postID})

	tips, err := repo.ListTipsForPost(ctx, postID)
	require.NoError(t, err)
	require.Len(t, tips, 2)

	seedOrder(t, repo, &entities.Order{PayerUserID: 1, PayeeUserID: 2, OrderType: entities.OrderTypeProduct, Status: entities.OrderStatusSuccess, Remark: entities.ProductRemark(5) + " widget"})
	seedOrder(t, repo, &entities.Order{PayerUserID: 1, PayeeUserID: 2, OrderType: entities.OrderTypeProduct, Status: entities.OrderStatusSuccess, Remark: entities.ProductRemark(5) + " widget"})
	// product 52 must not match product 5
	seedOrder(t, repo, &entities.Order{PayerUserID: 1, PayeeUserID: 2, OrderType: entities.OrderTypeProduct, Status: entities.OrderStatusSuccess, Remark: entities.ProductRemark(52) + " other"})

	count, err := repo.CountProductPurchases(ctx, 1, 5)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	count, err = repo.CountProductPurchases(ctx, 1, 52)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestOrderRepository_SumTransfersSince(t *testing.T) {
	db := newTestDB(t)
	createOrderTable(t, db)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	seedOrder(t, repo, &entities.Order{PayerUserID: 1, PayeeUserID: 2, OrderType: entities.OrderTypeTransfer, Status: entities.OrderStatusSuccess, Amount: decimal.NewFromFloat(10.50)})
	seedOrder(t, repo, &entities.Order{PayerUserID: 1, PayeeUserID: 3, OrderType: entities.OrderTypeTransfer, Status: entities.OrderStatusSuccess, Amount: decimal.NewFromFloat(4.25)})
	// failed transfers and other types don't count
	seedOrder(t, repo, &entities.Order{PayerUserID: 1, PayeeUserID: 2, OrderType: entities.OrderTypeTransfer, Status: entities.OrderStatusFailed, Amount: decimal.NewFromInt(100)})
	seedOrder(t, repo, &entities.Order{PayerUserID: 1, PayeeUserID: 2, OrderType: entities.OrderTypePayment, Status: entities.OrderStatusSuccess, Amount: decimal.NewFromInt(100)})

	total, err := repo.SumTransfersSince(ctx, 1, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, "14.75", total.StringFixed(2))

	total, err = repo.SumTransfersSince(ctx, 1, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.True(t, total.IsZero())
}

func TestOrderRepository_ExpirePending(t *testing.T) {
	db := newTestDB(t)
	createOrderTable(t, db)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	now := time.Now()

	stale := seedOrder(t, repo, &entities.Order{
		PayerUserID: 1, PayeeUserID: 2,
		OrderType: entities.OrderTypeOnline,
		Status:    entities.OrderStatusPending,
		ExpiresAt: null.TimeFrom(now.Add(-time.Minute)),
	})
	fresh := seedOrder(t, repo, &entities.Order{
		PayerUserID: 1, PayeeUserID: 2,
		OrderType: entities.OrderTypeOnline,
		Status:    entities.OrderStatusPending,
		ExpiresAt: null.TimeFrom(now.Add(time.Hour)),
	})
	settled := seedOrder(t, repo, &entities.Order{
		PayerUserID: 1, PayeeUserID: 2,
		OrderType: entities.OrderTypeOnline,
		Status:    entities.OrderStatusSuccess,
		ExpiresAt: null.TimeFrom(now.Add(-time.Minute)),
	})

	affected, err := repo.ExpirePending(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	got, err := repo.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	require.Equal(t, entities.OrderStatusExpired, got.Status)
	require.True(t, got.Status.Terminal())

	got, err = repo.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	require.Equal(t, entities.OrderStatusPending, got.Status)

	got, err = repo.GetByID(ctx, settled.ID)
	require.NoError(t, err)
	require.Equal(t, entities.OrderStatusSuccess, got.Status)
}
