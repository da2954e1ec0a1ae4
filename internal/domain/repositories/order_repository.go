package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"credit-ledger.backend/internal/domain/entities"
)

// OrderListFilter selects which orders a listing returns.
type OrderListFilter string

const (
	OrderFilterAll         OrderListFilter = "all"
	OrderFilterIncome      OrderListFilter = "income"
	OrderFilterExpense     OrderListFilter = "expense"
	OrderFilterTip         OrderListFilter = "tip"
	OrderFilterRedEnvelope OrderListFilter = "red_envelope"
	OrderFilterProduct     OrderListFilter = "product"
	OrderFilterCommunity   OrderListFilter = "community"
)

// OrderRepository defines settlement-record data operations
type OrderRepository interface {
	Create(ctx context.Context, order *entities.Order) error
	GetByID(ctx context.Context, id int64) (*entities.Order, error)
	GetByOrderNo(ctx context.Context, orderNo string) (*entities.Order, error)
	// GetByMerchantRef looks an order up by the legacy gateway's
	// (client_id, merchant order no) pair.
	GetByMerchantRef(ctx context.Context, clientID, merchantOrderNo string) (*entities.Order, error)
	Update(ctx context.Context, order *entities.Order) error
	UpdateStatus(ctx context.Context, id int64, status entities.OrderStatus) error

	ListForUser(ctx context.Context, userID int64, filter OrderListFilter, limit, offset int) ([]*entities.Order, int64, error)
	// ListDisputable returns the user's successful payment/transfer orders
	// newer than cutoff that have no dispute yet.
	ListDisputable(ctx context.Context, payerUserID int64, cutoff time.Time, limit int) ([]*entities.Order, error)
	ListTipsForPost(ctx context.Context, postID int64) ([]*entities.Order, error)

	// CountProductPurchases counts a user's successful purchases of one
	// product, for per-user purchase limits.
	CountProductPurchases(ctx context.Context, userID, productID int64) (int64, error)

	// SumTransfersSince totals the user's successful outbound transfers
	// created after the cutoff, for the daily transfer limit.
	SumTransfersSince(ctx context.Context, payerUserID int64, since time.Time) (decimal.Decimal, error)

	// ExpirePending bulk-flips pending orders past their deadline to
	// expired. Pure status flip: funds were never moved for pending orders.
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}
