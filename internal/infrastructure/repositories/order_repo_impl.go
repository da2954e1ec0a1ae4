package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"credit-ledger.backend/internal/domain/entities"
	domainerrors "credit-ledger.backend/internal/domain/errors"
	domainRepos "credit-ledger.backend/internal/domain/repositories"
)

// OrderRepositoryImpl implements settlement-record data operations
type OrderRepositoryImpl struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) *OrderRepositoryImpl {
	return &OrderRepositoryImpl{db: db}
}

// Create creates a new order
func (r *OrderRepositoryImpl) Create(ctx context.Context, order *entities.Order) error {
	return GetDB(ctx, r.db).WithContext(ctx).Create(order).Error
}

// GetByID gets an order by id
func (r *OrderRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.Order, error) {
	var order entities.Order
	err := scoped(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo gets an order by its public order number
func (r *OrderRepositoryImpl) GetByOrderNo(ctx context.Context, orderNo string) (*entities.Order, error) {
	var order entities.Order
	err := scoped(ctx, r.db).WithContext(ctx).Where("order_no = ?", orderNo).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByMerchantRef gets an order by the legacy gateway reference pair
func (r *OrderRepositoryImpl) GetByMerchantRef(ctx context.Context, clientID, merchantOrderNo string) (*entities.Order, error) {
	var order entities.Order
	err := scoped(ctx, r.db).WithContext(ctx).
		Where("client_id = ? AND merchant_order_no = ?", clientID, merchantOrderNo).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Update persists all fields of the order
func (r *OrderRepositoryImpl) Update(ctx context.Context, order *entities.Order) error {
	return GetDB(ctx, r.db).WithContext(ctx).Save(order).Error
}

// UpdateStatus updates only the order status
func (r *OrderRepositoryImpl) UpdateStatus(ctx context.Context, id int64, status entities.OrderStatus) error {
	return GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ListForUser lists a user's orders with pagination
func (r *OrderRepositoryImpl) ListForUser(ctx context.Context, userID int64, filter domainRepos.OrderListFilter, limit, offset int) ([]*entities.Order, int64, error) {
	query := GetDB(ctx, r.db).WithContext(ctx).Model(&entities.Order{})

	switch filter {
	case domainRepos.OrderFilterIncome:
		query = query.Where("payee_user_id = ? AND payer_user_id <> ?", userID, userID)
	case domainRepos.OrderFilterExpense:
		query = query.Where("payer_user_id = ? AND payer_user_id > 0", userID)
	case domainRepos.OrderFilterTip:
		query = query.Where("(payer_user_id = ? OR payee_user_id = ?)", userID, userID).
			Where("order_type = ?", entities.OrderTypeTip)
	case domainRepos.OrderFilterRedEnvelope:
		query = query.Where("(payer_user_id = ? OR payee_user_id = ?)", userID, userID).
			Where("order_type IN ?", []entities.OrderType{
				entities.OrderTypeRedEnvelopeSend,
				entities.OrderTypeRedEnvelopeReceive,
				entities.OrderTypeRedEnvelopeRefund,
			})
	case domainRepos.OrderFilterProduct:
		query = query.Where("(payer_user_id = ? OR payee_user_id = ?)", userID, userID).
			Where("order_type = ?", entities.OrderTypeProduct)
	case domainRepos.OrderFilterCommunity:
		query = query.Where("(payer_user_id = ? OR payee_user_id = ?)", userID, userID).
			Where("order_type = ?", entities.OrderTypeCommunity)
	default:
		query = query.Where("payer_user_id = ? OR payee_user_id = ?", userID, userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*entities.Order
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&orders).Error
	return orders, total, err
}

// ListDisputable lists successful payment/transfer orders newer than cutoff
// that have no dispute yet.
func (r *OrderRepositoryImpl) ListDisputable(ctx context.Context, payerUserID int64, cutoff time.Time, limit int) ([]*entities.Order, error) {
	var orders []*entities.Order
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("payer_user_id = ? AND status = ?", payerUserID, entities.OrderStatusSuccess).
		Where("order_type IN ?", []entities.OrderType{entities.OrderTypePayment, entities.OrderTypeTransfer}).
		Where("COALESCE(trade_time, created_at) > ?", cutoff).
		Where("NOT EXISTS (SELECT 1 FROM credit_disputes d WHERE d.order_id = credit_orders.id)").
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// ListTipsForPost lists successful tips bound to a post
func (r *OrderRepositoryImpl) ListTipsForPost(ctx context.Context, postID int64) ([]*entities.Order, error) {
	var orders []*entities.Order
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("order_type = ? AND post_id = ? AND status = ?", entities.OrderTypeTip, postID, entities.OrderStatusSuccess).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// CountProductPurchases counts a user's settled purchases of one product.
// Purchase orders carry a "product:<id>," remark prefix; the trailing comma
// keeps product 5 from matching product 52.
func (r *OrderRepositoryImpl) CountProductPurchases(ctx context.Context, userID, productID int64) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.Order{}).
		Where("payer_user_id = ? AND order_type = ? AND status = ?", userID, entities.OrderTypeProduct, entities.OrderStatusSuccess).
		Where("remark LIKE ?", entities.ProductRemark(productID)+"%").
		Count(&count).Error
	return count, err
}

// SumTransfersSince totals successful outbound transfers after the cutoff
func (r *OrderRepositoryImpl) SumTransfersSince(ctx context.Context, payerUserID int64, since time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.Order{}).
		Select("SUM(amount)").
		Where("payer_user_id = ? AND order_type = ? AND status = ? AND created_at >= ?",
			payerUserID, entities.OrderTypeTransfer, entities.OrderStatusSuccess, since).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// ExpirePending bulk-flips pending orders past their deadline
func (r *OrderRepositoryImpl) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	res := GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.Order{}).
		Where("status = ? AND expires_at < ?", entities.OrderStatusPending, now).
		Update("status", entities.OrderStatusExpired)
	return res.RowsAffected, res.Error
}
