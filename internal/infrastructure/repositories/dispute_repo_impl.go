package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"credit-ledger.backend/internal/domain/entities"
	domainerrors "credit-ledger.backend/internal/domain/errors"
)

// DisputeRepositoryImpl implements dispute data operations
type DisputeRepositoryImpl struct {
	db *gorm.DB
}

// NewDisputeRepository creates a new dispute repository
func NewDisputeRepository(db *gorm.DB) *DisputeRepositoryImpl {
	return &DisputeRepositoryImpl{db: db}
}

// Create records a dispute. The unique index on order_id makes a second
// dispute against the same order surface as ErrConflict.
func (r *DisputeRepositoryImpl) Create(ctx context.Context, dispute *entities.Dispute) error {
	err := GetDB(ctx, r.db).WithContext(ctx).Create(dispute).Error
	if err != nil && isUniqueViolation(err) {
		return domainerrors.ErrConflict
	}
	return err
}

// GetByID gets a dispute by id
func (r *DisputeRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.Dispute, error) {
	var dispute entities.Dispute
	err := scoped(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&dispute).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &dispute, nil
}

// GetByOrderID gets the dispute attached to an order
func (r *DisputeRepositoryImpl) GetByOrderID(ctx context.Context, orderID int64) (*entities.Dispute, error) {
	var dispute entities.Dispute
	err := scoped(ctx, r.db).WithContext(ctx).Where("order_id = ?", orderID).First(&dispute).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &dispute, nil
}

// ExistsForOrder reports whether an order already has a dispute
func (r *DisputeRepositoryImpl) ExistsForOrder(ctx context.Context, orderID int64) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.Dispute{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count > 0, err
}

// Update persists all fields of the dispute
func (r *DisputeRepositoryImpl) Update(ctx context.Context, dispute *entities.Dispute) error {
	return GetDB(ctx, r.db).WithContext(ctx).Save(dispute).Error
}

// ListByInitiator lists disputes a user opened, optionally by status
func (r *DisputeRepositoryImpl) ListByInitiator(ctx context.Context, userID int64, status entities.DisputeStatus, limit, offset int) ([]*entities.Dispute, int64, error) {
	query := GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.Dispute{}).
		Where("initiator_user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return paginateDisputes(query, limit, offset)
}

// ListForPayee lists disputes whose underlying order pays the user
func (r *DisputeRepositoryImpl) ListForPayee(ctx context.Context, payeeUserID int64, status entities.DisputeStatus, limit, offset int) ([]*entities.Dispute, int64, error) {
	query := GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.Dispute{}).
		Where("order_id IN (SELECT id FROM credit_orders WHERE payee_user_id = ?)", payeeUserID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return paginateDisputes(query, limit, offset)
}

func paginateDisputes(query *gorm.DB, limit, offset int) ([]*entities.Dispute, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var disputes []*entities.Dispute
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&disputes).Error
	return disputes, total, err
}

// ListExpired returns open disputes past their deadline, oldest first
func (r *DisputeRepositoryImpl) ListExpired(ctx context.Context, now time.Time, limit int) ([]*entities.Dispute, error) {
	var disputes []*entities.Dispute
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("status = ? AND deadline_at < ?", entities.DisputeStatusDisputing, now).
		Order("deadline_at ASC").
		Limit(limit).
		Find(&disputes).Error
	return disputes, err
}
