package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"credit-ledger.backend/internal/domain/entities"
	domainerrors "credit-ledger.backend/internal/domain/errors"
)

// RedEnvelopeRepositoryImpl implements red envelope data operations
type RedEnvelopeRepositoryImpl struct {
	db *gorm.DB
}

// NewRedEnvelopeRepository creates a new red envelope repository
func NewRedEnvelopeRepository(db *gorm.DB) *RedEnvelopeRepositoryImpl {
	return &RedEnvelopeRepositoryImpl{db: db}
}

// Create creates a new red envelope
func (r *RedEnvelopeRepositoryImpl) Create(ctx context.Context, envelope *entities.RedEnvelope) error {
	return GetDB(ctx, r.db).WithContext(ctx).Create(envelope).Error
}

// GetByID gets a red envelope by id, honoring any pending row lock
func (r *RedEnvelopeRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.RedEnvelope, error) {
	var envelope entities.RedEnvelope
	err := scoped(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&envelope).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &envelope, nil
}

// Update persists all fields of the envelope
func (r *RedEnvelopeRepositoryImpl) Update(ctx context.Context, envelope *entities.RedEnvelope) error {
	return GetDB(ctx, r.db).WithContext(ctx).Save(envelope).Error
}

// CreateClaim records a claim. The unique index on (envelope, user) turns a
// double claim into a constraint violation, surfaced as ErrConflict.
func (r *RedEnvelopeRepositoryImpl) CreateClaim(ctx context.Context, claim *entities.RedEnvelopeClaim) error {
	err := GetDB(ctx, r.db).WithContext(ctx).Create(claim).Error
	if err != nil && isUniqueViolation(err) {
		return domainerrors.ErrConflict
	}
	return err
}

// GetClaim gets one user's claim on an envelope
func (r *RedEnvelopeRepositoryImpl) GetClaim(ctx context.Context, envelopeID, userID int64) (*entities.RedEnvelopeClaim, error) {
	var claim entities.RedEnvelopeClaim
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("red_envelope_id = ? AND user_id = ?", envelopeID, userID).
		First(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// HasClaim reports whether the user already claimed the envelope
func (r *RedEnvelopeRepositoryImpl) HasClaim(ctx context.Context, envelopeID, userID int64) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.RedEnvelopeClaim{}).
		Where("red_envelope_id = ? AND user_id = ?", envelopeID, userID).
		Count(&count).Error
	return count > 0, err
}

// ListClaims lists all claims on an envelope, newest first
func (r *RedEnvelopeRepositoryImpl) ListClaims(ctx context.Context, envelopeID int64) ([]*entities.RedEnvelopeClaim, error) {
	var claims []*entities.RedEnvelopeClaim
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("red_envelope_id = ?", envelopeID).
		Order("created_at DESC").
		Find(&claims).Error
	return claims, err
}

// ListBySender lists envelopes a user sent with pagination
func (r *RedEnvelopeRepositoryImpl) ListBySender(ctx context.Context, senderID int64, limit, offset int) ([]*entities.RedEnvelope, int64, error) {
	query := GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.RedEnvelope{}).
		Where("sender_id = ?", senderID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var envelopes []*entities.RedEnvelope
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&envelopes).Error
	return envelopes, total, err
}

// ListClaimedBy lists a user's claims with pagination
func (r *RedEnvelopeRepositoryImpl) ListClaimedBy(ctx context.Context, userID int64, limit, offset int) ([]*entities.RedEnvelopeClaim, int64, error) {
	query := GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.RedEnvelopeClaim{}).
		Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var claims []*entities.RedEnvelopeClaim
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&claims).Error
	return claims, total, err
}

// CountCreatedSince counts envelopes a sender created after the cutoff
func (r *RedEnvelopeRepositoryImpl) CountCreatedSince(ctx context.Context, senderID int64, since time.Time) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.RedEnvelope{}).
		Where("sender_id = ? AND created_at >= ?", senderID, since).
		Count(&count).Error
	return count, err
}

// ListExpiredRefundable returns active envelopes past expiry with funds left
func (r *RedEnvelopeRepositoryImpl) ListExpiredRefundable(ctx context.Context, now time.Time, limit int) ([]*entities.RedEnvelope, error) {
	var envelopes []*entities.RedEnvelope
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("status = ? AND expires_at < ?", entities.EnvelopeStatusActive, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&envelopes).Error
	return envelopes, err
}
