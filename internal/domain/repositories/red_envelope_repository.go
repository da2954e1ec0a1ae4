package repositories

import (
	"context"
	"time"

	"credit-ledger.backend/internal/domain/entities"
)

// RedEnvelopeRepository defines red envelope data operations. Claim-path
// reads must run under WithLock so the split computation never sees a stale
// remaining amount.
type RedEnvelopeRepository interface {
	Create(ctx context.Context, envelope *entities.RedEnvelope) error
	GetByID(ctx context.Context, id int64) (*entities.RedEnvelope, error)
	Update(ctx context.Context, envelope *entities.RedEnvelope) error

	CreateClaim(ctx context.Context, claim *entities.RedEnvelopeClaim) error
	GetClaim(ctx context.Context, envelopeID, userID int64) (*entities.RedEnvelopeClaim, error)
	HasClaim(ctx context.Context, envelopeID, userID int64) (bool, error)
	ListClaims(ctx context.Context, envelopeID int64) ([]*entities.RedEnvelopeClaim, error)

	ListBySender(ctx context.Context, senderID int64, limit, offset int) ([]*entities.RedEnvelope, int64, error)
	ListClaimedBy(ctx context.Context, userID int64, limit, offset int) ([]*entities.RedEnvelopeClaim, int64, error)
	// CountCreatedSince counts envelopes a sender created after the cutoff,
	// for the daily send limit.
	CountCreatedSince(ctx context.Context, senderID int64, since time.Time) (int64, error)

	// ListExpiredRefundable returns active envelopes past expiry that still
	// hold funds to refund.
	ListExpiredRefundable(ctx context.Context, now time.Time, limit int) ([]*entities.RedEnvelope, error)
}
