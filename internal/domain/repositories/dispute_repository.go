package repositories

import (
	"context"
	"time"

	"credit-ledger.backend/internal/domain/entities"
)

// DisputeRepository defines dispute data operations
type DisputeRepository interface {
	Create(ctx context.Context, dispute *entities.Dispute) error
	GetByID(ctx context.Context, id int64) (*entities.Dispute, error)
	GetByOrderID(ctx context.Context, orderID int64) (*entities.Dispute, error)
	ExistsForOrder(ctx context.Context, orderID int64) (bool, error)
	Update(ctx context.Context, dispute *entities.Dispute) error

	ListByInitiator(ctx context.Context, userID int64, status entities.DisputeStatus, limit, offset int) ([]*entities.Dispute, int64, error)
	// ListForPayee returns disputes whose underlying order names the user as
	// payee (the merchant-side inbox).
	ListForPayee(ctx context.Context, payeeUserID int64, status entities.DisputeStatus, limit, offset int) ([]*entities.Dispute, int64, error)

	// ListExpired returns open disputes past their deadline, oldest first.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*entities.Dispute, error)
}
