package repositories

import (
	"context"
)

// UnitOfWork defines the interface for atomic operations
type UnitOfWork interface {
	// Do executes the given function within a transaction scope. Any error
	// returned by fn rolls the whole transaction back; no partial mutation
	// is observable.
	Do(ctx context.Context, fn func(ctx context.Context) error) error

	// WithLock marks the context so that subsequent reads inside the
	// transaction take row-level locks (SELECT ... FOR UPDATE).
	WithLock(ctx context.Context) context.Context
}
