package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"credit-ledger.backend/pkg/logger"
)

type pendingExpirer interface {
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}

// OrderExpiryJob flips pending orders past their deadline to expired. Pending
// orders never moved funds, so the sweep is a pure status flip.
type OrderExpiryJob struct {
	orders   pendingExpirer
	interval time.Duration
	stop     chan struct{}
}

func NewOrderExpiryJob(orders pendingExpirer, interval time.Duration) *OrderExpiryJob {
	return &OrderExpiryJob{orders: orders, interval: interval, stop: make(chan struct{})}
}

func (j *OrderExpiryJob) Start(ctx context.Context) {
	runLoop(ctx, "order_expiry", j.interval, j.stop, j.RunOnce)
}

func (j *OrderExpiryJob) Stop() {
	close(j.stop)
}

// RunOnce performs a single sweep pass.
func (j *OrderExpiryJob) RunOnce(ctx context.Context) Report {
	count, err := j.orders.ExpirePending(ctx, time.Now())
	if err != nil {
		logger.Error(ctx, "order expiry sweep failed", zap.Error(err))
		return Report{Failed: 1}
	}
	return Report{Processed: int(count)}
}
