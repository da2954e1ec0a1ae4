package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"credit-ledger.backend/pkg/logger"
)

// TransactionExpiryJob flips unpaid payment intents past their deadline to
// expired so their external references become conflicts, not replays.
type TransactionExpiryJob struct {
	transactions pendingExpirer
	interval     time.Duration
	stop         chan struct{}
}

func NewTransactionExpiryJob(transactions pendingExpirer, interval time.Duration) *TransactionExpiryJob {
	return &TransactionExpiryJob{transactions: transactions, interval: interval, stop: make(chan struct{})}
}

func (j *TransactionExpiryJob) Start(ctx context.Context) {
	runLoop(ctx, "transaction_expiry", j.interval, j.stop, j.RunOnce)
}

func (j *TransactionExpiryJob) Stop() {
	close(j.stop)
}

// RunOnce performs a single sweep pass.
func (j *TransactionExpiryJob) RunOnce(ctx context.Context) Report {
	count, err := j.transactions.ExpirePending(ctx, time.Now())
	if err != nil {
		logger.Error(ctx, "transaction expiry sweep failed", zap.Error(err))
		return Report{Failed: 1}
	}
	return Report{Processed: int(count)}
}
