package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"credit-ledger.backend/internal/domain/entities"
	"credit-ledger.backend/pkg/logger"
)

type expiredDisputeLister interface {
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*entities.Dispute, error)
}

type disputeResolver interface {
	AutoResolve(ctx context.Context, disputeID int64) error
}

// DisputeResolveJob refunds disputes the merchant ignored past the response
// deadline, with the configured compensation on top.
type DisputeResolveJob struct {
	disputes expiredDisputeLister
	resolver disputeResolver
	interval time.Duration
	stop     chan struct{}
}

func NewDisputeResolveJob(disputes expiredDisputeLister, resolver disputeResolver, interval time.Duration) *DisputeResolveJob {
	return &DisputeResolveJob{disputes: disputes, resolver: resolver, interval: interval, stop: make(chan struct{})}
}

func (j *DisputeResolveJob) Start(ctx context.Context) {
	runLoop(ctx, "dispute_resolve", j.interval, j.stop, j.RunOnce)
}

func (j *DisputeResolveJob) Stop() {
	close(j.stop)
}

// RunOnce performs a single sweep pass.
func (j *DisputeResolveJob) RunOnce(ctx context.Context) Report {
	overdue, err := j.disputes.ListExpired(ctx, time.Now(), sweepBatchSize)
	if err != nil {
		logger.Error(ctx, "overdue dispute listing failed", zap.Error(err))
		return Report{Failed: 1}
	}

	var report Report
	for _, dispute := range overdue {
		if err := j.resolver.AutoResolve(ctx, dispute.ID); err != nil {
			logger.Warn(ctx, "dispute auto-resolution failed",
				zap.Int64("dispute_id", dispute.ID), zap.Error(err))
			report.Failed++
			continue
		}
		report.Processed++
	}
	return report
}
