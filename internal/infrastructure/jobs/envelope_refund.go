package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"credit-ledger.backend/internal/domain/entities"
	"credit-ledger.backend/pkg/logger"
)

const sweepBatchSize = 100

type expiredEnvelopeLister interface {
	ListExpiredRefundable(ctx context.Context, now time.Time, limit int) ([]*entities.RedEnvelope, error)
}

type envelopeRefunder interface {
	RefundExpired(ctx context.Context, envelopeID int64) error
}

// EnvelopeRefundJob returns the unclaimed remainder of expired red envelopes
// to their senders. Each envelope refunds independently; one failure never
// blocks the rest of the batch.
type EnvelopeRefundJob struct {
	envelopes expiredEnvelopeLister
	refunder  envelopeRefunder
	interval  time.Duration
	stop      chan struct{}
}

func NewEnvelopeRefundJob(envelopes expiredEnvelopeLister, refunder envelopeRefunder, interval time.Duration) *EnvelopeRefundJob {
	return &EnvelopeRefundJob{envelopes: envelopes, refunder: refunder, interval: interval, stop: make(chan struct{})}
}

func (j *EnvelopeRefundJob) Start(ctx context.Context) {
	runLoop(ctx, "envelope_refund", j.interval, j.stop, j.RunOnce)
}

func (j *EnvelopeRefundJob) Stop() {
	close(j.stop)
}

// RunOnce performs a single sweep pass.
func (j *EnvelopeRefundJob) RunOnce(ctx context.Context) Report {
	expired, err := j.envelopes.ListExpiredRefundable(ctx, time.Now(), sweepBatchSize)
	if err != nil {
		logger.Error(ctx, "expired envelope listing failed", zap.Error(err))
		return Report{Failed: 1}
	}

	var report Report
	for _, envelope := range expired {
		if err := j.refunder.RefundExpired(ctx, envelope.ID); err != nil {
			logger.Warn(ctx, "envelope refund failed",
				zap.Int64("envelope_id", envelope.ID), zap.Error(err))
			report.Failed++
			continue
		}
		report.Processed++
	}
	return report
}
