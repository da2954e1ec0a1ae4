// Package jobs contains the ticker-driven reconciliation sweeps. Every job
// owns its interval and stop channel and reports what one pass did.
package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"credit-ledger.backend/pkg/logger"
)

// Report summarizes one sweep pass.
type Report struct {
	Processed int
	Skipped   int
	Failed    int
}

func (r Report) empty() bool {
	return r.Processed == 0 && r.Skipped == 0 && r.Failed == 0
}

// runLoop drives a sweep on a fixed interval until the context is cancelled
// or the stop channel closes.
func runLoop(ctx context.Context, name string, interval time.Duration, stop <-chan struct{}, sweep func(context.Context) Report) {
	logger.Info(ctx, "job started", zap.String("job", name), zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "job stopped", zap.String("job", name))
			return
		case <-stop:
			logger.Info(ctx, "job stopped", zap.String("job", name))
			return
		case <-ticker.C:
			report := sweep(ctx)
			if !report.empty() {
				logger.Info(ctx, "sweep finished",
					zap.String("job", name),
					zap.Int("processed", report.Processed),
					zap.Int("skipped", report.Skipped),
					zap.Int("failed", report.Failed))
			}
		}
	}
}
