package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"credit-ledger.backend/internal/domain/entities"
	"credit-ledger.backend/internal/domain/gateways"
	"credit-ledger.backend/internal/domain/repositories"
	"credit-ledger.backend/internal/usecases"
	"credit-ledger.backend/pkg/logger"
)

// ScoreSyncJob reconciles each wallet's community balance against the forum
// leaderboard score. The delta since the recorded baseline is granted or
// reclaimed, an order records the movement, and the baseline advances so a
// repeated pass is a no-op.
type ScoreSyncJob struct {
	walletRepo repositories.WalletRepository
	orderRepo  repositories.OrderRepository
	scores     gateways.ScoreGateway
	uow        repositories.UnitOfWork
	interval   time.Duration
	pause      time.Duration
	stop       chan struct{}

	sleep func(time.Duration)
}

func NewScoreSyncJob(
	walletRepo repositories.WalletRepository,
	orderRepo repositories.OrderRepository,
	scores gateways.ScoreGateway,
	uow repositories.UnitOfWork,
	interval time.Duration,
) *ScoreSyncJob {
	return &ScoreSyncJob{
		walletRepo: walletRepo,
		orderRepo:  orderRepo,
		scores:     scores,
		uow:        uow,
		interval:   interval,
		pause:      100 * time.Millisecond,
		stop:       make(chan struct{}),
		sleep:      time.Sleep,
	}
}

func (j *ScoreSyncJob) Start(ctx context.Context) {
	runLoop(ctx, "score_sync", j.interval, j.stop, j.RunOnce)
}

func (j *ScoreSyncJob) Stop() {
	close(j.stop)
}

// RunOnce performs a single sweep pass over every wallet. The inter-item
// pause bounds load on the score source.
func (j *ScoreSyncJob) RunOnce(ctx context.Context) Report {
	userIDs, err := j.walletRepo.ListUserIDs(ctx)
	if err != nil {
		logger.Error(ctx, "wallet listing failed", zap.Error(err))
		return Report{Failed: 1}
	}

	var report Report
	for i, userID := range userIDs {
		if i > 0 {
			j.sleep(j.pause)
		}
		switch err := j.syncWallet(ctx, userID); {
		case err == nil:
			report.Processed++
		case err == errScoreUnchanged:
			report.Skipped++
		default:
			logger.Warn(ctx, "score sync failed for wallet",
				zap.Int64("user_id", userID), zap.Error(err))
			report.Failed++
		}
	}
	return report
}

var errScoreUnchanged = errors.New("score unchanged")

func (j *ScoreSyncJob) syncWallet(ctx context.Context, userID int64) error {
	score, err := j.scores.Score(ctx, userID)
	if err != nil {
		return err
	}

	wallet, err := j.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}

	delta := score - wallet.InitialLeaderboardScore
	if delta == 0 {
		return errScoreUnchanged
	}

	amount := decimal.NewFromInt(int64(delta)).Abs()
	now := time.Now()

	return j.uow.Do(ctx, func(txCtx context.Context) error {
		order := &entities.Order{
			OrderNo:      usecases.GenerateOrderNo(now),
			OrderName:    "community score settlement",
			Amount:       amount,
			ActualAmount: amount,
			Status:       entities.OrderStatusSuccess,
			OrderType:    entities.OrderTypeCommunity,
			TradeTime:    null.TimeFrom(now),
		}

		if delta > 0 {
			if _, err := j.walletRepo.ConditionalAdjust(txCtx, wallet.ID, amount,
				repositories.CounterDelta{Counter: repositories.CounterCommunityBalance, Delta: amount},
				repositories.CounterDelta{Counter: repositories.CounterTotalCommunity, Delta: amount},
				repositories.CounterDelta{Counter: repositories.CounterTotalReceive, Delta: amount},
			); err != nil {
				return err
			}
			order.PayerUserID = entities.SystemUserID
			order.PayeeUserID = userID
		} else {
			// the wallet may hold less than the reclaim, floor at zero
			if err := j.walletRepo.ClampedAdjust(txCtx, wallet.ID, amount.Neg(),
				repositories.CounterDelta{Counter: repositories.CounterCommunityBalance, Delta: amount.Neg()},
			); err != nil {
				return err
			}
			order.PayerUserID = userID
			order.PayeeUserID = entities.SystemUserID
		}

		if err := j.orderRepo.Create(txCtx, order); err != nil {
			return err
		}
		return j.walletRepo.SetBaselineScore(txCtx, wallet.ID, score)
	})
}
