package repositories

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"credit-ledger.backend/internal/domain/entities"
	domainerrors "credit-ledger.backend/internal/domain/errors"
	domainRepos "credit-ledger.backend/internal/domain/repositories"
)

func TestWalletRepository_CreateAndFinders(t *testing.T) {
	db := newTestDB(t)
	createWalletTables(t, db)
	repo := NewWalletRepository(db)
	ctx := context.Background()

	w := &entities.Wallet{
		UserID:           42,
		SignKey:          "aabbccdd",
		AvailableBalance: decimal.NewFromInt(100),
	}
	require.NoError(t, repo.Create(ctx, w))
	require.NotZero(t, w.ID)

	byUser, err := repo.GetByUserID(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, w.ID, byUser.ID)
	require.Equal(t, "100", byUser.AvailableBalance.String())
	require.False(t, byUser.HasPayKey())

	byID, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, int64(42), byID.UserID)

	_, err = repo.GetByUserID(ctx, 999)
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestWalletRepository_ConditionalAdjust(t *testing.T) {
	db := newTestDB(t)
	createWalletTables(t, db)
	repo := NewWalletRepository(db)
	ctx := context.Background()

	w := &entities.Wallet{UserID: 1, SignKey: "k", AvailableBalance: decimal.NewFromInt(50)}
	require.NoError(t, repo.Create(ctx, w))

	// debit within balance updates row and counters
	affected, err := repo.ConditionalAdjust(ctx, w.ID, decimal.NewFromInt(-30),
		domainRepos.CounterDelta{Counter: domainRepos.CounterTotalPayment, Delta: decimal.NewFromInt(30)})
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	got, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, "20", got.AvailableBalance.String())
	require.Equal(t, "30", got.TotalPayment.String())

	// overdraft debit touches nothing
	affected, err = repo.ConditionalAdjust(ctx, w.ID, decimal.NewFromInt(-21))
	require.NoError(t, err)
	require.Zero(t, affected)

	got, err = repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, "20", got.AvailableBalance.String())

	// debit to exactly zero is allowed
	affected, err = repo.ConditionalAdjust(ctx, w.ID, decimal.NewFromInt(-20))
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	// credit always lands
	affected, err = repo.ConditionalAdjust(ctx, w.ID, decimal.NewFromInt(5),
		domainRepos.CounterDelta{Counter: domainRepos.CounterTotalReceive, Delta: decimal.NewFromInt(5)})
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	got, err = repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, "5", got.AvailableBalance.String())
	require.Equal(t, "5", got.TotalReceive.String())
}

func TestWalletRepository_ClampedAdjustFloorsAtZero(t *testing.T) {
	db := newTestDB(t)
	createWalletTables(t, db)
	repo := NewWalletRepository(db)
	ctx := context.Background()

	w := &entities.Wallet{UserID: 2, SignKey: "k", AvailableBalance: decimal.NewFromInt(3)}
	require.NoError(t, repo.Create(ctx, w))

	require.NoError(t, repo.ClampedAdjust(ctx, w.ID, decimal.NewFromInt(-10)))

	got, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, "0", got.AvailableBalance.String())

	require.NoError(t, repo.ClampedAdjust(ctx, w.ID, decimal.NewFromInt(7)))
	got, err = repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, "7", got.AvailableBalance.String())
}

func TestWalletRepository_ScoreAndKeyUpdates(t *testing.T) {
	db := newTestDB(t)
	createWalletTables(t, db)
	repo := NewWalletRepository(db)
	ctx := context.Background()

	w := &entities.Wallet{UserID: 3, SignKey: "k"}
	require.NoError(t, repo.Create(ctx, w))

	require.NoError(t, repo.AddPayScore(ctx, w.ID, 15))
	require.NoError(t, repo.AddPayScore(ctx, w.ID, 5))
	require.NoError(t, repo.SetPayKey(ctx, w.ID, "encrypted-blob"))
	require.NoError(t, repo.SetBaselineScore(ctx, w.ID, 120))

	got, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, 20, got.PayScore)
	require.Equal(t, "encrypted-blob", got.PayKey)
	require.Equal(t, 120, got.InitialLeaderboardScore)
	require.True(t, got.HasPayKey())
}

func TestWalletRepository_ListUserIDs(t *testing.T) {
	db := newTestDB(t)
	createWalletTables(t, db)
	repo := NewWalletRepository(db)
	ctx := context.Background()

	for _, uid := range []int64{10, 20, 30} {
		require.NoError(t, repo.Create(ctx, &entities.Wallet{UserID: uid, SignKey: "k"}))
	}

	ids, err := repo.ListUserIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{10, 20, 30}, ids)
}

func TestPayLevelRepository_ForScore(t *testing.T) {
	db := newTestDB(t)
	createPayConfigTable(t, db)
	repo := NewPayLevelRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SeedDefaults(ctx))
	// second seed leaves existing rows alone
	require.NoError(t, repo.SeedDefaults(ctx))

	levels, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, levels, 4)

	cases := []struct {
		score int
		level int
		rate  string
	}{
		{0, 0, "0.01"},
		{999, 0, "0.01"},
		{1000, 1, "0.008"},
		{4999, 1, "0.008"},
		{5000, 2, "0.005"},
		{20000, 3, "0"},
		{1000000, 3, "0"},
	}
	for _, tc := range cases {
		tier, err := repo.ForScore(ctx, tc.score)
		require.NoError(t, err)
		require.NotNil(t, tier, "score %d", tc.score)
		require.Equal(t, tc.level, tier.Level, "score %d", tc.score)
		require.NotNil(t, tier.FeeRate)
		require.Equal(t, tc.rate, tier.FeeRate.String(), "score %d", tc.score)
		require.True(t, tier.Matches(tc.score))
	}
}
