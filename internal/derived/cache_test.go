package derived_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florinapp/florin/internal/derived"
	"github.com/florinapp/florin/internal/model"
	"github.com/florinapp/florin/internal/service"
	"github.com/florinapp/florin/internal/storage"
	"github.com/florinapp/florin/internal/testutil"
)

func addTransaction(t *testing.T, store *storage.SQLiteStore, cache *derived.Cache, categoryID int64, kind model.CategoryKind, amount string, via model.Channel) model.Transaction {
	t.Helper()
	ctx := context.Background()

	txn := model.Transaction{
		CategoryID:  categoryID,
		Kind:        kind,
		Amount:      decimal.RequireFromString(amount),
		Description: "entry",
		Via:         via,
		OccurredOn:  time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.CreateTransaction(ctx, &txn))
	require.NoError(t, cache.ApplyTransaction(ctx, txn))
	return txn
}

func bankBalance(t *testing.T, store *storage.SQLiteStore) decimal.Decimal {
	t.Helper()
	asset, err := store.GetAssetByKind(context.Background(), model.AssetKindBank)
	require.NoError(t, err)
	require.NotNil(t, asset)
	return asset.Balance
}

func TestApplyTransaction(t *testing.T) {
	store := testutil.SetupTestStore(t)
	cache := derived.New(store)
	ctx := context.Background()

	salary := testutil.SeedCategory(t, store, "Salary", model.CategoryKindIncome)
	groceries := testutil.SeedCategory(t, store, "Groceries", model.CategoryKindExpense)
	testutil.SeedAsset(t, store, "Checking", model.AssetKindBank)

	t.Run("income raises and expense lowers the bucket", func(t *testing.T) {
		addTransaction(t, store, cache, salary.ID, model.CategoryKindIncome, "100", model.ChannelBank)
		addTransaction(t, store, cache, groceries.ID, model.CategoryKindExpense, "30", model.ChannelBank)

		assert.True(t, bankBalance(t, store).Equal(decimal.RequireFromString("70")),
			"got %s", bankBalance(t, store))
	})

	t.Run("no channel leaves balances untouched", func(t *testing.T) {
		before := bankBalance(t, store)
		addTransaction(t, store, cache, groceries.ID, model.CategoryKindExpense, "99", model.ChannelNone)
		assert.True(t, bankBalance(t, store).Equal(before))
	})

	t.Run("channel without a bucket is skipped", func(t *testing.T) {
		txn := model.Transaction{
			CategoryID:  groceries.ID,
			Kind:        model.CategoryKindExpense,
			Amount:      decimal.RequireFromString("15"),
			Description: "cash buy",
			Via:         model.ChannelCash,
			OccurredOn:  time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, store.CreateTransaction(ctx, &txn))
		assert.NoError(t, cache.ApplyTransaction(ctx, txn))
	})
}

func TestReverseTransaction(t *testing.T) {
	store := testutil.SetupTestStore(t)
	cache := derived.New(store)
	ctx := context.Background()

	salary := testutil.SeedCategory(t, store, "Salary", model.CategoryKindIncome)
	groceries := testutil.SeedCategory(t, store, "Groceries", model.CategoryKindExpense)
	testutil.SeedAsset(t, store, "Checking", model.AssetKindBank)

	addTransaction(t, store, cache, salary.ID, model.CategoryKindIncome, "100", model.ChannelBank)
	expense := addTransaction(t, store, cache, groceries.ID, model.CategoryKindExpense, "30", model.ChannelBank)

	t.Run("deleting an expense restores the balance", func(t *testing.T) {
		require.NoError(t, store.DeleteTransaction(ctx, expense.ID))
		require.NoError(t, cache.ReverseTransaction(ctx, expense))

		assert.True(t, bankBalance(t, store).Equal(decimal.RequireFromString("100")))
	})

	t.Run("edit as reverse-then-apply lands on the new amount", func(t *testing.T) {
		txn := addTransaction(t, store, cache, groceries.ID, model.CategoryKindExpense, "25.25", model.ChannelBank)
		require.True(t, bankBalance(t, store).Equal(decimal.RequireFromString("74.75")))

		prior := txn
		newAmount := decimal.RequireFromString("10.10")
		require.NoError(t, store.UpdateTransaction(ctx, txn.ID, service.TransactionPatch{Amount: &newAmount}))
		txn.Amount = newAmount

		require.NoError(t, cache.ReverseTransaction(ctx, prior))
		require.NoError(t, cache.ApplyTransaction(ctx, txn))

		assert.True(t, bankBalance(t, store).Equal(decimal.RequireFromString("89.90")),
			"got %s", bankBalance(t, store))
	})
}

func TestRecomputeAsset(t *testing.T) {
	store := testutil.SetupTestStore(t)
	cache := derived.New(store)
	ctx := context.Background()

	salary := testutil.SeedCategory(t, store, "Salary", model.CategoryKindIncome)
	groceries := testutil.SeedCategory(t, store, "Groceries", model.CategoryKindExpense)
	asset := testutil.SeedAsset(t, store, "Checking", model.AssetKindBank)

	addTransaction(t, store, cache, salary.ID, model.CategoryKindIncome, "250.50", model.ChannelBank)
	addTransaction(t, store, cache, groceries.ID, model.CategoryKindExpense, "50.25", model.ChannelBank)

	t.Run("recomputation agrees with incremental deltas", func(t *testing.T) {
		require.NoError(t, cache.RecomputeAsset(ctx, model.AssetKindBank))
		assert.True(t, bankBalance(t, store).Equal(decimal.RequireFromString("200.25")))
	})

	t.Run("recomputation repairs a drifted balance", func(t *testing.T) {
		bogus := decimal.RequireFromString("9999")
		require.NoError(t, store.UpdateAsset(ctx, asset.ID, service.AssetPatch{Balance: &bogus}))

		require.NoError(t, cache.RecomputeAsset(ctx, model.AssetKindBank))
		assert.True(t, bankBalance(t, store).Equal(decimal.RequireFromString("200.25")))
	})

	t.Run("missing bucket is a no-op", func(t *testing.T) {
		assert.NoError(t, cache.RecomputeAsset(ctx, model.AssetKindInvestment))
	})
}

func TestRecomputeAll(t *testing.T) {
	store := testutil.SetupTestStore(t)
	cache := derived.New(store)
	ctx := context.Background()

	salary := testutil.SeedCategory(t, store, "Salary", model.CategoryKindIncome)
	groceries := testutil.SeedCategory(t, store, "Groceries", model.CategoryKindExpense)
	testutil.SeedAsset(t, store, "Checking", model.AssetKindBank)
	testutil.SeedAsset(t, store, "Wallet", model.AssetKindCash)

	addTransaction(t, store, cache, salary.ID, model.CategoryKindIncome, "300", model.ChannelBank)
	addTransaction(t, store, cache, groceries.ID, model.CategoryKindExpense, "20", model.ChannelCash)

	require.NoError(t, cache.RecomputeAll(ctx))

	assert.True(t, bankBalance(t, store).Equal(decimal.RequireFromString("300")))

	wallet, err := store.GetAssetByKind(ctx, model.AssetKindCash)
	require.NoError(t, err)
	require.NotNil(t, wallet)
	assert.True(t, wallet.Balance.Equal(decimal.RequireFromString("-20")))
}

func TestGoalProgress(t *testing.T) {
	store := testutil.SetupTestStore(t)
	cache := derived.New(store)
	ctx := context.Background()

	groceries := testutil.SeedCategory(t, store, "Groceries", model.CategoryKindExpense)

	addTransaction(t, store, cache, groceries.ID, model.CategoryKindExpense, "30", model.ChannelNone)
	addTransaction(t, store, cache, groceries.ID, model.CategoryKindExpense, "20.50", model.ChannelNone)
	// Income in the same category does not count toward spending.
	addTransaction(t, store, cache, groceries.ID, model.CategoryKindIncome, "5", model.ChannelNone)

	goal := model.Goal{CategoryID: groceries.ID, TargetAmount: decimal.RequireFromString("100")}
	require.NoError(t, store.CreateGoal(ctx, &goal))

	progress, err := cache.GoalProgress(ctx, goal)
	require.NoError(t, err)
	assert.True(t, progress.Equal(decimal.RequireFromString("50.50")), "got %s", progress)
}

func TestRefreshGoal(t *testing.T) {
	store := testutil.SetupTestStore(t)
	cache := derived.New(store)
	ctx := context.Background()

	groceries := testutil.SeedCategory(t, store, "Groceries", model.CategoryKindExpense)

	goal := model.Goal{CategoryID: groceries.ID, TargetAmount: decimal.RequireFromString("50")}
	require.NoError(t, store.CreateGoal(ctx, &goal))

	t.Run("below target stays incomplete", func(t *testing.T) {
		addTransaction(t, store, cache, groceries.ID, model.CategoryKindExpense, "40", model.ChannelNone)
		require.NoError(t, cache.RefreshGoal(ctx, groceries.ID))

		got, err := store.GetGoal(ctx, goal.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.False(t, got.Completed)
	})

	t.Run("reaching target marks completion", func(t *testing.T) {
		addTransaction(t, store, cache, groceries.ID, model.CategoryKindExpense, "10", model.ChannelNone)
		require.NoError(t, cache.RefreshGoal(ctx, groceries.ID))

		got, err := store.GetGoal(ctx, goal.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Completed)
	})

	t.Run("completion is never unset automatically", func(t *testing.T) {
		txns, err := store.ListTransactionsByCategory(ctx, groceries.ID)
		require.NoError(t, err)
		for _, txn := range txns {
			require.NoError(t, store.DeleteTransaction(ctx, txn.ID))
		}

		require.NoError(t, cache.RefreshGoal(ctx, groceries.ID))

		got, err := store.GetGoal(ctx, goal.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Completed, "completion survives history edits")
	})

	t.Run("category without a goal is a no-op", func(t *testing.T) {
		other := testutil.SeedCategory(t, store, "Rent", model.CategoryKindExpense)
		assert.NoError(t, cache.RefreshGoal(ctx, other.ID))
	})
}
