package syncer_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florinapp/florin/internal/common"
	"github.com/florinapp/florin/internal/derived"
	"github.com/florinapp/florin/internal/model"
	"github.com/florinapp/florin/internal/remote"
	"github.com/florinapp/florin/internal/storage"
	"github.com/florinapp/florin/internal/syncer"
	"github.com/florinapp/florin/internal/testutil"
)

const testOwner = "user-123"

func newEngine(t *testing.T) (*syncer.Engine, *storage.SQLiteStore, *remote.MockService) {
	t.Helper()
	store := testutil.SetupTestStore(t)
	svc := remote.NewMockService()
	engine := syncer.New(store, svc, derived.New(store))
	engine.SetOwner(testOwner)
	return engine, store, svc
}

func seedExpense(t *testing.T, store *storage.SQLiteStore, categoryID int64, amount string) model.Transaction {
	t.Helper()
	txn := model.Transaction{
		CategoryID:  categoryID,
		Kind:        model.CategoryKindExpense,
		Amount:      decimal.RequireFromString(amount),
		Description: "seed",
		Via:         model.ChannelNone,
		OccurredOn:  time.Date(2026, time.August, 21, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.CreateTransaction(context.Background(), &txn))
	return txn
}

func TestPush(t *testing.T) {
	t.Run("uploads every local record stamped with the owner", func(t *testing.T) {
		engine, store, svc := newEngine(t)
		ctx := context.Background()

		cat := testutil.SeedCategory(t, store, "Food", model.CategoryKindExpense)
		seedExpense(t, store, cat.ID, "50")

		result := engine.Push(ctx)
		require.True(t, result.OK(), "errors: %v", result.Errors)
		assert.Equal(t, 2, result.Pushed)

		assert.Equal(t, 1, svc.RecordCount(model.KindCategory, testOwner))
		assert.Equal(t, 1, svc.RecordCount(model.KindTransaction, testOwner))
		for _, call := range svc.UpsertCalls {
			assert.Equal(t, testOwner, call.Record.Owner)
		}
	})

	t.Run("repeated pushes do not duplicate remote records", func(t *testing.T) {
		engine, store, svc := newEngine(t)
		ctx := context.Background()

		testutil.SeedCategory(t, store, "Food", model.CategoryKindExpense)

		require.True(t, engine.Push(ctx).OK())
		require.True(t, engine.Push(ctx).OK())

		assert.Equal(t, 1, svc.RecordCount(model.KindCategory, testOwner))
	})

	t.Run("fails without an owner", func(t *testing.T) {
		engine, _, _ := newEngine(t)
		engine.SetOwner("")

		result := engine.Push(context.Background())
		assert.False(t, result.OK())
	})

	t.Run("keeps per-record successes when one record fails", func(t *testing.T) {
		engine, store, svc := newEngine(t)
		ctx := context.Background()

		testutil.SeedCategory(t, store, "Good", model.CategoryKindExpense)
		bad := testutil.SeedCategory(t, store, "Bad", model.CategoryKindExpense)

		svc.UpsertFn = func(_ context.Context, kind model.Kind, rec remote.Record) error {
			if kind == model.KindCategory && rec.ID == bad.ID {
				return fmt.Errorf("record rejected: %w", common.ErrNetwork)
			}
			return nil
		}

		result := engine.Push(ctx)
		assert.Equal(t, 1, result.Pushed)
		assert.Equal(t, 1, result.Failed)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], fmt.Sprintf("%d", bad.ID))
	})

	t.Run("clears the initial sync flag on full success", func(t *testing.T) {
		engine, store, _ := newEngine(t)
		ctx := context.Background()

		require.NoError(t, store.SetSetting(ctx, storage.SettingInitialSyncPending, "true"))
		testutil.SeedCategory(t, store, "Food", model.CategoryKindExpense)

		require.True(t, engine.Push(ctx).OK())

		flag, err := store.GetSetting(ctx, storage.SettingInitialSyncPending)
		require.NoError(t, err)
		assert.Equal(t, "false", flag)
	})

	t.Run("reports progress per record", func(t *testing.T) {
		engine, store, _ := newEngine(t)
		ctx := context.Background()

		testutil.SeedCategory(t, store, "A", model.CategoryKindExpense)
		testutil.SeedCategory(t, store, "B", model.CategoryKindExpense)

		var calls []int
		engine.Progress = func(done, total int) {
			assert.Equal(t, 2, total)
			calls = append(calls, done)
		}

		require.True(t, engine.Push(ctx).OK())
		assert.Equal(t, []int{1, 2}, calls)
	})
}

func TestPull(t *testing.T) {
	t.Run("applies remote records with stable identifiers", func(t *testing.T) {
		engine, store, svc := newEngine(t)
		ctx := context.Background()

		fields, err := json.Marshal(model.Category{
			Name: "Remote Groceries", Kind: model.CategoryKindExpense, CreatedAt: time.Now().UTC(),
		})
		require.NoError(t, err)
		require.NoError(t, svc.Upsert(ctx, model.KindCategory,
			remote.Record{ID: 77, Owner: testOwner, Fields: fields}))

		result := engine.Pull(ctx)
		require.True(t, result.OK(), "errors: %v", result.Errors)
		assert.Equal(t, 1, result.Pulled)

		got, err := store.GetCategory(ctx, 77)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Remote Groceries", got.Name)
		assert.Equal(t, testOwner, got.OwnerKey)
	})

	t.Run("remote record overwrites the local copy whole", func(t *testing.T) {
		engine, store, svc := newEngine(t)
		ctx := context.Background()

		local := model.Category{ID: 5, Name: "Old Name", Kind: model.CategoryKindExpense, Color: "#111111"}
		require.NoError(t, store.PutCategory(ctx, local))

		fields, err := json.Marshal(model.Category{
			Name: "New Name", Kind: model.CategoryKindExpense, CreatedAt: time.Now().UTC(),
		})
		require.NoError(t, err)
		require.NoError(t, svc.Upsert(ctx, model.KindCategory,
			remote.Record{ID: 5, Owner: testOwner, Fields: fields}))

		require.True(t, engine.Pull(ctx).OK())

		got, err := store.GetCategory(ctx, 5)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "New Name", got.Name)
		assert.Empty(t, got.Color, "pull replaces the whole record")
	})

	t.Run("recomputes balances once after the batch", func(t *testing.T) {
		engine, store, svc := newEngine(t)
		ctx := context.Background()

		cat := testutil.SeedCategory(t, store, "Salary", model.CategoryKindIncome)
		testutil.SeedAsset(t, store, "Checking", model.AssetKindBank)

		for i, amount := range []string{"100", "200.50"} {
			fields, err := json.Marshal(model.Transaction{
				CategoryID: cat.ID,
				Kind:       model.CategoryKindIncome,
				Amount:     decimal.RequireFromString(amount),
				Via:        model.ChannelBank,
				OccurredOn: time.Date(2026, time.August, 22, 0, 0, 0, 0, time.UTC),
				CreatedAt:  time.Now().UTC(),
			})
			require.NoError(t, err)
			require.NoError(t, svc.Upsert(ctx, model.KindTransaction,
				remote.Record{ID: int64(100 + i), Owner: testOwner, Fields: fields}))
		}

		require.True(t, engine.Pull(ctx).OK())

		asset, err := store.GetAssetByKind(ctx, model.AssetKindBank)
		require.NoError(t, err)
		require.NotNil(t, asset)
		assert.True(t, asset.Balance.Equal(decimal.RequireFromString("300.50")),
			"got %s", asset.Balance)
	})

	t.Run("ignores records owned by other users", func(t *testing.T) {
		engine, store, svc := newEngine(t)
		ctx := context.Background()

		fields, err := json.Marshal(model.Category{Name: "Foreign", Kind: model.CategoryKindExpense})
		require.NoError(t, err)
		require.NoError(t, svc.Upsert(ctx, model.KindCategory,
			remote.Record{ID: 1, Owner: "someone-else", Fields: fields}))

		result := engine.Pull(ctx)
		require.True(t, result.OK())
		assert.Zero(t, result.Pulled)

		cats, err := store.ListCategories(ctx)
		require.NoError(t, err)
		assert.Empty(t, cats)
	})
}

func TestSync(t *testing.T) {
	t.Run("push then pull round trip keeps exactly one record", func(t *testing.T) {
		engine, store, svc := newEngine(t)
		ctx := context.Background()

		cat := testutil.SeedCategory(t, store, "Food", model.CategoryKindExpense)
		txn := seedExpense(t, store, cat.ID, "50")

		result, err := engine.Sync(ctx)
		require.NoError(t, err)
		require.True(t, result.OK(), "errors: %v", result.Errors)
		assert.Equal(t, 2, result.Pushed)
		assert.Equal(t, 2, result.Pulled)

		// A second cycle must not multiply records on either side.
		result, err = engine.Sync(ctx)
		require.NoError(t, err)
		require.True(t, result.OK())

		txns, err := store.ListTransactions(ctx)
		require.NoError(t, err)
		require.Len(t, txns, 1)
		assert.Equal(t, txn.ID, txns[0].ID)
		assert.True(t, txns[0].Amount.Equal(decimal.RequireFromString("50")))
		assert.Equal(t, 1, svc.RecordCount(model.KindTransaction, testOwner))
	})

	t.Run("skips pull when push does not complete", func(t *testing.T) {
		engine, store, svc := newEngine(t)
		ctx := context.Background()

		testutil.SeedCategory(t, store, "Food", model.CategoryKindExpense)

		svc.UpsertFn = func(context.Context, model.Kind, remote.Record) error {
			return common.ErrNetwork
		}

		result, err := engine.Sync(ctx)
		require.NoError(t, err)
		assert.False(t, result.OK())
		assert.Zero(t, result.Pulled)
		assert.Contains(t, result.Errors, "pull skipped: push did not complete")
		assert.Zero(t, svc.SelectAllCalls)
	})

	t.Run("rejects a cycle while another is in flight", func(t *testing.T) {
		engine, store, svc := newEngine(t)
		ctx := context.Background()

		testutil.SeedCategory(t, store, "Food", model.CategoryKindExpense)

		entered := make(chan struct{})
		release := make(chan struct{})
		svc.UpsertFn = func(context.Context, model.Kind, remote.Record) error {
			close(entered)
			<-release
			return nil
		}

		done := make(chan error, 1)
		go func() {
			_, err := engine.Sync(ctx)
			done <- err
		}()

		<-entered
		_, err := engine.Sync(ctx)
		assert.ErrorIs(t, err, common.ErrSyncInProgress)

		close(release)
		require.NoError(t, <-done)
	})

	t.Run("labels the first upload of pre-sign-in data", func(t *testing.T) {
		engine, store, _ := newEngine(t)
		ctx := context.Background()

		testutil.SeedCategory(t, store, "Food", model.CategoryKindExpense)
		require.NoError(t, engine.MarkInitialSyncIfNeeded(ctx))

		result, err := engine.Sync(ctx)
		require.NoError(t, err)
		require.True(t, result.OK(), "errors: %v", result.Errors)
		assert.True(t, strings.HasPrefix(result.Message, "initial upload:"), "message: %s", result.Message)

		// The flag is spent; the next cycle is an ordinary one.
		result, err = engine.Sync(ctx)
		require.NoError(t, err)
		assert.False(t, strings.HasPrefix(result.Message, "initial upload:"), "message: %s", result.Message)
	})

	t.Run("records the sync time on success", func(t *testing.T) {
		engine, store, _ := newEngine(t)
		ctx := context.Background()

		result, err := engine.Sync(ctx)
		require.NoError(t, err)
		require.True(t, result.OK())

		last, err := store.GetSetting(ctx, storage.SettingLastSyncAt)
		require.NoError(t, err)
		require.NotEmpty(t, last)
		_, perr := time.Parse(time.RFC3339, last)
		assert.NoError(t, perr)

		status := engine.Status()
		assert.False(t, status.LastSyncAt.IsZero())
		assert.False(t, status.InFlight)
	})

	t.Run("does not record the sync time on failure", func(t *testing.T) {
		engine, store, svc := newEngine(t)
		ctx := context.Background()

		testutil.SeedCategory(t, store, "Food", model.CategoryKindExpense)
		svc.UpsertFn = func(context.Context, model.Kind, remote.Record) error {
			return errors.New("boom")
		}

		result, err := engine.Sync(ctx)
		require.NoError(t, err)
		require.False(t, result.OK())

		last, gerr := store.GetSetting(ctx, storage.SettingLastSyncAt)
		require.NoError(t, gerr)
		assert.Empty(t, last)
	})
}

func TestMarkInitialSyncIfNeeded(t *testing.T) {
	t.Run("flags pre-authentication local data", func(t *testing.T) {
		engine, store, _ := newEngine(t)
		ctx := context.Background()

		cat := testutil.SeedCategory(t, store, "Food", model.CategoryKindExpense)
		seedExpense(t, store, cat.ID, "50")

		require.NoError(t, engine.MarkInitialSyncIfNeeded(ctx))

		flag, err := store.GetSetting(ctx, storage.SettingInitialSyncPending)
		require.NoError(t, err)
		assert.Equal(t, "true", flag)
	})

	t.Run("does nothing on an empty device", func(t *testing.T) {
		engine, store, _ := newEngine(t)
		ctx := context.Background()

		require.NoError(t, engine.MarkInitialSyncIfNeeded(ctx))

		flag, err := store.GetSetting(ctx, storage.SettingInitialSyncPending)
		require.NoError(t, err)
		assert.Empty(t, flag)
	})

	t.Run("does nothing after a previous sync", func(t *testing.T) {
		engine, store, _ := newEngine(t)
		ctx := context.Background()

		require.NoError(t, store.SetSetting(ctx, storage.SettingLastSyncAt,
			time.Now().UTC().Format(time.RFC3339)))
		testutil.SeedCategory(t, store, "Food", model.CategoryKindExpense)

		require.NoError(t, engine.MarkInitialSyncIfNeeded(ctx))

		flag, err := store.GetSetting(ctx, storage.SettingInitialSyncPending)
		require.NoError(t, err)
		assert.Empty(t, flag)
	})
}

func TestInitialSyncScenario(t *testing.T) {
	// Records created before sign-in survive the first cycle intact and
	// upload exactly once.
	engine, store, svc := newEngine(t)
	engine.SetOwner("")
	ctx := context.Background()

	cat := testutil.SeedCategory(t, store, "Food", model.CategoryKindExpense)
	txn := seedExpense(t, store, cat.ID, "50")

	// Sign-in happens later; the owner key arrives with it.
	engine.SetOwner(testOwner)
	require.NoError(t, engine.MarkInitialSyncIfNeeded(ctx))

	result, err := engine.Sync(ctx)
	require.NoError(t, err)
	require.True(t, result.OK(), "errors: %v", result.Errors)

	assert.Equal(t, 1, svc.RecordCount(model.KindTransaction, testOwner))

	got, err := store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("50")))
	assert.Equal(t, testOwner, got.OwnerKey, "owner stamped during the round trip")

	flag, err := store.GetSetting(ctx, storage.SettingInitialSyncPending)
	require.NoError(t, err)
	assert.Equal(t, "false", flag)
}
