// Package derived keeps asset balances and goal progress consistent with
// transaction history. Recomputation is invoked explicitly by mutating
// callers rather than subscribed to the change bus, so the sync engine can
// batch-apply remote records without double-counting.
package derived

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/florinapp/florin/internal/model"
	"github.com/florinapp/florin/internal/service"
)

// Cache computes aggregates from the record store. It holds no state of its
// own; asset balances are written back through the store so views read them
// the same way as any other field.
type Cache struct {
	store service.Store
}

// New creates a cache over the given store.
func New(store service.Store) *Cache {
	return &Cache{store: store}
}

// ApplyTransaction adjusts the affected asset's balance by the transaction's
// signed amount: income increases the bucket, expense decreases it.
// Transactions with no payment channel, or with a channel whose bucket does
// not exist on this device, leave balances untouched.
func (c *Cache) ApplyTransaction(ctx context.Context, txn model.Transaction) error {
	return c.adjust(ctx, txn, txn.SignedAmount())
}

// ReverseTransaction undoes a transaction's prior effect on its asset. Call
// it with the pre-edit record before applying the edited one, and on delete.
func (c *Cache) ReverseTransaction(ctx context.Context, txn model.Transaction) error {
	return c.adjust(ctx, txn, txn.SignedAmount().Neg())
}

func (c *Cache) adjust(ctx context.Context, txn model.Transaction, delta decimal.Decimal) error {
	if txn.Via == model.ChannelNone {
		return nil
	}

	asset, err := c.store.GetAssetByKind(ctx, txn.Via.AssetKind())
	if err != nil {
		return err
	}
	if asset == nil {
		slog.Debug("no asset bucket for channel, skipping balance update", "via", txn.Via)
		return nil
	}

	balance := asset.Balance.Add(delta)
	return c.store.UpdateAsset(ctx, asset.ID, service.AssetPatch{Balance: &balance})
}

// RecomputeAsset rebuilds one asset's balance from the full transaction
// history for its channel. History is the source of truth: whenever an
// incremental delta and a recomputation could disagree, recomputation wins.
func (c *Cache) RecomputeAsset(ctx context.Context, kind model.AssetKind) error {
	asset, err := c.store.GetAssetByKind(ctx, kind)
	if err != nil {
		return err
	}
	if asset == nil {
		return nil
	}

	txns, err := c.store.ListTransactionsByChannel(ctx, kind.Channel())
	if err != nil {
		return err
	}

	balance := decimal.Zero
	for _, txn := range txns {
		balance = balance.Add(txn.SignedAmount())
	}

	if balance.Equal(asset.Balance) {
		return nil
	}

	slog.Debug("recomputed asset balance", "kind", kind, "balance", balance)
	return c.store.UpdateAsset(ctx, asset.ID, service.AssetPatch{Balance: &balance})
}

// RecomputeAll rebuilds every asset balance from history. The sync engine
// runs this after a pull instead of per-record deltas.
func (c *Cache) RecomputeAll(ctx context.Context) error {
	assets, err := c.store.ListAssets(ctx)
	if err != nil {
		return err
	}
	for _, asset := range assets {
		if err := c.RecomputeAsset(ctx, asset.Kind); err != nil {
			return fmt.Errorf("recompute %s: %w", asset.Kind, err)
		}
	}
	return nil
}

// GoalProgress returns the total spent against the goal's category.
func (c *Cache) GoalProgress(ctx context.Context, goal model.Goal) (decimal.Decimal, error) {
	txns, err := c.store.ListTransactionsByCategory(ctx, goal.CategoryID)
	if err != nil {
		return decimal.Zero, err
	}

	progress := decimal.Zero
	for _, txn := range txns {
		if txn.Kind == model.CategoryKindExpense {
			progress = progress.Add(txn.Amount)
		}
	}
	return progress, nil
}

// RefreshGoal recomputes a category's goal progress and marks the goal
// completed once progress reaches the target. Completion is never unset
// automatically. A category without a goal is a no-op.
func (c *Cache) RefreshGoal(ctx context.Context, categoryID int64) error {
	goal, err := c.store.GetGoalByCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if goal == nil || goal.Completed {
		return nil
	}

	progress, err := c.GoalProgress(ctx, *goal)
	if err != nil {
		return err
	}

	if progress.GreaterThanOrEqual(goal.TargetAmount) {
		completed := true
		return c.store.UpdateGoal(ctx, goal.ID, service.GoalPatch{Completed: &completed})
	}
	return nil
}

// RefreshGoals recomputes every goal, used after batch pulls.
func (c *Cache) RefreshGoals(ctx context.Context) error {
	goals, err := c.store.ListGoals(ctx)
	if err != nil {
		return err
	}
	for _, goal := range goals {
		if err := c.RefreshGoal(ctx, goal.CategoryID); err != nil {
			return fmt.Errorf("refresh goal %d: %w", goal.ID, err)
		}
	}
	return nil
}
