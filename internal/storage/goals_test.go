package storage_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florinapp/florin/internal/common"
	"github.com/florinapp/florin/internal/model"
	"github.com/florinapp/florin/internal/service"
	"github.com/florinapp/florin/internal/testutil"
)

func TestCreateGoal(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	t.Run("creates a goal for a fresh category", func(t *testing.T) {
		cat := testutil.SeedCategory(t, store, "Dining", model.CategoryKindExpense)

		goal := model.Goal{CategoryID: cat.ID, TargetAmount: decimal.RequireFromString("200")}
		require.NoError(t, store.CreateGoal(ctx, &goal))
		assert.NotZero(t, goal.ID)

		got, err := store.GetGoalByCategory(ctx, cat.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.TargetAmount.Equal(decimal.RequireFromString("200")))
		assert.False(t, got.Completed)
	})

	t.Run("merges into the existing goal for the category", func(t *testing.T) {
		cat := testutil.SeedCategory(t, store, "Groceries", model.CategoryKindExpense)

		first := model.Goal{CategoryID: cat.ID, TargetAmount: decimal.RequireFromString("150")}
		require.NoError(t, store.CreateGoal(ctx, &first))

		// Mark completed so the merge can prove it resets the flag.
		completed := true
		require.NoError(t, store.UpdateGoal(ctx, first.ID, service.GoalPatch{Completed: &completed}))

		second := model.Goal{CategoryID: cat.ID, TargetAmount: decimal.RequireFromString("50")}
		require.NoError(t, store.CreateGoal(ctx, &second))

		assert.Equal(t, first.ID, second.ID)
		assert.True(t, second.TargetAmount.Equal(decimal.RequireFromString("200")))
		assert.False(t, second.Completed)

		goals, err := store.ListGoals(ctx)
		require.NoError(t, err)

		var forCategory int
		for _, g := range goals {
			if g.CategoryID == cat.ID {
				forCategory++
			}
		}
		assert.Equal(t, 1, forCategory, "merge must not create a second goal")
	})

	t.Run("rejects a non-positive target", func(t *testing.T) {
		cat := testutil.SeedCategory(t, store, "Rent", model.CategoryKindExpense)
		goal := model.Goal{CategoryID: cat.ID, TargetAmount: decimal.Zero}
		err := store.CreateGoal(ctx, &goal)
		assert.ErrorIs(t, err, common.ErrValidation)
	})
}

func TestUpdateGoal(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()
	cat := testutil.SeedCategory(t, store, "Travel", model.CategoryKindExpense)

	goal := model.Goal{CategoryID: cat.ID, TargetAmount: decimal.RequireFromString("500")}
	require.NoError(t, store.CreateGoal(ctx, &goal))

	t.Run("marks completion", func(t *testing.T) {
		completed := true
		require.NoError(t, store.UpdateGoal(ctx, goal.ID, service.GoalPatch{Completed: &completed}))

		got, err := store.GetGoal(ctx, goal.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Completed)
	})

	t.Run("absent id reports not found", func(t *testing.T) {
		target := decimal.RequireFromString("10")
		err := store.UpdateGoal(ctx, 404, service.GoalPatch{TargetAmount: &target})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("rejects a non-positive target", func(t *testing.T) {
		target := decimal.Zero
		err := store.UpdateGoal(ctx, goal.ID, service.GoalPatch{TargetAmount: &target})
		assert.ErrorIs(t, err, common.ErrValidation)
	})
}

func TestDeleteGoal(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()
	cat := testutil.SeedCategory(t, store, "Hobbies", model.CategoryKindExpense)

	goal := model.Goal{CategoryID: cat.ID, TargetAmount: decimal.RequireFromString("75")}
	require.NoError(t, store.CreateGoal(ctx, &goal))

	require.NoError(t, store.DeleteGoal(ctx, goal.ID))

	got, err := store.GetGoal(ctx, goal.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, store.DeleteGoal(ctx, goal.ID))
}
