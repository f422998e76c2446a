package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florinapp/florin/internal/common"
	"github.com/florinapp/florin/internal/model"
	"github.com/florinapp/florin/internal/service"
	"github.com/florinapp/florin/internal/testutil"
)

func TestCreateCategory(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	t.Run("assigns id when zero", func(t *testing.T) {
		cat := model.Category{Name: "Groceries", Kind: model.CategoryKindExpense, Icon: "cart"}
		require.NoError(t, store.CreateCategory(ctx, &cat))
		assert.NotZero(t, cat.ID)
		assert.False(t, cat.CreatedAt.IsZero())

		got, err := store.GetCategory(ctx, cat.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Groceries", got.Name)
		assert.Equal(t, model.CategoryKindExpense, got.Kind)
		assert.Equal(t, "cart", got.Icon)
	})

	t.Run("preserves caller-supplied id", func(t *testing.T) {
		cat := model.Category{ID: 9001, Name: "Salary", Kind: model.CategoryKindIncome}
		require.NoError(t, store.CreateCategory(ctx, &cat))
		assert.Equal(t, int64(9001), cat.ID)

		got, err := store.GetCategory(ctx, 9001)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Salary", got.Name)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		cat := model.Category{Name: "  ", Kind: model.CategoryKindExpense}
		err := store.CreateCategory(ctx, &cat)
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		cat := model.Category{Name: "Weird", Kind: "sideways"}
		err := store.CreateCategory(ctx, &cat)
		assert.ErrorIs(t, err, common.ErrValidation)
	})
}

func TestGetCategory(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	t.Run("missing id resolves to nil without error", func(t *testing.T) {
		got, err := store.GetCategory(ctx, 404)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("invalid id fails validation", func(t *testing.T) {
		_, err := store.GetCategory(ctx, 0)
		assert.ErrorIs(t, err, common.ErrValidation)
	})
}

func TestUpdateCategory(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	t.Run("changes only the patched fields", func(t *testing.T) {
		cat := testutil.SeedCategory(t, store, "Dining", model.CategoryKindExpense)

		name := "Dining Out"
		require.NoError(t, store.UpdateCategory(ctx, cat.ID, service.CategoryPatch{Name: &name}))

		got, err := store.GetCategory(ctx, cat.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Dining Out", got.Name)
		assert.Equal(t, model.CategoryKindExpense, got.Kind)
		assert.Equal(t, cat.Icon, got.Icon)
	})

	t.Run("empty patch is a no-op", func(t *testing.T) {
		cat := testutil.SeedCategory(t, store, "Rent", model.CategoryKindExpense)
		require.NoError(t, store.UpdateCategory(ctx, cat.ID, service.CategoryPatch{}))
	})

	t.Run("absent id reports not found and creates nothing", func(t *testing.T) {
		before, err := store.ListCategories(ctx)
		require.NoError(t, err)

		name := "Ghost"
		err = store.UpdateCategory(ctx, 777, service.CategoryPatch{Name: &name})
		assert.ErrorIs(t, err, common.ErrNotFound)

		after, err := store.ListCategories(ctx)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})
}

func TestPutCategory(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	t.Run("creates when absent", func(t *testing.T) {
		cat := model.Category{ID: 42, Name: "Travel", Kind: model.CategoryKindExpense}
		require.NoError(t, store.PutCategory(ctx, cat))

		got, err := store.GetCategory(ctx, 42)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Travel", got.Name)
	})

	t.Run("overwrites every field when present", func(t *testing.T) {
		require.NoError(t, store.PutCategory(ctx, model.Category{
			ID: 42, Name: "Trips", Kind: model.CategoryKindExpense, Color: "#00ff00",
		}))

		got, err := store.GetCategory(ctx, 42)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Trips", got.Name)
		assert.Equal(t, "#00ff00", got.Color)
	})

	t.Run("requires an id", func(t *testing.T) {
		err := store.PutCategory(ctx, model.Category{Name: "NoID", Kind: model.CategoryKindExpense})
		assert.ErrorIs(t, err, common.ErrValidation)
	})
}

func TestDeleteCategory(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	cat := testutil.SeedCategory(t, store, "Temp", model.CategoryKindExpense)

	require.NoError(t, store.DeleteCategory(ctx, cat.ID))

	got, err := store.GetCategory(ctx, cat.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting again is not an error.
	assert.NoError(t, store.DeleteCategory(ctx, cat.ID))
}

func TestListCategories(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	testutil.SeedCategory(t, store, "Utilities", model.CategoryKindExpense)
	testutil.SeedCategory(t, store, "Groceries", model.CategoryKindExpense)
	testutil.SeedCategory(t, store, "Salary", model.CategoryKindIncome)

	cats, err := store.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 3)

	// Sorted by name.
	assert.Equal(t, "Groceries", cats[0].Name)
	assert.Equal(t, "Salary", cats[1].Name)
	assert.Equal(t, "Utilities", cats[2].Name)
}
