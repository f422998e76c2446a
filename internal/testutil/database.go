// Package testutil provides test utilities for the florin project: isolated
// in-memory stores with migrations applied and cleanup registered.
package testutil

import (
	"context"
	"testing"

	"github.com/florinapp/florin/internal/bus"
	"github.com/florinapp/florin/internal/model"
	"github.com/florinapp/florin/internal/storage"
)

// SetupTestStore creates a new in-memory store with migrations applied.
// It automatically handles cleanup.
func SetupTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	return SetupTestStoreWithBus(t, nil)
}

// SetupTestStoreWithBus creates an in-memory store wired to the given bus.
func SetupTestStoreWithBus(t *testing.T, changeBus *bus.Bus) *storage.SQLiteStore {
	t.Helper()

	store, err := storage.NewSQLiteStore(":memory:", changeBus)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// SeedCategory creates a category and fails the test on error.
func SeedCategory(t *testing.T, store *storage.SQLiteStore, name string, kind model.CategoryKind) model.Category {
	t.Helper()

	cat := model.Category{Name: name, Kind: kind}
	if err := store.CreateCategory(context.Background(), &cat); err != nil {
		t.Fatalf("failed to seed category %q: %v", name, err)
	}
	return cat
}

// SeedAsset creates an asset bucket and fails the test on error.
func SeedAsset(t *testing.T, store *storage.SQLiteStore, name string, kind model.AssetKind) model.Asset {
	t.Helper()

	asset := model.Asset{Name: name, Kind: kind}
	if err := store.CreateAsset(context.Background(), &asset); err != nil {
		t.Fatalf("failed to seed asset %q: %v", name, err)
	}
	return asset
}
