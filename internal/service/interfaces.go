// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/florinapp/florin/internal/model"
)

// CategoryPatch carries the fields an update may change on a category.
// Nil fields are left untouched.
type CategoryPatch struct {
	Name  *string
	Icon  *string
	Color *string
}

// TransactionPatch carries the fields an update may change on a transaction.
type TransactionPatch struct {
	CategoryID  *int64
	Amount      *decimal.Decimal
	Description *string
	OccurredOn  *time.Time
	Via         *model.Channel
}

// InvestmentPatch carries the fields an update may change on an investment.
type InvestmentPatch struct {
	Name   *string
	Notes  *string
	Amount *decimal.Decimal
}

// AssetPatch carries the fields an update may change on an asset.
type AssetPatch struct {
	Name    *string
	Color   *string
	Balance *decimal.Decimal
}

// GoalPatch carries the fields an update may change on a goal.
type GoalPatch struct {
	TargetAmount *decimal.Decimal
	Completed    *bool
}

// Store defines the contract for the on-device record store. All mutating
// operations persist synchronously before returning and publish exactly one
// change event for their entity kind.
type Store interface {
	// Category operations
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	CreateCategory(ctx context.Context, cat *model.Category) error
	UpdateCategory(ctx context.Context, id int64, patch CategoryPatch) error
	PutCategory(ctx context.Context, cat model.Category) error
	DeleteCategory(ctx context.Context, id int64) error

	// Transaction operations
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
	ListTransactionsByChannel(ctx context.Context, via model.Channel) ([]model.Transaction, error)
	ListTransactionsByCategory(ctx context.Context, categoryID int64) ([]model.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (*model.Transaction, error)
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	UpdateTransaction(ctx context.Context, id int64, patch TransactionPatch) error
	PutTransaction(ctx context.Context, txn model.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error

	// Investment operations
	ListInvestments(ctx context.Context) ([]model.Investment, error)
	GetInvestment(ctx context.Context, id int64) (*model.Investment, error)
	CreateInvestment(ctx context.Context, inv *model.Investment) error
	UpdateInvestment(ctx context.Context, id int64, patch InvestmentPatch) error
	PutInvestment(ctx context.Context, inv model.Investment) error
	DeleteInvestment(ctx context.Context, id int64) error

	// Asset operations
	ListAssets(ctx context.Context) ([]model.Asset, error)
	GetAsset(ctx context.Context, id int64) (*model.Asset, error)
	GetAssetByKind(ctx context.Context, kind model.AssetKind) (*model.Asset, error)
	CreateAsset(ctx context.Context, asset *model.Asset) error
	UpdateAsset(ctx context.Context, id int64, patch AssetPatch) error
	PutAsset(ctx context.Context, asset model.Asset) error
	DeleteAsset(ctx context.Context, id int64) error

	// Goal operations
	ListGoals(ctx context.Context) ([]model.Goal, error)
	GetGoal(ctx context.Context, id int64) (*model.Goal, error)
	GetGoalByCategory(ctx context.Context, categoryID int64) (*model.Goal, error)
	CreateGoal(ctx context.Context, goal *model.Goal) error
	UpdateGoal(ctx context.Context, id int64, patch GoalPatch) error
	PutGoal(ctx context.Context, goal model.Goal) error
	DeleteGoal(ctx context.Context, id int64) error

	// Profile operations
	GetProfile(ctx context.Context) (*model.Profile, error)
	SaveProfile(ctx context.Context, profile model.Profile) error

	// Settings operations
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// SyncResult reports the outcome of one push or pull operation. Sync is
// record-at-a-time: successes are kept even when other records fail.
type SyncResult struct {
	CompletedAt time.Time
	Message     string
	Errors      []string
	Pushed      int
	Pulled      int
	Failed      int
}

// OK reports whether the operation completed without any record failure.
func (r SyncResult) OK() bool {
	return r.Failed == 0
}

// SyncStatus is the sync state exposed to the presentation layer.
type SyncStatus struct {
	LastSyncAt time.Time
	LastResult *SyncResult
	InFlight   bool
}
