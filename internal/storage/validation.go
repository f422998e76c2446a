package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/florinapp/florin/internal/common"
	"github.com/florinapp/florin/internal/model"
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("%w: nil context", common.ErrValidation)
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", common.ErrValidation, paramName)
	}
	return nil
}

// validateID ensures an identifier is positive.
func validateID(id int64, paramName string) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s must be positive", common.ErrValidation, paramName)
	}
	return nil
}

// validateCategory validates a category before it reaches the store.
func validateCategory(cat *model.Category) error {
	if cat == nil {
		return fmt.Errorf("%w: nil category", common.ErrValidation)
	}
	if strings.TrimSpace(cat.Name) == "" {
		return fmt.Errorf("%w: category name is required", common.ErrValidation)
	}
	if !cat.Kind.Valid() {
		return fmt.Errorf("%w: unknown category kind %q", common.ErrValidation, cat.Kind)
	}
	return nil
}

// validateTransaction validates a transaction. Agreement between the
// transaction kind and the referenced category's kind is deliberately not
// checked here; a mismatch is a recoverable display anomaly.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: nil transaction", common.ErrValidation)
	}
	if txn.CategoryID <= 0 {
		return fmt.Errorf("%w: transaction requires a category", common.ErrValidation)
	}
	if !txn.Kind.Valid() {
		return fmt.Errorf("%w: unknown transaction kind %q", common.ErrValidation, txn.Kind)
	}
	if txn.Amount.IsNegative() {
		return fmt.Errorf("%w: amount cannot be negative", common.ErrValidation)
	}
	if txn.OccurredOn.IsZero() {
		return fmt.Errorf("%w: transaction requires a date", common.ErrValidation)
	}
	if !txn.Via.Valid() {
		return fmt.Errorf("%w: unknown payment channel %q", common.ErrValidation, txn.Via)
	}
	return nil
}

// validateInvestment validates a legacy investment record.
func validateInvestment(inv *model.Investment) error {
	if inv == nil {
		return fmt.Errorf("%w: nil investment", common.ErrValidation)
	}
	if strings.TrimSpace(inv.Name) == "" {
		return fmt.Errorf("%w: investment name is required", common.ErrValidation)
	}
	return nil
}

// validateAsset validates an asset bucket.
func validateAsset(asset *model.Asset) error {
	if asset == nil {
		return fmt.Errorf("%w: nil asset", common.ErrValidation)
	}
	if strings.TrimSpace(asset.Name) == "" {
		return fmt.Errorf("%w: asset name is required", common.ErrValidation)
	}
	if !asset.Kind.Valid() {
		return fmt.Errorf("%w: unknown asset kind %q", common.ErrValidation, asset.Kind)
	}
	return nil
}

// validateGoal validates a goal.
func validateGoal(goal *model.Goal) error {
	if goal == nil {
		return fmt.Errorf("%w: nil goal", common.ErrValidation)
	}
	if goal.CategoryID <= 0 {
		return fmt.Errorf("%w: goal requires a category", common.ErrValidation)
	}
	if goal.TargetAmount.Sign() <= 0 {
		return fmt.Errorf("%w: goal target must be positive", common.ErrValidation)
	}
	return nil
}
