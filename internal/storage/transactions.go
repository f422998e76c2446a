package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/florinapp/florin/internal/common"
	"github.com/florinapp/florin/internal/model"
	"github.com/florinapp/florin/internal/service"
)

const transactionColumns = `id, owner_key, category_id, kind, amount, description, occurred_on, via, created_at`

func scanTransaction(scan func(dest ...any) error) (model.Transaction, error) {
	var txn model.Transaction
	var amount string
	err := scan(&txn.ID, &txn.OwnerKey, &txn.CategoryID, &txn.Kind, &amount,
		&txn.Description, &txn.OccurredOn, &txn.Via, &txn.CreatedAt)
	if err != nil {
		return txn, err
	}

	// Amounts round-trip through TEXT so repeated edits never accumulate
	// binary floating-point drift.
	txn.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return txn, fmt.Errorf("corrupt amount %q: %w", amount, err)
	}
	return txn, nil
}

func (s *SQLiteStore) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txns, nil
}

// ListTransactions returns all transactions, most recent first. Display
// ordering is a view concern; this default just matches what every view
// wants.
func (s *SQLiteStore) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	txns, err := s.queryTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		ORDER BY occurred_on DESC, id DESC`)
	if err != nil {
		return nil, err
	}

	slog.Debug("retrieved transactions", "count", len(txns))
	return txns, nil
}

// ListTransactionsByChannel returns the transactions settling against the
// given payment channel. This is the source-of-truth history for asset
// balance recomputation.
func (s *SQLiteStore) ListTransactionsByChannel(ctx context.Context, via model.Channel) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.queryTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE via = ?
		ORDER BY occurred_on DESC, id DESC`, via)
}

// ListTransactionsByCategory returns the transactions in a category, the
// history goal progress is computed from.
func (s *SQLiteStore) ListTransactionsByCategory(ctx context.Context, categoryID int64) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(categoryID, "categoryID"); err != nil {
		return nil, err
	}

	return s.queryTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE category_id = ?
		ORDER BY occurred_on DESC, id DESC`, categoryID)
}

// GetTransaction returns a transaction by id, or nil when absent.
func (s *SQLiteStore) GetTransaction(ctx context.Context, id int64) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = ?`, id)

	txn, err := scanTransaction(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}

	return &txn, nil
}

// CreateTransaction persists a new transaction, assigning an id unless the
// caller supplied one.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}

	if txn.ID == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO transactions (owner_key, category_id, kind, amount, description, occurred_on, via, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			txn.OwnerKey, txn.CategoryID, txn.Kind, txn.Amount.String(),
			txn.Description, txn.OccurredOn, txn.Via, txn.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get transaction id: %w", err)
		}
		txn.ID = id
	} else {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO transactions (id, owner_key, category_id, kind, amount, description, occurred_on, via, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			txn.ID, txn.OwnerKey, txn.CategoryID, txn.Kind, txn.Amount.String(),
			txn.Description, txn.OccurredOn, txn.Via, txn.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
	}

	s.notify(model.KindTransaction)
	return nil
}

// UpdateTransaction applies a partial update; absent ids report ErrNotFound.
func (s *SQLiteStore) UpdateTransaction(ctx context.Context, id int64, patch service.TransactionPatch) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	set, args := []string{}, []any{}
	if patch.CategoryID != nil {
		set, args = append(set, "category_id = ?"), append(args, *patch.CategoryID)
	}
	if patch.Amount != nil {
		if patch.Amount.IsNegative() {
			return fmt.Errorf("%w: amount cannot be negative", common.ErrValidation)
		}
		set, args = append(set, "amount = ?"), append(args, patch.Amount.String())
	}
	if patch.Description != nil {
		set, args = append(set, "description = ?"), append(args, *patch.Description)
	}
	if patch.OccurredOn != nil {
		set, args = append(set, "occurred_on = ?"), append(args, *patch.OccurredOn)
	}
	if patch.Via != nil {
		if !patch.Via.Valid() {
			return fmt.Errorf("%w: unknown payment channel %q", common.ErrValidation, *patch.Via)
		}
		set, args = append(set, "via = ?"), append(args, *patch.Via)
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET "+joinSet(set)+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %d: %w", id, common.ErrNotFound)
	}

	s.notify(model.KindTransaction)
	return nil
}

// PutTransaction writes the full record, creating or overwriting it.
func (s *SQLiteStore) PutTransaction(ctx context.Context, txn model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(txn.ID, "id"); err != nil {
		return err
	}
	if err := validateTransaction(&txn); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO transactions (id, owner_key, category_id, kind, amount, description, occurred_on, via, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.OwnerKey, txn.CategoryID, txn.Kind, txn.Amount.String(),
		txn.Description, txn.OccurredOn, txn.Via, txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert transaction: %w", err)
	}

	s.notify(model.KindTransaction)
	return nil
}

// DeleteTransaction removes a transaction; deleting an absent id succeeds
// silently.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	s.notify(model.KindTransaction)
	return nil
}
