package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/florinapp/florin/internal/common"
	"github.com/florinapp/florin/internal/model"
	"github.com/florinapp/florin/internal/service"
)

// ListInvestments returns all legacy investment records.
func (s *SQLiteStore) ListInvestments(ctx context.Context) ([]model.Investment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_key, name, notes, amount, created_at
		FROM investments
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query investments: %w", err)
	}
	defer rows.Close()

	var invs []model.Investment
	for rows.Next() {
		var inv model.Investment
		var amount string
		if err := rows.Scan(&inv.ID, &inv.OwnerKey, &inv.Name, &inv.Notes, &amount, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan investment: %w", err)
		}
		inv.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("corrupt amount %q: %w", amount, err)
		}
		invs = append(invs, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investments: %w", err)
	}
	return invs, nil
}

// GetInvestment returns an investment by id, or nil when absent.
func (s *SQLiteStore) GetInvestment(ctx context.Context, id int64) (*model.Investment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}

	var inv model.Investment
	var amount string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_key, name, notes, amount, created_at
		FROM investments
		WHERE id = ?`, id).Scan(&inv.ID, &inv.OwnerKey, &inv.Name, &inv.Notes, &amount, &inv.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query investment: %w", err)
	}

	inv.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount %q: %w", amount, err)
	}
	return &inv, nil
}

// CreateInvestment persists a new investment record.
func (s *SQLiteStore) CreateInvestment(ctx context.Context, inv *model.Investment) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateInvestment(inv); err != nil {
		return err
	}

	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}

	if inv.ID == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO investments (owner_key, name, notes, amount, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			inv.OwnerKey, inv.Name, inv.Notes, inv.Amount.String(), inv.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert investment: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get investment id: %w", err)
		}
		inv.ID = id
	} else {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO investments (id, owner_key, name, notes, amount, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			inv.ID, inv.OwnerKey, inv.Name, inv.Notes, inv.Amount.String(), inv.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert investment: %w", err)
		}
	}

	s.notify(model.KindInvestment)
	return nil
}

// UpdateInvestment applies a partial update; absent ids report ErrNotFound.
func (s *SQLiteStore) UpdateInvestment(ctx context.Context, id int64, patch service.InvestmentPatch) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	set, args := []string{}, []any{}
	if patch.Name != nil {
		if err := validateString(*patch.Name, "name"); err != nil {
			return err
		}
		set, args = append(set, "name = ?"), append(args, *patch.Name)
	}
	if patch.Notes != nil {
		set, args = append(set, "notes = ?"), append(args, *patch.Notes)
	}
	if patch.Amount != nil {
		set, args = append(set, "amount = ?"), append(args, patch.Amount.String())
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		"UPDATE investments SET "+joinSet(set)+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update investment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("investment %d: %w", id, common.ErrNotFound)
	}

	s.notify(model.KindInvestment)
	return nil
}

// PutInvestment writes the full record, creating or overwriting it.
func (s *SQLiteStore) PutInvestment(ctx context.Context, inv model.Investment) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(inv.ID, "id"); err != nil {
		return err
	}
	if err := validateInvestment(&inv); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO investments (id, owner_key, name, notes, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.OwnerKey, inv.Name, inv.Notes, inv.Amount.String(), inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert investment: %w", err)
	}

	s.notify(model.KindInvestment)
	return nil
}

// DeleteInvestment removes an investment; deletion is idempotent.
func (s *SQLiteStore) DeleteInvestment(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM investments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete investment: %w", err)
	}

	s.notify(model.KindInvestment)
	return nil
}
