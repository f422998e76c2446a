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

func scanGoal(scan func(dest ...any) error) (model.Goal, error) {
	var goal model.Goal
	var target string
	err := scan(&goal.ID, &goal.OwnerKey, &goal.CategoryID, &target, &goal.Completed, &goal.CreatedAt)
	if err != nil {
		return goal, err
	}
	goal.TargetAmount, err = decimal.NewFromString(target)
	if err != nil {
		return goal, fmt.Errorf("corrupt target %q: %w", target, err)
	}
	return goal, nil
}

// ListGoals returns all goals.
func (s *SQLiteStore) ListGoals(ctx context.Context) ([]model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_key, category_id, target_amount, completed, created_at
		FROM goals
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var goals []model.Goal
	for rows.Next() {
		goal, err := scanGoal(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, goal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goals: %w", err)
	}
	return goals, nil
}

// GetGoal returns a goal by id, or nil when absent.
func (s *SQLiteStore) GetGoal(ctx context.Context, id int64) (*model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_key, category_id, target_amount, completed, created_at
		FROM goals
		WHERE id = ?`, id)

	goal, err := scanGoal(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query goal: %w", err)
	}
	return &goal, nil
}

// GetGoalByCategory returns the goal for a category, or nil when the
// category has none. At most one goal exists per category.
func (s *SQLiteStore) GetGoalByCategory(ctx context.Context, categoryID int64) (*model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(categoryID, "categoryID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_key, category_id, target_amount, completed, created_at
		FROM goals
		WHERE category_id = ?`, categoryID)

	goal, err := scanGoal(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query goal: %w", err)
	}
	return &goal, nil
}

// CreateGoal persists a goal. If the category already has a goal, the
// existing goal's target is raised by the new amount instead of creating a
// duplicate; the passed goal is updated in place to reflect the merged
// record.
func (s *SQLiteStore) CreateGoal(ctx context.Context, goal *model.Goal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateGoal(goal); err != nil {
		return err
	}

	existing, err := s.GetGoalByCategory(ctx, goal.CategoryID)
	if err != nil {
		return err
	}
	if existing != nil {
		merged := existing.TargetAmount.Add(goal.TargetAmount)
		res, err := s.db.ExecContext(ctx,
			`UPDATE goals SET target_amount = ?, completed = 0 WHERE id = ?`,
			merged.String(), existing.ID)
		if err != nil {
			return fmt.Errorf("failed to raise goal target: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("goal %d: %w", existing.ID, common.ErrNotFound)
		}

		goal.ID = existing.ID
		goal.OwnerKey = existing.OwnerKey
		goal.TargetAmount = merged
		goal.Completed = false
		goal.CreatedAt = existing.CreatedAt

		slog.Debug("merged goal into existing", "category_id", goal.CategoryID, "target", merged)
		s.notify(model.KindGoal)
		return nil
	}

	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = time.Now().UTC()
	}

	if goal.ID == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO goals (owner_key, category_id, target_amount, completed, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			goal.OwnerKey, goal.CategoryID, goal.TargetAmount.String(), goal.Completed, goal.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert goal: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get goal id: %w", err)
		}
		goal.ID = id
	} else {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO goals (id, owner_key, category_id, target_amount, completed, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			goal.ID, goal.OwnerKey, goal.CategoryID, goal.TargetAmount.String(), goal.Completed, goal.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert goal: %w", err)
		}
	}

	s.notify(model.KindGoal)
	return nil
}

// UpdateGoal applies a partial update; absent ids report ErrNotFound.
func (s *SQLiteStore) UpdateGoal(ctx context.Context, id int64, patch service.GoalPatch) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	set, args := []string{}, []any{}
	if patch.TargetAmount != nil {
		if patch.TargetAmount.Sign() <= 0 {
			return fmt.Errorf("%w: goal target must be positive", common.ErrValidation)
		}
		set, args = append(set, "target_amount = ?"), append(args, patch.TargetAmount.String())
	}
	if patch.Completed != nil {
		set, args = append(set, "completed = ?"), append(args, *patch.Completed)
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		"UPDATE goals SET "+joinSet(set)+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("goal %d: %w", id, common.ErrNotFound)
	}

	s.notify(model.KindGoal)
	return nil
}

// PutGoal writes the full record, creating or overwriting it.
func (s *SQLiteStore) PutGoal(ctx context.Context, goal model.Goal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(goal.ID, "id"); err != nil {
		return err
	}
	if err := validateGoal(&goal); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO goals (id, owner_key, category_id, target_amount, completed, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		goal.ID, goal.OwnerKey, goal.CategoryID, goal.TargetAmount.String(), goal.Completed, goal.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert goal: %w", err)
	}

	s.notify(model.KindGoal)
	return nil
}

// DeleteGoal removes a goal; deletion is idempotent.
func (s *SQLiteStore) DeleteGoal(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}

	s.notify(model.KindGoal)
	return nil
}
