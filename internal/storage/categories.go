package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/florinapp/florin/internal/common"
	"github.com/florinapp/florin/internal/model"
	"github.com/florinapp/florin/internal/service"
)

// ListCategories returns all categories.
func (s *SQLiteStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, owner_key, kind, name, icon, color, created_at
		FROM categories
		ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.OwnerKey, &cat.Kind, &cat.Name, &cat.Icon, &cat.Color, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// GetCategory returns a category by id, or nil when the id does not resolve.
// A dangling reference is not an error; callers render it as Uncategorized.
func (s *SQLiteStore) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, owner_key, kind, name, icon, color, created_at
		FROM categories
		WHERE id = ?`

	var cat model.Category
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&cat.ID, &cat.OwnerKey, &cat.Kind, &cat.Name, &cat.Icon, &cat.Color, &cat.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}

	return &cat, nil
}

// CreateCategory persists a new category. A zero id is assigned by the store
// (local-origin records); a non-zero id is preserved so that identifiers
// remain stable across a push/pull round trip (remote-origin records).
func (s *SQLiteStore) CreateCategory(ctx context.Context, cat *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(cat); err != nil {
		return err
	}

	if cat.CreatedAt.IsZero() {
		cat.CreatedAt = time.Now().UTC()
	}

	if cat.ID == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO categories (owner_key, kind, name, icon, color, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			cat.OwnerKey, cat.Kind, cat.Name, cat.Icon, cat.Color, cat.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert category: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get category id: %w", err)
		}
		cat.ID = id
	} else {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO categories (id, owner_key, kind, name, icon, color, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			cat.ID, cat.OwnerKey, cat.Kind, cat.Name, cat.Icon, cat.Color, cat.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert category: %w", err)
		}
	}

	s.notify(model.KindCategory)
	return nil
}

// UpdateCategory applies a partial update. Updating an absent id reports
// ErrNotFound and never creates a record.
func (s *SQLiteStore) UpdateCategory(ctx context.Context, id int64, patch service.CategoryPatch) error {
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
	if patch.Icon != nil {
		set, args = append(set, "icon = ?"), append(args, *patch.Icon)
	}
	if patch.Color != nil {
		set, args = append(set, "color = ?"), append(args, *patch.Color)
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		"UPDATE categories SET "+joinSet(set)+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("category %d: %w", id, common.ErrNotFound)
	}

	s.notify(model.KindCategory)
	return nil
}

// PutCategory writes the full record, creating it if absent and otherwise
// overwriting every field. This is the upsert the sync engine applies on
// pull; remote is authoritative at whole-record granularity.
func (s *SQLiteStore) PutCategory(ctx context.Context, cat model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(cat.ID, "id"); err != nil {
		return err
	}
	if err := validateCategory(&cat); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO categories (id, owner_key, kind, name, icon, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cat.ID, cat.OwnerKey, cat.Kind, cat.Name, cat.Icon, cat.Color, cat.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert category: %w", err)
	}

	s.notify(model.KindCategory)
	return nil
}

// DeleteCategory removes a category. Deleting an absent id succeeds
// silently; deletion is idempotent.
func (s *SQLiteStore) DeleteCategory(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.notify(model.KindCategory)
	return nil
}

// joinSet joins SET clauses for a dynamic UPDATE.
func joinSet(set []string) string {
	out := set[0]
	for _, s := range set[1:] {
		out += ", " + s
	}
	return out
}
