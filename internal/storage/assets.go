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

func scanAsset(scan func(dest ...any) error) (model.Asset, error) {
	var asset model.Asset
	var balance string
	err := scan(&asset.ID, &asset.Kind, &asset.Name, &asset.Color, &balance, &asset.CreatedAt)
	if err != nil {
		return asset, err
	}
	asset.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return asset, fmt.Errorf("corrupt balance %q: %w", balance, err)
	}
	return asset, nil
}

// ListAssets returns all asset buckets.
func (s *SQLiteStore) ListAssets(ctx context.Context) ([]model.Asset, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, name, color, balance, created_at
		FROM assets
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var assets []model.Asset
	for rows.Next() {
		asset, err := scanAsset(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}
	return assets, nil
}

// GetAsset returns an asset by id, or nil when absent.
func (s *SQLiteStore) GetAsset(ctx context.Context, id int64) (*model.Asset, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, name, color, balance, created_at
		FROM assets
		WHERE id = ?`, id)

	asset, err := scanAsset(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query asset: %w", err)
	}
	return &asset, nil
}

// GetAssetByKind returns the bucket for a given asset kind, or nil when the
// device has not created one. At most one bucket exists per kind.
func (s *SQLiteStore) GetAssetByKind(ctx context.Context, kind model.AssetKind) (*model.Asset, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown asset kind %q", common.ErrValidation, kind)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, name, color, balance, created_at
		FROM assets
		WHERE kind = ?`, kind)

	asset, err := scanAsset(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query asset: %w", err)
	}
	return &asset, nil
}

// CreateAsset persists a new asset bucket.
func (s *SQLiteStore) CreateAsset(ctx context.Context, asset *model.Asset) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAsset(asset); err != nil {
		return err
	}

	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now().UTC()
	}

	if asset.ID == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO assets (kind, name, color, balance, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			asset.Kind, asset.Name, asset.Color, asset.Balance.String(), asset.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert asset: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get asset id: %w", err)
		}
		asset.ID = id
	} else {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO assets (id, kind, name, color, balance, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			asset.ID, asset.Kind, asset.Name, asset.Color, asset.Balance.String(), asset.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert asset: %w", err)
		}
	}

	s.notify(model.KindAsset)
	return nil
}

// UpdateAsset applies a partial update; absent ids report ErrNotFound.
// Balance updates normally come from the derived-state cache, not callers.
func (s *SQLiteStore) UpdateAsset(ctx context.Context, id int64, patch service.AssetPatch) error {
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
	if patch.Color != nil {
		set, args = append(set, "color = ?"), append(args, *patch.Color)
	}
	if patch.Balance != nil {
		set, args = append(set, "balance = ?"), append(args, patch.Balance.String())
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		"UPDATE assets SET "+joinSet(set)+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("asset %d: %w", id, common.ErrNotFound)
	}

	s.notify(model.KindAsset)
	return nil
}

// PutAsset writes the full record, creating or overwriting it.
func (s *SQLiteStore) PutAsset(ctx context.Context, asset model.Asset) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(asset.ID, "id"); err != nil {
		return err
	}
	if err := validateAsset(&asset); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO assets (id, kind, name, color, balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		asset.ID, asset.Kind, asset.Name, asset.Color, asset.Balance.String(), asset.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert asset: %w", err)
	}

	s.notify(model.KindAsset)
	return nil
}

// DeleteAsset removes an asset bucket; deletion is idempotent.
func (s *SQLiteStore) DeleteAsset(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}

	s.notify(model.KindAsset)
	return nil
}
