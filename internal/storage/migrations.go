package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					owner_key TEXT NOT NULL DEFAULT '',
					kind TEXT NOT NULL,
					name TEXT NOT NULL,
					icon TEXT NOT NULL DEFAULT '',
					color TEXT NOT NULL DEFAULT '',
					created_at DATETIME NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					owner_key TEXT NOT NULL DEFAULT '',
					category_id INTEGER NOT NULL,
					kind TEXT NOT NULL,
					amount TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					occurred_on DATETIME NOT NULL,
					via TEXT NOT NULL DEFAULT '',
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_transactions_category ON transactions(category_id)`,
				`CREATE INDEX idx_transactions_via ON transactions(via)`,
				`CREATE INDEX idx_transactions_occurred ON transactions(occurred_on)`,

				`CREATE TABLE IF NOT EXISTS investments (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					owner_key TEXT NOT NULL DEFAULT '',
					name TEXT NOT NULL,
					notes TEXT NOT NULL DEFAULT '',
					amount TEXT NOT NULL,
					created_at DATETIME NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS settings (
					key TEXT PRIMARY KEY,
					value TEXT NOT NULL
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add asset buckets and goals",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS assets (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					kind TEXT NOT NULL UNIQUE,
					name TEXT NOT NULL,
					color TEXT NOT NULL DEFAULT '',
					balance TEXT NOT NULL DEFAULT '0',
					created_at DATETIME NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS goals (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					owner_key TEXT NOT NULL DEFAULT '',
					category_id INTEGER NOT NULL UNIQUE,
					target_amount TEXT NOT NULL,
					completed INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add single-row user profile",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS profile (
					id INTEGER PRIMARY KEY CHECK (id = 1),
					email TEXT NOT NULL,
					display_name TEXT NOT NULL DEFAULT '',
					is_pro INTEGER NOT NULL DEFAULT 0
				)
			`)
			return err
		},
	},
}

// Migrate runs all pending migrations.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var current int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}

		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, m.Version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		slog.Info("applied migration", "version", m.Version, "description", m.Description)
	}

	return nil
}
