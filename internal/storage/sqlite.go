// Package storage provides the on-device persistence layer: the record
// store that owns canonical CRUD semantics for every entity collection.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"database/sql"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/florinapp/florin/internal/bus"
	"github.com/florinapp/florin/internal/model"
)

// SQLiteStore implements the service.Store interface using SQLite. All
// mutations persist synchronously and publish exactly one change event for
// their entity kind on the attached bus.
type SQLiteStore struct {
	db     *sql.DB
	bus    *bus.Bus
	dbPath string
}

// NewSQLiteStore creates a new SQLite store. A nil bus disables change
// notification, which batch tooling and tests may want.
func NewSQLiteStore(dbPath string, changeBus *bus.Bus) (*SQLiteStore, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		bus:    changeBus,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// notify publishes one change event for kind. Called exactly once per
// successful mutating operation.
func (s *SQLiteStore) notify(kind model.Kind) {
	if s.bus != nil {
		s.bus.Publish(kind)
	}
}
