package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/antlu/giveaway-assistant/internal/errorx"
)

const schema = `
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS giveaways (
		id TEXT PRIMARY KEY,
		channel_id TEXT NOT NULL,
		host_id TEXT NOT NULL,
		prize TEXT NOT NULL,
		winners INTEGER NOT NULL DEFAULT 1 CHECK (winners >= 1),
		deadline INTEGER NOT NULL,
		resolved INTEGER NOT NULL DEFAULT 0,
		role TEXT
	);

	CREATE INDEX IF NOT EXISTS giveaways_resolved_deadline ON giveaways (resolved, deadline);
	CREATE INDEX IF NOT EXISTS giveaways_host ON giveaways (host_id);

	CREATE TABLE IF NOT EXISTS giveaway_entries (
		user_id TEXT NOT NULL,
		giveaway_id TEXT NOT NULL,
		PRIMARY KEY (user_id, giveaway_id),
		FOREIGN KEY (giveaway_id) REFERENCES giveaways(id) ON UPDATE CASCADE ON DELETE CASCADE
	);
`

// Store is the sqlite-backed giveaway store.
type Store struct {
	*sql.DB
}

// Open connects to the database file at path without touching the schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	// sqlite has a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Store{DB: db}, nil
}

// Migrate creates the tables if they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("error applying schema: %w", err)
	}
	return nil
}

// TablesExist reports whether both giveaway tables are present.
func (s *Store) TablesExist(ctx context.Context) (bool, error) {
	for _, table := range []string{"giveaways", "giveaway_entries"} {
		exists, err := s.recordExists(ctx, "sqlite_master", "name", table)
		if err != nil || !exists {
			return false, err
		}
	}
	return true, nil
}

func (s *Store) DropTables(ctx context.Context) error {
	_, err := s.ExecContext(ctx, `
		DROP TABLE IF EXISTS giveaway_entries;
		DROP TABLE IF EXISTS giveaways;
	`)
	return err
}

func (s *Store) ResetTables(ctx context.Context) error {
	_, err := s.ExecContext(ctx, `
		DELETE FROM giveaway_entries;
		DELETE FROM giveaways;
	`)
	return err
}

func (s *Store) recordExists(ctx context.Context, tableName, columnName, value string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s = ?)", tableName, columnName)
	err := s.QueryRowContext(ctx, query, value).Scan(&exists)
	return exists, err
}

// withTx runs fn inside a transaction and commits if fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func unavailable(err error, format string, a ...any) error {
	return errorx.Wrap(errorx.StoreUnavailable, err, format, a...)
}

func constraintCode(err error) sqlite3.ErrNoExtended {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return sqliteErr.ExtendedCode
	}
	return 0
}
