// Package sqlite persists the oracle ledger and card library in a SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Config holds database configuration settings.
type Config struct {
	// Path is the file path to the SQLite database.
	Path string

	// MaxOpenConns caps open connections. Writers are serialized by SQLite
	// itself, so a small pool is enough.
	MaxOpenConns int

	// BusyTimeout sets how long to wait when the database is locked.
	BusyTimeout time.Duration

	// AutoMigrate runs pending migrations before the connection is opened.
	AutoMigrate bool
}

// DefaultConfig returns a Config with default values for path.
func DefaultConfig(path string) Config {
	return Config{
		Path:         path,
		MaxOpenConns: 4,
		BusyTimeout:  5 * time.Second,
		AutoMigrate:  true,
	}
}

// Open connects to the database described by cfg.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" || cfg.Path == ":memory:" {
		return nil, fmt.Errorf("sqlite store needs a file path, got %q", cfg.Path)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	if cfg.AutoMigrate {
		if err := migrateUp(cfg.Path); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	// _txlock=immediate takes the write lock at BEGIN so that two draws never
	// both read the same counter or usage row.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := conn.PingContext(context.Background()); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			return nil, fmt.Errorf("close database after ping error: %w (original error: %v)", closeErr, err)
		}
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{conn: conn}, nil
}

// withTx runs fn inside a transaction, committing on success and rolling back
// on error or panic.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("transaction error: %w, rollback error: %v", err, rbErr)
			}
		} else if err = tx.Commit(); err != nil {
			err = fmt.Errorf("commit transaction: %w", err)
		}
	}()

	return fn(tx)
}
