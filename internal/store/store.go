package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/Kuroukai/Kuroukai-api/internal/model"
)

// Options selects the backing database. The zero value gives an embedded
// SQLite store; set Driver and DSN to point at postgres ("pgx") or mysql
// instead. DataDir is only meaningful for SQLite.
type Options struct {
	Driver  string
	DSN     string
	DataDir string
}

// Store persists access key records. It is the sole writer of the
// access_keys table; callers only ever see snapshots.
type Store struct {
	db     *sqlx.DB
	driver string
}

// New opens the key store. With empty Options an in-memory SQLite database
// is used, which is what the tests rely on.
func New(opts Options) (*Store, error) {
	driver := opts.Driver
	dsn := opts.DSN

	if driver == "" {
		driver = "sqlite"
	}
	if driver == "sqlite" && dsn == "" {
		if opts.DataDir == "" {
			dsn = ":memory:?_journal_mode=WAL"
		} else {
			if err := os.MkdirAll(opts.DataDir, 0755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
			dsn = filepath.Join(opts.DataDir, "kuroukai.db") + "?_journal_mode=WAL&_busy_timeout=5000"
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open key database: %w", err)
	}

	if driver == "sqlite" {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate key database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the access_keys table. The seq column is a monotonic
// insertion counter assigned by the database; ListByOwner orders by it so
// creation order holds even when two keys share a created_at timestamp.
// The autoincrement syntax differs per driver, hence the switch.
func (s *Store) migrate() error {
	var stmts []string
	switch s.driver {
	case "pgx":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS access_keys (
				seq        BIGSERIAL PRIMARY KEY,
				id         TEXT NOT NULL UNIQUE,
				owner_id   TEXT NOT NULL,
				status     TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL,
				expires_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_access_keys_owner ON access_keys(owner_id)`,
		}
	case "mysql":
		// MySQL has no CREATE INDEX IF NOT EXISTS; the index rides along
		// in the table definition instead.
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS access_keys (
				seq        BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
				id         VARCHAR(64) NOT NULL UNIQUE,
				owner_id   VARCHAR(255) NOT NULL,
				status     VARCHAR(16) NOT NULL,
				created_at DATETIME(6) NOT NULL,
				expires_at DATETIME(6) NOT NULL,
				INDEX idx_access_keys_owner (owner_id)
			)`,
		}
	default: // sqlite
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS access_keys (
				seq        INTEGER PRIMARY KEY AUTOINCREMENT,
				id         TEXT NOT NULL UNIQUE,
				owner_id   TEXT NOT NULL,
				status     TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL,
				expires_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_access_keys_owner ON access_keys(owner_id)`,
		}
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create access_keys table: %w", err)
		}
	}
	return nil
}

// Insert persists a new key record.
func (s *Store) Insert(ctx context.Context, key model.AccessKey) error {
	const q = `INSERT INTO access_keys (id, owner_id, status, created_at, expires_at)
		VALUES (:id, :owner_id, :status, :created_at, :expires_at)`

	if _, err := s.db.NamedExecContext(ctx, q, key); err != nil {
		return fmt.Errorf("insert access key: %w", err)
	}
	return nil
}

// Fetch returns the key record with the given id, or ErrNotFound.
// Lookups are exact-match on the opaque identifier.
func (s *Store) Fetch(ctx context.Context, id string) (model.AccessKey, error) {
	var key model.AccessKey
	q := s.db.Rebind(`SELECT id, owner_id, status, created_at, expires_at FROM access_keys WHERE id = ?`)
	err := s.db.GetContext(ctx, &key, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AccessKey{}, ErrNotFound
	}
	if err != nil {
		return model.AccessKey{}, fmt.Errorf("fetch access key: %w", err)
	}
	return key, nil
}

// UpdateStatus sets the status of an existing key. Returns ErrNotFound if
// no record matched.
func (s *Store) UpdateStatus(ctx context.Context, id, status string) error {
	q := s.db.Rebind(`UPDATE access_keys SET status = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, status, id)
	if err != nil {
		return fmt.Errorf("update access key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update access key: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Remove deletes the key record. The delete is destructive: a second call
// on the same id reports ErrNotFound.
func (s *Store) Remove(ctx context.Context, id string) error {
	q := s.db.Rebind(`DELETE FROM access_keys WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete access key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete access key: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByOwner returns all keys for an owner in creation order, by the
// database-assigned insertion sequence rather than created_at, which may
// carry ties.
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]model.AccessKey, error) {
	keys := []model.AccessKey{}
	q := s.db.Rebind(`SELECT id, owner_id, status, created_at, expires_at FROM access_keys
		WHERE owner_id = ? ORDER BY seq ASC`)
	if err := s.db.SelectContext(ctx, &keys, q, ownerID); err != nil {
		return nil, fmt.Errorf("list access keys: %w", err)
	}
	return keys, nil
}

// Count returns the total number of stored keys, used by telemetry.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM access_keys`); err != nil {
		return 0, fmt.Errorf("count access keys: %w", err)
	}
	return n, nil
}
