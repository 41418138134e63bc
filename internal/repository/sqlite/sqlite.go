// Package sqlite implements repository.Store on top of SQLite.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so the server builds without CGo and
// cross-compiles like any other Go binary. The driver registers itself with
// database/sql under the name "sqlite" through the blank import below.
//
// IDENTITIES:
// Users, journals and folders share a single counter stored in the
// id_sequence table. Each insert bumps the counter and writes the row inside
// one transaction, so ids are unique across every table, strictly increasing,
// and never reused even after a journal is deleted.
//
// dbPath examples:
//   - "data/journalize.db" → file-based database (persistent)
//   - ":memory:"           → in-memory database (tests)
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sakif/journalize/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and provides the repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is its own empty database. Pin the pool
	// to one connection so the tables we migrate are the tables we query.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	// Writers wait for the lock instead of failing with SQLITE_BUSY.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS makes it safe to run
// on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS id_sequence (
			id   INTEGER PRIMARY KEY CHECK (id = 1),
			next INTEGER NOT NULL
		);
		INSERT OR IGNORE INTO id_sequence (id, next) VALUES (1, 1);
	`)
	if err != nil {
		return fmt.Errorf("creating id_sequence table: %w", err)
	}

	// github_id is nullable; UNIQUE ignores NULLs, so many password-only
	// users can coexist.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     INTEGER UNIQUE,
			created_at    TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// tags holds a JSON array. Nothing queries inside it, so a join table
	// would only add writes.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS journals (
			id         INTEGER PRIMARY KEY,
			user_id    INTEGER NOT NULL,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL DEFAULT '',
			type       TEXT NOT NULL,
			folder_id  INTEGER,
			tags       TEXT NOT NULL DEFAULT '[]',
			mood       TEXT NOT NULL DEFAULT '',
			date       TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_journals_user_id ON journals(user_id, id);
	`)
	if err != nil {
		return fmt.Errorf("creating journals table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS folders (
			id        INTEGER PRIMARY KEY,
			user_id   INTEGER NOT NULL,
			name      TEXT NOT NULL,
			parent_id INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_folders_user_id ON folders(user_id, id);
	`)
	if err != nil {
		return fmt.Errorf("creating folders table: %w", err)
	}

	return nil
}

// nextID bumps the shared counter inside tx and returns the value it held.
func nextID(ctx context.Context, tx *sql.Tx) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`UPDATE id_sequence SET next = next + 1 WHERE id = 1 RETURNING next - 1`,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("sqlite: allocating id: %w", err)
	}
	return id, nil
}

// inTx runs fn in a transaction, committing on success and rolling back on
// any error.
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idFromNull(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// Times are stored as RFC 3339 text in UTC. Handing time.Time to the driver
// writes its String() form, which carries the monotonic reading and can't be
// scanned back for fixed-offset zones.
const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
