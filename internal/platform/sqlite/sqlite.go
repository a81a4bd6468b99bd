// Package sqlite provides a single-user local store on an embedded SQLite
// database. It implements the item, item state and review log stores so the
// review and progress services can run without PostgreSQL.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/store"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// LocalUserID owns every state and review log in a local database.
var LocalUserID = uuid.MustParse("00000000-0000-4000-8000-000000000001")

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// timeFormat is fixed width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS vocabulary_items (
	id           TEXT PRIMARY KEY,
	text         TEXT NOT NULL,
	translation  TEXT NOT NULL,
	category     TEXT NOT NULL,
	oxford_index INTEGER UNIQUE,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_category ON vocabulary_items(category);

CREATE TABLE IF NOT EXISTS user_item_states (
	user_id          TEXT NOT NULL,
	item_id          TEXT NOT NULL REFERENCES vocabulary_items(id) ON DELETE CASCADE,
	stability        REAL NOT NULL,
	difficulty       REAL NOT NULL,
	last_reviewed_at TEXT,
	review_count     INTEGER NOT NULL DEFAULT 0,
	next_review_at   TEXT,
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL,
	PRIMARY KEY (user_id, item_id)
);
CREATE INDEX IF NOT EXISTS idx_states_due ON user_item_states(user_id, next_review_at);

CREATE TABLE IF NOT EXISTS review_logs (
	id                TEXT PRIMARY KEY,
	user_id           TEXT NOT NULL,
	item_id           TEXT NOT NULL REFERENCES vocabulary_items(id) ON DELETE CASCADE,
	grade             INTEGER NOT NULL,
	stability_before  REAL NOT NULL,
	stability_after   REAL NOT NULL,
	difficulty_before REAL NOT NULL,
	difficulty_after  REAL NOT NULL,
	reviewed_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_review_logs_item ON review_logs(user_id, item_id, reviewed_at DESC);
`

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path + "?_pragma=foreign_keys(on)"
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Each connection to :memory: gets its own database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func uuidArgs(ids []uuid.UUID) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}
	return args
}

// constraintCode returns the extended SQLite result code of err, or 0.
func constraintCode(err error) int {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()
	}
	return 0
}

// mapError translates SQLite errors into store sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}

	switch constraintCode(err) {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	return err
}

func checkRowsAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}
