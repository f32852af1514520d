// Package sqlite implements store.Store on an embedded SQLite file. Several
// processes may open the same file; WAL mode and a busy timeout serialize
// their writers.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/alfredjeanlab/flags/internal/model"
	"github.com/alfredjeanlab/flags/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DefaultBusyTimeout is how long a writer waits for another process's lock
// before the operation is reported as unavailable.
const DefaultBusyTimeout = 5 * time.Second

// SQLiteStore implements store.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Compile-time checks.
var (
	_ store.Store   = (*SQLiteStore)(nil)
	_ store.Deleter = (*SQLiteStore)(nil)
	_ store.Pinger  = (*SQLiteStore)(nil)
)

// Open opens (creating if needed) the database file at path and applies
// pending migrations.
func Open(ctx context.Context, path string, busyTimeout time.Duration) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if busyTimeout <= 0 {
		busyTimeout = DefaultBusyTimeout
	}

	db, err := sql.Open("sqlite", dsn(path, busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, classify("ping database", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// dsn builds a modernc connection string that applies the pragmas on every
// pooled connection, not just the first.
func dsn(path string, busyTimeout time.Duration) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get retrieves a single flag by name.
func (s *SQLiteStore) Get(ctx context.Context, name string) (*model.Flag, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, enabled, description, updated_at
		FROM feature_flags
		WHERE name = ?
	`, name)
	f, err := scanFlag(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify("get flag", err)
	}
	return f, true, nil
}

// Put upserts a flag. A stored row with a newer updated_at is left alone.
func (s *SQLiteStore) Put(ctx context.Context, value *model.Flag) error {
	if err := model.ValidateFlag(value); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feature_flags (name, enabled, description, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			enabled=excluded.enabled,
			description=excluded.description,
			updated_at=excluded.updated_at
		WHERE feature_flags.updated_at <= excluded.updated_at
	`,
		value.Name,
		boolToInt(value.Enabled),
		value.Description,
		value.UpdatedAt.UTC().UnixNano(),
	)
	return classify("put flag", err)
}

// List returns all persisted flags sorted by name. A single SELECT reads
// from one snapshot.
func (s *SQLiteStore) List(ctx context.Context) ([]*model.Flag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, enabled, description, updated_at
		FROM feature_flags
		ORDER BY name
	`)
	if err != nil {
		return nil, classify("list flags", err)
	}
	defer rows.Close()

	out := []*model.Flag{}
	for rows.Next() {
		f, err := scanFlag(rows.Scan)
		if err != nil {
			return nil, classify("scan flag", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list flags", err)
	}
	return out, nil
}

// Delete removes a flag by name.
func (s *SQLiteStore) Delete(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM feature_flags WHERE name = ?`, name)
	if err != nil {
		return false, classify("delete flag", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Ping checks that the database file is still reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return classify("ping database", s.db.PingContext(ctx))
}

func scanFlag(scan func(dest ...any) error) (*model.Flag, error) {
	var (
		f         model.Flag
		enabled   int
		updatedAt int64
	)
	if err := scan(&f.Name, &enabled, &f.Description, &updatedAt); err != nil {
		return nil, err
	}
	f.Enabled = enabled != 0
	f.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &f, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// classify wraps err with op, marking lock timeouts and I/O failures as
// store.ErrUnavailable.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return store.Unavailable(op, err)
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_IOERR,
			sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_FULL, sqlite3.SQLITE_PROTOCOL:
			return store.Unavailable(op, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
