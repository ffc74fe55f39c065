package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/misterclayt0n/practicebuddy/internal/config"
	"github.com/misterclayt0n/practicebuddy/internal/logger"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// SQLStore keeps records in a SQLite-compatible database: a local file through
// modernc.org/sqlite or a remote libsql (Turso) database.
type SQLStore struct {
	DB  *sql.DB
	log *logger.Scope
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// OpenSQLite opens (creating if needed) a local database file.
func OpenSQLite(path string) (*SQLStore, error) {
	if path == "" {
		return nil, unavailable("Failed to open database", fmt.Errorf("no database path configured"))
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, unavailable("Failed to create database directory", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, unavailable(fmt.Sprintf("Failed to open db %s", path), err)
	}
	// One writer at a time; SQLite serializes anyway and this keeps ":memory:" on a single database.
	db.SetMaxOpenConns(1)

	st, err := newSQLStore(db, config.BackendSQLite)
	if err != nil {
		return nil, err
	}
	st.log.Debug("opened database", "path", path)
	return st, nil
}

// OpenLibSQL connects to a remote libsql database such as Turso.
func OpenLibSQL(dbURL, authToken string) (*SQLStore, error) {
	if dbURL == "" {
		return nil, unavailable("Failed to open database", fmt.Errorf("TURSO_DATABASE_URL not set"))
	}

	dsn := dbURL
	if authToken != "" {
		u, err := url.Parse(dbURL)
		if err != nil {
			return nil, unavailable(fmt.Sprintf("Invalid database URL %s", dbURL), err)
		}
		q := u.Query()
		q.Set("authToken", authToken)
		u.RawQuery = q.Encode()
		dsn = u.String()
	}

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, unavailable(fmt.Sprintf("Failed to open db %s", dbURL), err)
	}

	st, err := newSQLStore(db, config.BackendLibSQL)
	if err != nil {
		return nil, err
	}
	st.log.Debug("opened database", "url", dbURL)
	return st, nil
}

func newSQLStore(db *sql.DB, backend string) (*SQLStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, unavailable("Failed to reach database", err)
	}
	if err := initializeDB(ctx, db); err != nil {
		db.Close()
		return nil, unavailable("Failed to initialize database", err)
	}
	return &SQLStore{DB: db, log: logger.Store(backend)}, nil
}

func (s *SQLStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// Statements run one by one; remote libsql connections reject multi-statement exec.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY,
        email TEXT NOT NULL UNIQUE,
        display_name TEXT NOT NULL DEFAULT '',
        password_hash TEXT NOT NULL,
        daily_goal INTEGER NOT NULL DEFAULT 60,
        weekly_goal INTEGER NOT NULL DEFAULT 300,
        default_session_duration INTEGER NOT NULL DEFAULT 30,
        created_at TEXT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS user_categories (
        user_id TEXT NOT NULL,
        name TEXT NOT NULL,
        position INTEGER NOT NULL,
        PRIMARY KEY (user_id, name),
        FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
    )`,
	`CREATE TABLE IF NOT EXISTS routines (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        name TEXT NOT NULL,
        description TEXT NOT NULL DEFAULT '',
        duration_in_minutes INTEGER NOT NULL DEFAULT 0,
        last_practiced TEXT,
        is_inactive INTEGER NOT NULL DEFAULT 0,
        created_at TEXT NOT NULL,
        FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
    )`,
	`CREATE TABLE IF NOT EXISTS routine_sections (
        id TEXT PRIMARY KEY,
        routine_id TEXT NOT NULL,
        name TEXT NOT NULL,
        notes TEXT NOT NULL DEFAULT '',
        duration_in_minutes INTEGER NOT NULL DEFAULT 0,
        order_index INTEGER NOT NULL,
        FOREIGN KEY (routine_id) REFERENCES routines(id) ON DELETE CASCADE
    )`,
	`CREATE TABLE IF NOT EXISTS practice_sessions (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        date TEXT NOT NULL,
        total_duration INTEGER NOT NULL,
        notes TEXT NOT NULL DEFAULT '',
        is_spontaneous INTEGER NOT NULL DEFAULT 0,
        created_at TEXT NOT NULL,
        FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
    )`,
	`CREATE TABLE IF NOT EXISTS session_items (
        id TEXT PRIMARY KEY,
        session_id TEXT NOT NULL,
        source_id TEXT NOT NULL DEFAULT '',
        name TEXT NOT NULL,
        category TEXT NOT NULL,
        duration_in_minutes INTEGER NOT NULL,
        notes TEXT NOT NULL DEFAULT '',
        sections TEXT NOT NULL DEFAULT '[]', -- JSON snapshot of the routine sections.
        order_index INTEGER NOT NULL,
        FOREIGN KEY (session_id) REFERENCES practice_sessions(id) ON DELETE CASCADE
    )`,
	`CREATE INDEX IF NOT EXISTS idx_routines_user ON routines(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user ON practice_sessions(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_session_items_session ON session_items(session_id)`,
}

func initializeDB(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// timeLayout is RFC 3339 with a fixed-width fraction, so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// isUniqueViolation matches the constraint error text of both drivers.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToUpper(err.Error()), "UNIQUE CONSTRAINT")
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
