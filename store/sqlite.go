package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS todo (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	content TEXT,
	created_at TEXT,
	updated_at TEXT
);

CREATE TABLE IF NOT EXISTS item_price (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	data TEXT NOT NULL,
	created_at TEXT,
	updated_at TEXT
);
`

// SQLiteStore stores todos and purchase records in a SQLite file.
type SQLiteStore struct {
	path   string
	logger zerolog.Logger
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *SQLiteStore) {
		s.logger = l.With().Str("component", "store").Logger()
	}
}

// NewSQLiteStore returns a store backed by the database file at path.
// No connection is opened until Init or an operation runs.
func NewSQLiteStore(path string, opts ...Option) *SQLiteStore {
	s := &SQLiteStore{path: path, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

// Init creates the parent directory and the schema if they don't exist.
func (s *SQLiteStore) Init(ctx context.Context) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	s.logger.Info().Str("path", s.path).Msg("SQLite store initialized")
	return nil
}

// InsertTodo adds a todo with the given title and returns its id.
func (s *SQLiteStore) InsertTodo(ctx context.Context, title string) (int64, error) {
	db, err := s.open(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	now := timestamp()
	res, err := db.ExecContext(ctx,
		`INSERT INTO todo (title, created_at, updated_at) VALUES (?, ?, ?)`,
		title, now, now,
	)
	if err != nil {
		return 0, insertError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, insertError(err)
	}

	s.logger.Debug().Int64("id", id).Msg("todo inserted")
	return id, nil
}

// Append writes a purchase record to the item_price table. It lets the
// store stand in for the remote purchase log.
func (s *SQLiteStore) Append(ctx context.Context, blob string) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	now := timestamp()
	if _, err := db.ExecContext(ctx,
		`INSERT INTO item_price (data, created_at, updated_at) VALUES (?, ?, ?)`,
		blob, now, now,
	); err != nil {
		return insertError(err)
	}
	return nil
}

// open returns a fresh, verified handle. The caller must close it.
func (s *SQLiteStore) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, connectError(err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, connectError(err)
	}
	return db, nil
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
