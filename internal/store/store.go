// Package store is the DAO over the embedded SQL database: messages,
// labels and the manual-review audit trail.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/smilemakc/smslabel/internal/apperr"
	"github.com/smilemakc/smslabel/internal/taxonomy"
)

// Store persists messages, labels and audit entries. Writers serialize
// through mu: the database connection is protected by a single exclusive
// lock, matching the single-writer discipline an embedded file database
// needs.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	mu     sync.Mutex
}

// Message is one row of the messages table plus its derived flags.
type Message struct {
	ID                  int64
	Content             string
	ReceivedAt          *time.Time
	Sender              string
	Phone               string
	Source              string
	HasURL              bool
	HasAmount           bool
	HasVerificationCode bool
}

// Open creates (if needed) the schema at path and returns a ready Store.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &apperr.StoreError{Op: "open", Err: err}
	}
	db.SetMaxOpenConns(1) // embedded, single-file: one writer at a time
	if err := db.PingContext(ctx); err != nil {
		return nil, &apperr.StoreError{Op: "ping", Err: err}
	}

	s := &Store{db: db, logger: logger}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	content TEXT NOT NULL,
	received_at TEXT,
	sender TEXT,
	phone TEXT,
	source TEXT,
	has_url INTEGER NOT NULL DEFAULT 0,
	has_amount INTEGER NOT NULL DEFAULT 0,
	has_verification_code INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS labels (
	message_id INTEGER PRIMARY KEY,
	industry TEXT NOT NULL,
	type TEXT NOT NULL,
	entities_json TEXT NOT NULL,
	confidence REAL NOT NULL,
	needs_review INTEGER NOT NULL,
	reasons_json TEXT NOT NULL,
	signals_json TEXT,
	rules_version TEXT NOT NULL,
	model_version TEXT NOT NULL,
	schema_version TEXT NOT NULL,
	updated_by TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	is_manual INTEGER NOT NULL DEFAULT 0,
	FOREIGN KEY (message_id) REFERENCES messages(id)
);

CREATE TABLE IF NOT EXISTS audit_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id INTEGER NOT NULL,
	operator TEXT NOT NULL,
	before_json TEXT,
	after_json TEXT NOT NULL,
	diff_json TEXT NOT NULL,
	ts TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_labels_needs_review ON labels(needs_review);
CREATE INDEX IF NOT EXISTS idx_labels_industry_type ON labels(industry, type);
`
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return &apperr.StoreError{Op: "ensure_schema", Err: err}
	}
	return nil
}

func nowISO() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}
