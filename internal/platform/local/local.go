// Package local is an in-process implementation of platform.Platform backed by
// sqlite, a channel fan-out for change notifications, and a directory on disk
// for blobs. It exists so the client can run and be tested without the hosted
// backend; it is not a reimplementation of the managed platform.
package local

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/platform"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id          TEXT PRIMARY KEY,
	sender_id   TEXT NOT NULL,
	receiver_id TEXT,
	content     TEXT,
	file_url    TEXT,
	file_name   TEXT,
	file_type   TEXT,
	is_public   BOOLEAN NOT NULL DEFAULT 1,
	created_at  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_created ON messages(created_at);

CREATE TABLE IF NOT EXISTS profiles (
	user_id    TEXT PRIMARY KEY,
	username   TEXT NOT NULL,
	avatar_url TEXT,
	is_online  BOOLEAN NOT NULL DEFAULT 0,
	last_seen  DATETIME NOT NULL
);
`

// Options configures the local backend.
type Options struct {
	// DatabasePath is the sqlite file; ":memory:" for tests.
	DatabasePath string
	// BlobDir is the root directory for stored attachments.
	BlobDir string
	// UserID identifies the local session. Required.
	UserID string
	// Username is the display name registered for UserID.
	Username string
}

// Backend implements platform.Platform in-process.
type Backend struct {
	db      *sql.DB
	hub     *streamHub
	blobDir string
	log     *zerolog.Logger

	mu     sync.RWMutex
	userID string // cleared by SignOut while other calls may be in flight
}

// New opens the database, applies the schema, and registers the local user's
// profile if it does not exist yet.
func New(opts Options, logger *zerolog.Logger) (*Backend, error) {
	if opts.UserID == "" {
		return nil, fmt.Errorf("local backend requires a user ID")
	}

	db, err := sql.Open("sqlite3", opts.DatabasePath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	b := &Backend{
		db:      db,
		hub:     newStreamHub(logger),
		blobDir: opts.BlobDir,
		userID:  opts.UserID,
		log:     logger,
	}

	username := opts.Username
	if username == "" {
		username = opts.UserID
	}
	if err := b.ensureProfile(opts.UserID, username); err != nil {
		db.Close()
		return nil, err
	}

	return b, nil
}

func (b *Backend) ensureProfile(userID, username string) error {
	query := `
		INSERT INTO profiles (user_id, username, is_online, last_seen)
		VALUES (?, ?, 0, ?)
		ON CONFLICT(user_id) DO NOTHING
	`
	if _, err := b.db.Exec(query, userID, username, time.Now().UTC()); err != nil {
		return fmt.Errorf("ensure profile: %w", err)
	}
	return nil
}

// CurrentUser returns the configured local user.
func (b *Backend) CurrentUser(ctx context.Context) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.userID == "" {
		return "", platform.ErrNoSession
	}
	return b.userID, nil
}

// SignOut clears the local session.
func (b *Backend) SignOut(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.userID = ""
	return nil
}

// Close closes the database and drops all stream subscribers.
func (b *Backend) Close() error {
	b.hub.closeAll()
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

var _ platform.Platform = (*Backend)(nil)
