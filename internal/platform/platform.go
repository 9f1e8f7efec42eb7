// Package platform defines the capability interfaces the chat client consumes
// from its backing platform: session identity, record access for messages and
// profiles, the change-notification stream, and binary object storage. The
// hosted backend is reached through the rest subpackage; the local subpackage
// provides an in-process implementation for development and tests.
package platform

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/vovakirdan/wirechat-client/internal/chat"
)

var (
	// ErrNoSession is returned when no authenticated session is available.
	ErrNoSession = errors.New("no active session")
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
)

// Tables and operations carried by change-notification events.
const (
	TableMessages = "messages"
	TableProfiles = "profiles"

	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// Event is a change notification from the backing store. Delivery is
// at-least-once and unordered relative to concurrent queries; consumers must
// re-read rather than trust the payload as complete state.
type Event struct {
	Table   string
	Op      string
	Message *chat.Message // set for messages events
	Profile *chat.Profile // set for profiles events
}

// Auth exposes the current session.
type Auth interface {
	// CurrentUser returns the authenticated user's ID, or ErrNoSession.
	CurrentUser(ctx context.Context) (string, error)

	// SignOut terminates the session.
	SignOut(ctx context.Context) error
}

// Messages provides record access to the messages table.
type Messages interface {
	// ListPublic returns all public messages ordered by creation time ascending.
	ListPublic(ctx context.Context) ([]chat.Message, error)

	// ListBetween returns all private messages exchanged between two users,
	// in either direction, ordered by creation time ascending.
	ListBetween(ctx context.Context, userA, userB string) ([]chat.Message, error)

	// CreateMessage inserts a new message. The store assigns ID and CreatedAt.
	CreateMessage(ctx context.Context, msg *chat.Message) error
}

// Profiles provides record access to the profiles table.
type Profiles interface {
	// ListProfiles returns all profiles.
	ListProfiles(ctx context.Context) ([]chat.Profile, error)

	// ListProfilesByIDs returns the profiles for the given user IDs. Missing
	// IDs are silently omitted from the result.
	ListProfilesByIDs(ctx context.Context, ids []string) ([]chat.Profile, error)

	// SetPresence updates a user's online flag and last-seen timestamp.
	SetPresence(ctx context.Context, userID string, online bool, at time.Time) error
}

// Stream is the change-notification subscription capability.
type Stream interface {
	// Subscribe starts delivering events to the channel until the returned
	// cancel function is called or ctx is done. The cancel function is safe to
	// call more than once; the subscription is torn down exactly once.
	Subscribe(ctx context.Context, events chan<- Event) (cancel func(), err error)
}

// Blobs is the binary object store.
type Blobs interface {
	// Upload stores an object at the given path.
	Upload(ctx context.Context, path string, r io.Reader, size int64, mimeType string) error

	// PublicURL returns the publicly resolvable URL for a stored object.
	PublicURL(path string) string
}

// Platform aggregates every capability the synchronization controller needs.
type Platform interface {
	Auth
	Messages
	Profiles
	Stream
	Blobs

	// Close releases any underlying connections.
	Close() error
}
