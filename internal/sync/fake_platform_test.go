package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdsync "sync"
	"time"

	"github.com/vovakirdan/wirechat-client/internal/chat"
	"github.com/vovakirdan/wirechat-client/internal/platform"
)

// fakePlatform is an in-memory platform.Platform with call counters and a
// gate for delaying public message fetches, used to exercise the controller's
// stale-fetch guard.
type fakePlatform struct {
	mu stdsync.Mutex

	userID   string
	messages []chat.Message
	profiles []chat.Profile
	nextID   int

	failLists bool
	// publicGate, when non-nil, blocks ListPublic until closed.
	publicGate chan struct{}

	listPublicCalls   int
	listBetweenCalls  int
	listProfilesCalls int
	listByIDsCalls    int
	createCalls       int
	uploadCalls       int
	uploadedPaths     []string
	presenceLog       []bool
	signedOut         bool

	events       chan<- platform.Event
	subCancelled bool
}

func newFakePlatform(userID string) *fakePlatform {
	return &fakePlatform{userID: userID}
}

func (f *fakePlatform) CurrentUser(ctx context.Context) (string, error) {
	if f.userID == "" {
		return "", platform.ErrNoSession
	}
	return f.userID, nil
}

func (f *fakePlatform) SignOut(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signedOut = true
	return nil
}

func (f *fakePlatform) ListPublic(ctx context.Context) ([]chat.Message, error) {
	f.mu.Lock()
	f.listPublicCalls++
	gate := f.publicGate
	fail := f.failLists
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, errors.New("backend unavailable")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []chat.Message
	for _, m := range f.messages {
		if m.Public {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakePlatform) ListBetween(ctx context.Context, a, b string) ([]chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listBetweenCalls++
	if f.failLists {
		return nil, errors.New("backend unavailable")
	}
	var out []chat.Message
	for _, m := range f.messages {
		if m.Public {
			continue
		}
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

// createMessage appends a message, assigns an ID, and publishes the insert
// event the way the real backend would.
func (f *fakePlatform) CreateMessage(ctx context.Context, msg *chat.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	f.createCalls++
	f.nextID++
	stored := *msg
	stored.ID = fmt.Sprintf("m-%03d", f.nextID)
	stored.CreatedAt = time.Now()
	f.messages = append(f.messages, stored)
	events := f.events
	f.mu.Unlock()

	if events != nil {
		events <- platform.Event{Table: platform.TableMessages, Op: platform.OpInsert, Message: &stored}
	}
	return nil
}

func (f *fakePlatform) ListProfiles(ctx context.Context) ([]chat.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listProfilesCalls++
	return append([]chat.Profile(nil), f.profiles...), nil
}

func (f *fakePlatform) ListProfilesByIDs(ctx context.Context, ids []string) ([]chat.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listByIDsCalls++
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []chat.Profile
	for _, p := range f.profiles {
		if _, ok := want[p.UserID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePlatform) SetPresence(ctx context.Context, userID string, online bool, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presenceLog = append(f.presenceLog, online)
	return nil
}

func (f *fakePlatform) Subscribe(ctx context.Context, events chan<- platform.Event) (func(), error) {
	f.mu.Lock()
	f.events = events
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.subCancelled = true
		f.mu.Unlock()
	}, nil
}

// pushEvent injects a change notification as if the backend emitted it.
func (f *fakePlatform) pushEvent(ev platform.Event) {
	f.mu.Lock()
	events := f.events
	f.mu.Unlock()
	if events != nil {
		events <- ev
	}
}

func (f *fakePlatform) Upload(ctx context.Context, path string, r io.Reader, size int64, mimeType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadCalls++
	f.uploadedPaths = append(f.uploadedPaths, path)
	return nil
}

func (f *fakePlatform) PublicURL(path string) string {
	return "https://blobs.example/" + path
}

func (f *fakePlatform) Close() error { return nil }

func (f *fakePlatform) counts() (listPublic, listBetween, create, upload int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listPublicCalls, f.listBetweenCalls, f.createCalls, f.uploadCalls
}

func (f *fakePlatform) lastMessage() chat.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return chat.Message{}
	}
	return f.messages[len(f.messages)-1]
}

var _ platform.Platform = (*fakePlatform)(nil)
