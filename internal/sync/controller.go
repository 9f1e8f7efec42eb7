// Package sync owns the currently displayed message list and keeps it
// consistent with the backing platform: it issues full fetches per scope,
// listens to the change-notification stream, and re-derives the merged,
// profile-annotated view whenever a relevant change arrives.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/chat"
	"github.com/vovakirdan/wirechat-client/internal/platform"
)

// State describes where the controller is in its load cycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "idle"
	}
}

// DefaultHeartbeat is the presence heartbeat interval.
const DefaultHeartbeat = 30 * time.Second

// Config tunes the controller.
type Config struct {
	// Heartbeat is the presence update interval; DefaultHeartbeat when zero.
	Heartbeat time.Duration
	// Notify receives non-fatal user-facing failure notices. Optional.
	Notify func(message string)
}

// View is a consistent snapshot of the synchronized state for rendering.
type View struct {
	State    State
	Scope    chat.Scope
	Messages []chat.Rendered
	Roster   []chat.Profile
	Peer     *chat.Profile // the other participant when the scope is private
}

type fetchResult struct {
	gen   uint64
	scope chat.Scope
	view  []chat.Rendered
	err   error
}

// Controller synchronizes the visible message list for the active scope.
// All mutable state is owned by the Run loop; Snapshot, Send and the scope
// setters are safe to call from other goroutines while Run is active.
type Controller struct {
	pf        platform.Platform
	log       *zerolog.Logger
	notify    func(string)
	heartbeat time.Duration
	userID    string

	scopeCh   chan chat.Scope
	refreshCh chan struct{}
	signOutCh chan chan error
	events    chan platform.Event
	resultCh  chan fetchResult
	rosterCh  chan []chat.Profile
	done      chan struct{}

	mu     sync.RWMutex
	state  State
	scope  chat.Scope
	view   []chat.Rendered
	roster []chat.Profile

	// Run-loop owned; never touched outside the loop and its helpers.
	gen         uint64
	cancelFetch context.CancelFunc
	loadedScope bool
	signedOut   bool
}

// New resolves the current session and builds a controller for that user.
// Returns platform.ErrNoSession (wrapped) when nobody is signed in; the caller
// is expected to redirect to login in that case.
func New(ctx context.Context, pf platform.Platform, cfg Config, logger *zerolog.Logger) (*Controller, error) {
	userID, err := pf.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	heartbeat := cfg.Heartbeat
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	notify := cfg.Notify
	if notify == nil {
		notify = func(string) {}
	}

	return &Controller{
		pf:        pf,
		log:       logger,
		notify:    notify,
		heartbeat: heartbeat,
		userID:    userID,
		scopeCh:   make(chan chat.Scope),
		refreshCh: make(chan struct{}, 1),
		signOutCh: make(chan chan error),
		events:    make(chan platform.Event, 16),
		resultCh:  make(chan fetchResult, 4),
		rosterCh:  make(chan []chat.Profile, 1),
		done:      make(chan struct{}),
		state:     StateIdle,
		scope:     chat.Public(),
	}, nil
}

// UserID returns the signed-in user this controller synchronizes for.
func (c *Controller) UserID() string {
	return c.userID
}

// Run subscribes to the change feed, performs the initial load, and processes
// scope changes, notifications and fetch results until ctx is cancelled. The
// subscription is torn down exactly once on return.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)

	cancelSub, err := c.pf.Subscribe(ctx, c.events)
	if err != nil {
		return fmt.Errorf("subscribe change feed: %w", err)
	}
	defer cancelSub()

	c.setPresence(ctx, true)
	go c.fetchRoster(ctx)
	c.reload(ctx, true)

	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case scope := <-c.scopeCh:
			if scope == c.activeScope() {
				continue
			}
			c.mu.Lock()
			c.scope = scope
			c.mu.Unlock()
			c.log.Debug().Str("scope", scope.Key()).Msg("scope changed")
			c.reload(ctx, true)

		case <-c.refreshCh:
			c.reload(ctx, false)

		case reply := <-c.signOutCh:
			reply <- c.handleSignOut(ctx)

		case ev := <-c.events:
			c.handleEvent(ctx, ev)

		case res := <-c.resultCh:
			c.applyResult(res)

		case roster := <-c.rosterCh:
			c.mu.Lock()
			c.roster = roster
			c.mu.Unlock()

		case <-ticker.C:
			if c.signedOut {
				continue
			}
			// Synchronous so presence writes stay ordered with sign-out;
			// a sign-out processed later can never be trailed by a
			// heartbeat marking the user online again.
			c.setPresence(ctx, true)

		case <-ctx.Done():
			if !c.signedOut {
				c.goOffline()
			}
			return nil
		}
	}
}

// ActiveScope returns the scope currently being displayed.
func (c *Controller) ActiveScope() chat.Scope {
	return c.activeScope()
}

func (c *Controller) activeScope() chat.Scope {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scope
}

// SetScope switches the view to the given scope.
func (c *Controller) SetScope(scope chat.Scope) {
	select {
	case c.scopeCh <- scope:
	case <-c.done:
	}
}

// SelectPeer switches to the private conversation with the given user;
// an empty peer returns to the public room.
func (c *Controller) SelectPeer(peerID string) {
	if peerID == "" {
		c.SetScope(chat.Public())
		return
	}
	c.SetScope(chat.Private(c.userID, peerID))
}

// Refresh requests a manual reload of the active scope. This is also the
// retry affordance after a failed first load.
func (c *Controller) Refresh() {
	select {
	case c.refreshCh <- struct{}{}:
	default: // a refresh is already pending
	}
}

// Snapshot returns a copy of the current view.
func (c *Controller) Snapshot() View {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v := View{
		State:    c.state,
		Scope:    c.scope,
		Messages: append([]chat.Rendered(nil), c.view...),
		Roster:   append([]chat.Profile(nil), c.roster...),
	}
	if !c.scope.IsPublic() {
		peerID := c.scope.Peer(c.userID)
		for i := range v.Roster {
			if v.Roster[i].UserID == peerID {
				peer := v.Roster[i]
				v.Peer = &peer
				break
			}
		}
	}
	return v
}

// SignOut marks the user offline and terminates the session. The request is
// serialized through the run loop so the presence heartbeat can neither race
// the offline write nor mark the user online again afterwards.
func (c *Controller) SignOut(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case c.signOutCh <- reply:
	case <-c.done:
		return errors.New("controller stopped")
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) handleSignOut(ctx context.Context) error {
	if c.signedOut {
		return platform.ErrNoSession
	}
	c.setPresence(ctx, false)
	if err := c.pf.SignOut(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	c.signedOut = true
	return nil
}

// reload supersedes any in-flight fetch and starts a new one for the active
// scope. clearView drops the previous list (scope changes must never show
// stale-scope content); refreshes of the same scope keep it visible.
func (c *Controller) reload(ctx context.Context, clearView bool) {
	c.gen++
	if c.cancelFetch != nil {
		c.cancelFetch()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancelFetch = cancel

	scope := c.activeScope()

	c.mu.Lock()
	c.state = StateLoading
	if clearView {
		c.view = nil
	}
	c.mu.Unlock()
	if clearView {
		c.loadedScope = false
	}

	go c.fetch(fetchCtx, c.gen, scope)
}

func (c *Controller) fetch(ctx context.Context, gen uint64, scope chat.Scope) {
	view, err := c.loadView(ctx, scope)
	select {
	case c.resultCh <- fetchResult{gen: gen, scope: scope, view: view, err: err}:
	case <-ctx.Done():
	}
}

// loadView performs one full Loading cycle: fetch the scope's messages, fetch
// the profiles of every distinct sender, then merge. Always a full re-read;
// the consistency of the displayed list is preferred over saving a round trip.
func (c *Controller) loadView(ctx context.Context, scope chat.Scope) ([]chat.Rendered, error) {
	var msgs []chat.Message
	var err error
	if scope.IsPublic() {
		msgs, err = c.pf.ListPublic(ctx)
	} else {
		a, b := scope.Pair()
		msgs, err = c.pf.ListBetween(ctx, a, b)
	}
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	// The store already filters; re-applying normalizes ordering and tie-breaks.
	msgs = chat.Filter(msgs, scope)

	seen := make(map[string]struct{}, len(msgs))
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if _, ok := seen[m.SenderID]; ok {
			continue
		}
		seen[m.SenderID] = struct{}{}
		ids = append(ids, m.SenderID)
	}

	var profiles []chat.Profile
	if len(ids) > 0 {
		profiles, err = c.pf.ListProfilesByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("list sender profiles: %w", err)
		}
	}

	return chat.Merge(msgs, chat.BuildDirectory(profiles)), nil
}

func (c *Controller) applyResult(res fetchResult) {
	if res.gen != c.gen {
		c.log.Debug().Str("scope", res.scope.Key()).Msg("discarding stale fetch result")
		return
	}

	if res.err != nil {
		c.log.Warn().Err(res.err).Str("scope", res.scope.Key()).Msg("load cycle failed")
		c.notify("Failed to load messages")
		if c.loadedScope {
			// Keep the previous known-good list visible.
			c.mu.Lock()
			c.state = StateReady
			c.mu.Unlock()
		}
		// A failed first load stays in Loading; Refresh retries it.
		return
	}

	c.mu.Lock()
	c.view = res.view
	c.state = StateReady
	c.mu.Unlock()
	c.loadedScope = true
}

func (c *Controller) handleEvent(ctx context.Context, ev platform.Event) {
	switch ev.Table {
	case platform.TableMessages:
		if ev.Op != platform.OpInsert || ev.Message == nil {
			return
		}
		if !c.activeScope().Matches(*ev.Message) {
			c.log.Debug().Str("message_id", ev.Message.ID).Msg("ignoring message outside active scope")
			return
		}
		// Re-fetch rather than appending the event payload: the full re-read
		// keeps the list consistent at the cost of one extra round trip.
		c.reload(ctx, false)

	case platform.TableProfiles:
		go c.fetchRoster(ctx)
	}
}

// fetchRoster loads every profile except the current user's, ordered
// online-first then by name.
func (c *Controller) fetchRoster(ctx context.Context) {
	profiles, err := c.pf.ListProfiles(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("failed to load user list")
		return
	}

	roster := profiles[:0]
	for _, p := range profiles {
		if p.UserID == c.userID {
			continue
		}
		roster = append(roster, p)
	}
	chat.SortRoster(roster)

	select {
	case c.rosterCh <- roster:
	default:
		// An unconsumed roster update is pending; replace it with the newer one.
		select {
		case <-c.rosterCh:
		default:
		}
		select {
		case c.rosterCh <- roster:
		default:
		}
	}
}

func (c *Controller) setPresence(ctx context.Context, online bool) {
	if err := c.pf.SetPresence(ctx, c.userID, online, time.Now()); err != nil {
		c.log.Warn().Err(err).Bool("online", online).Msg("presence update failed")
	}
}

// goOffline marks the user offline during shutdown with a fresh context, since
// the run context is already cancelled by then.
func (c *Controller) goOffline() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.setPresence(ctx, false)
}
