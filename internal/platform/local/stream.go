package local

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/platform"
)

// streamHub fans change events out to in-process subscribers.
type streamHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan<- platform.Event
	log    *zerolog.Logger
}

func newStreamHub(logger *zerolog.Logger) *streamHub {
	return &streamHub{
		subs: make(map[int]chan<- platform.Event),
		log:  logger,
	}
}

// Subscribe registers the channel for future events. The returned cancel
// function removes the subscription exactly once; it also runs when ctx is
// cancelled so an abandoned subscriber does not leak.
func (b *Backend) Subscribe(ctx context.Context, events chan<- platform.Event) (func(), error) {
	h := b.hub

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = events
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return cancel, nil
}

func (h *streamHub) publish(ev platform.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// Drop for slow consumers; the stream is at-least-once only in the
			// sense that consumers re-fetch, never that every event arrives.
			h.log.Debug().Int("subscriber", id).Str("table", ev.Table).Msg("dropped change event")
		}
	}
}

func (h *streamHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.subs {
		delete(h.subs, id)
	}
}
