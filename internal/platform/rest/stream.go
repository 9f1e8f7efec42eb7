package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirechat-client/internal/platform"
)

// subscribeFrame is sent once after dialing to select the tables of interest.
type subscribeFrame struct {
	Type   string   `json:"type"`
	Tables []string `json:"tables"`
}

// eventEnvelope is one change notification as delivered over the socket.
type eventEnvelope struct {
	Table string          `json:"table"`
	Op    string          `json:"op"`
	New   json.RawMessage `json:"new"`
}

// Subscribe opens the change feed and delivers decoded events to the channel
// until cancel is called or ctx is done. The feed covers inserts on messages
// and every change on profiles. The returned cancel function tears the socket
// down exactly once regardless of how many times it is invoked.
func (c *Client) Subscribe(ctx context.Context, events chan<- platform.Event) (func(), error) {
	wsURL := websocketURL(c.baseURL) + "/realtime/v1/stream"
	if c.apiKey != "" {
		wsURL += "?apikey=" + c.apiKey
	}

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial change feed: %w", err)
	}

	streamCtx, cancelCtx := context.WithCancel(ctx)

	frame := subscribeFrame{Type: "subscribe", Tables: []string{platform.TableMessages, platform.TableProfiles}}
	if err := wsjson.Write(streamCtx, conn, frame); err != nil {
		cancelCtx()
		conn.Close(websocket.StatusInternalError, "subscribe failed")
		return nil, fmt.Errorf("send subscribe frame: %w", err)
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			cancelCtx()
			conn.Close(websocket.StatusNormalClosure, "unsubscribe")
		})
	}

	go c.readLoop(streamCtx, conn, events, cancel)

	return cancel, nil
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, events chan<- platform.Event, cancel func()) {
	defer cancel()

	for {
		var env eventEnvelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			if errors.Is(err, context.Canceled) || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return
			}
			c.log.Warn().Err(err).Msg("change feed closed")
			return
		}

		msg, profile, err := decodeEventRecord(env.Table, env.New)
		if err != nil {
			c.log.Warn().Err(err).Str("table", env.Table).Msg("skipping malformed change event")
			continue
		}
		if msg == nil && profile == nil {
			continue
		}

		ev := platform.Event{Table: env.Table, Op: env.Op, Message: msg, Profile: profile}
		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func websocketURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}
