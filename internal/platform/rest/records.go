package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vovakirdan/wirechat-client/internal/chat"
)

// messageRecord is the wire shape of a row in the messages table.
type messageRecord struct {
	ID         string    `json:"id,omitempty"`
	SenderID   string    `json:"sender_id"`
	ReceiverID *string   `json:"receiver_id,omitempty"`
	Content    *string   `json:"content,omitempty"`
	FileURL    *string   `json:"file_url,omitempty"`
	FileName   *string   `json:"file_name,omitempty"`
	FileType   *string   `json:"file_type,omitempty"`
	IsPublic   bool      `json:"is_public"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
}

// profileRecord is the wire shape of a row in the profiles table.
type profileRecord struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	IsOnline  bool      `json:"is_online"`
	LastSeen  time.Time `json:"last_seen,omitzero"`
}

func (r messageRecord) toMessage() chat.Message {
	m := chat.Message{
		ID:        r.ID,
		SenderID:  r.SenderID,
		Public:    r.IsPublic,
		CreatedAt: r.CreatedAt,
	}
	if r.ReceiverID != nil {
		m.ReceiverID = *r.ReceiverID
	}
	if r.Content != nil {
		m.Content = *r.Content
	}
	if r.FileURL != nil && *r.FileURL != "" {
		att := &chat.Attachment{URL: *r.FileURL}
		if r.FileName != nil {
			att.Name = *r.FileName
		}
		if r.FileType != nil {
			att.MIME = *r.FileType
		}
		m.Attachment = att
	}
	return m
}

func messageToRecord(m *chat.Message) messageRecord {
	rec := messageRecord{
		SenderID: m.SenderID,
		IsPublic: m.Public,
	}
	if m.ReceiverID != "" {
		rec.ReceiverID = &m.ReceiverID
	}
	if m.Content != "" {
		rec.Content = &m.Content
	}
	if m.Attachment != nil {
		rec.FileURL = &m.Attachment.URL
		rec.FileName = &m.Attachment.Name
		rec.FileType = &m.Attachment.MIME
	}
	return rec
}

func (r profileRecord) toProfile() chat.Profile {
	p := chat.Profile{
		UserID:   r.UserID,
		Username: r.Username,
		Online:   r.IsOnline,
		LastSeen: r.LastSeen,
	}
	if r.AvatarURL != nil {
		p.AvatarURL = *r.AvatarURL
	}
	return p
}

// ListPublic returns all public messages ordered by creation time ascending.
func (c *Client) ListPublic(ctx context.Context) ([]chat.Message, error) {
	q := url.Values{}
	q.Set("is_public", "eq.true")
	q.Set("order", "created_at.asc")
	return c.listMessages(ctx, q)
}

// ListBetween returns the private messages exchanged between two users in
// either direction, ordered by creation time ascending.
func (c *Client) ListBetween(ctx context.Context, userA, userB string) ([]chat.Message, error) {
	q := url.Values{}
	q.Set("is_public", "eq.false")
	q.Set("or", fmt.Sprintf(
		"(and(sender_id.eq.%s,receiver_id.eq.%s),and(sender_id.eq.%s,receiver_id.eq.%s))",
		userA, userB, userB, userA,
	))
	q.Set("order", "created_at.asc")
	return c.listMessages(ctx, q)
}

func (c *Client) listMessages(ctx context.Context, q url.Values) ([]chat.Message, error) {
	var records []messageRecord
	if err := c.doJSON(ctx, http.MethodGet, c.restURL("messages", q), nil, &records); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	msgs := make([]chat.Message, 0, len(records))
	for _, rec := range records {
		msgs = append(msgs, rec.toMessage())
	}
	return msgs, nil
}

// CreateMessage inserts a new message row. The server assigns ID and CreatedAt;
// the view catches up through the change notification rather than the response.
func (c *Client) CreateMessage(ctx context.Context, msg *chat.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	body := []messageRecord{messageToRecord(msg)}
	if err := c.doJSON(ctx, http.MethodPost, c.restURL("messages", nil), body, nil); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// ListProfiles returns all profiles.
func (c *Client) ListProfiles(ctx context.Context) ([]chat.Profile, error) {
	q := url.Values{}
	q.Set("order", "username.asc")
	return c.listProfiles(ctx, q)
}

// ListProfilesByIDs returns the profiles for the given user IDs.
func (c *Client) ListProfilesByIDs(ctx context.Context, ids []string) ([]chat.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := url.Values{}
	q.Set("user_id", "in.("+strings.Join(ids, ",")+")")
	return c.listProfiles(ctx, q)
}

func (c *Client) listProfiles(ctx context.Context, q url.Values) ([]chat.Profile, error) {
	var records []profileRecord
	if err := c.doJSON(ctx, http.MethodGet, c.restURL("profiles", q), nil, &records); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	profiles := make([]chat.Profile, 0, len(records))
	for _, rec := range records {
		profiles = append(profiles, rec.toProfile())
	}
	return profiles, nil
}

// SetPresence updates a user's online flag and last-seen timestamp.
func (c *Client) SetPresence(ctx context.Context, userID string, online bool, at time.Time) error {
	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	patch := map[string]any{
		"is_online": online,
		"last_seen": at.UTC().Format(time.RFC3339),
	}
	if err := c.doJSON(ctx, http.MethodPatch, c.restURL("profiles", q), patch, nil); err != nil {
		return fmt.Errorf("set presence: %w", err)
	}
	return nil
}

// decodeEventRecord decodes a change-feed payload for the given table.
func decodeEventRecord(table string, raw json.RawMessage) (*chat.Message, *chat.Profile, error) {
	switch table {
	case "messages":
		var rec messageRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, nil, fmt.Errorf("decode message record: %w", err)
		}
		m := rec.toMessage()
		return &m, nil, nil
	case "profiles":
		var rec profileRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, nil, fmt.Errorf("decode profile record: %w", err)
		}
		p := rec.toProfile()
		return nil, &p, nil
	default:
		return nil, nil, nil
	}
}
