package local

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/wirechat-client/internal/chat"
	"github.com/vovakirdan/wirechat-client/internal/platform"
)

const messageColumns = "id, sender_id, receiver_id, content, file_url, file_name, file_type, is_public, created_at"

// ListPublic returns all public messages ordered by creation time ascending.
func (b *Backend) ListPublic(ctx context.Context) ([]chat.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE is_public = 1
		ORDER BY created_at ASC, id ASC
	`
	return b.queryMessages(ctx, query)
}

// ListBetween returns private messages exchanged between two users.
func (b *Backend) ListBetween(ctx context.Context, userA, userB string) ([]chat.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE is_public = 0
		  AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))
		ORDER BY created_at ASC, id ASC
	`
	return b.queryMessages(ctx, query, userA, userB, userB, userA)
}

func (b *Backend) queryMessages(ctx context.Context, query string, args ...any) ([]chat.Message, error) {
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func scanMessage(rows *sql.Rows) (chat.Message, error) {
	var msg chat.Message
	var receiverID, content, fileURL, fileName, fileType sql.NullString
	if err := rows.Scan(
		&msg.ID,
		&msg.SenderID,
		&receiverID,
		&content,
		&fileURL,
		&fileName,
		&fileType,
		&msg.Public,
		&msg.CreatedAt,
	); err != nil {
		return chat.Message{}, fmt.Errorf("scan message: %w", err)
	}
	msg.ReceiverID = receiverID.String
	msg.Content = content.String
	if fileURL.Valid && fileURL.String != "" {
		msg.Attachment = &chat.Attachment{
			URL:  fileURL.String,
			Name: fileName.String,
			MIME: fileType.String,
		}
	}
	return msg, nil
}

// CreateMessage inserts a message, assigning a UUID and creation timestamp,
// then publishes an insert event to stream subscribers.
func (b *Backend) CreateMessage(ctx context.Context, msg *chat.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	stored := *msg
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()

	var receiverID, content, fileURL, fileName, fileType sql.NullString
	if stored.ReceiverID != "" {
		receiverID = sql.NullString{String: stored.ReceiverID, Valid: true}
	}
	if stored.Content != "" {
		content = sql.NullString{String: stored.Content, Valid: true}
	}
	if stored.Attachment != nil {
		fileURL = sql.NullString{String: stored.Attachment.URL, Valid: true}
		fileName = sql.NullString{String: stored.Attachment.Name, Valid: true}
		fileType = sql.NullString{String: stored.Attachment.MIME, Valid: true}
	}

	query := `
		INSERT INTO messages (` + messageColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := b.db.ExecContext(ctx, query,
		stored.ID,
		stored.SenderID,
		receiverID,
		content,
		fileURL,
		fileName,
		fileType,
		stored.Public,
		stored.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	b.hub.publish(platform.Event{
		Table:   platform.TableMessages,
		Op:      platform.OpInsert,
		Message: &stored,
	})
	return nil
}

// ListProfiles returns all profiles ordered by username.
func (b *Backend) ListProfiles(ctx context.Context) ([]chat.Profile, error) {
	query := `
		SELECT user_id, username, avatar_url, is_online, last_seen
		FROM profiles
		ORDER BY username ASC
	`
	return b.queryProfiles(ctx, query)
}

// ListProfilesByIDs returns the profiles for the given user IDs.
func (b *Backend) ListProfilesByIDs(ctx context.Context, ids []string) ([]chat.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	query := `
		SELECT user_id, username, avatar_url, is_online, last_seen
		FROM profiles
		WHERE user_id IN (` + placeholders + `)
		ORDER BY username ASC
	`
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return b.queryProfiles(ctx, query, args...)
}

func (b *Backend) queryProfiles(ctx context.Context, query string, args ...any) ([]chat.Profile, error) {
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []chat.Profile
	for rows.Next() {
		var p chat.Profile
		var avatarURL sql.NullString
		if err := rows.Scan(&p.UserID, &p.Username, &avatarURL, &p.Online, &p.LastSeen); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p.AvatarURL = avatarURL.String
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// SetPresence updates a profile's presence and publishes an update event.
func (b *Backend) SetPresence(ctx context.Context, userID string, online bool, at time.Time) error {
	query := `
		UPDATE profiles
		SET is_online = ?, last_seen = ?
		WHERE user_id = ?
	`
	result, err := b.db.ExecContext(ctx, query, online, at.UTC(), userID)
	if err != nil {
		return fmt.Errorf("update presence: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return platform.ErrNotFound
	}

	b.hub.publish(platform.Event{
		Table:   platform.TableProfiles,
		Op:      platform.OpUpdate,
		Profile: &chat.Profile{UserID: userID, Online: online, LastSeen: at},
	})
	return nil
}
