package chat

import (
	"errors"
	"time"
)

var (
	// ErrEmptyMessage is returned when a message carries neither text nor an attachment.
	ErrEmptyMessage = errors.New("message has no content and no attachment")
	// ErrMissingReceiver is returned when a private message has no receiver.
	ErrMissingReceiver = errors.New("private message requires a receiver")
	// ErrUnexpectedReceiver is returned when a public message names a receiver.
	ErrUnexpectedReceiver = errors.New("public message must not name a receiver")
)

// Attachment describes a file shared within a message. The URL points at the
// blob store's public location; Name and MIME are preserved for rendering.
type Attachment struct {
	URL  string
	Name string
	MIME string
}

// Message is a single chat utterance or file share. Messages are created once
// and never modified afterwards; the ID is assigned by the backing store.
type Message struct {
	ID         string
	SenderID   string
	ReceiverID string // set only for private messages
	Content    string
	Attachment *Attachment
	Public     bool
	CreatedAt  time.Time
}

// Validate checks the message invariants before it is handed to the store.
func (m *Message) Validate() error {
	if m.Content == "" && m.Attachment == nil {
		return ErrEmptyMessage
	}
	if m.Public && m.ReceiverID != "" {
		return ErrUnexpectedReceiver
	}
	if !m.Public && m.ReceiverID == "" {
		return ErrMissingReceiver
	}
	return nil
}
