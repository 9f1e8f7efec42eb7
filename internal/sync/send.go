package sync

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vovakirdan/wirechat-client/internal/chat"
)

// Outgoing is an attachment payload selected for sending.
type Outgoing struct {
	Name string
	MIME string
	Size int64
	Data io.Reader
}

// Send creates a message in the active scope from optional text and/or an
// attachment. The attachment, if any, is validated locally, uploaded to the
// blob store, and resolved to a public URL before the message record is
// created. Sending is fire-and-forget for the view: the displayed list catches
// up through the subsequent change notification, not through local insertion.
func (c *Controller) Send(ctx context.Context, text string, att *Outgoing) error {
	text = strings.TrimSpace(text)
	if text == "" && att == nil {
		return chat.ErrEmptyMessage
	}

	scope := c.activeScope()
	msg := &chat.Message{
		SenderID: c.userID,
		Content:  text,
		Public:   scope.IsPublic(),
	}
	if !scope.IsPublic() {
		msg.ReceiverID = scope.Peer(c.userID)
	}

	if att != nil {
		if err := ValidateAttachment(att.Name, att.MIME, att.Size); err != nil {
			return err
		}

		blobPath := attachmentPath(c.userID, att.Name, time.Now())
		if err := c.pf.Upload(ctx, blobPath, att.Data, att.Size, att.MIME); err != nil {
			c.log.Warn().Err(err).Str("path", blobPath).Msg("attachment upload failed")
			c.notify("Failed to upload attachment")
			return fmt.Errorf("upload attachment: %w", err)
		}

		msg.Attachment = &chat.Attachment{
			URL:  c.pf.PublicURL(blobPath),
			Name: att.Name,
			MIME: att.MIME,
		}
	}

	if err := c.pf.CreateMessage(ctx, msg); err != nil {
		c.log.Warn().Err(err).Str("scope", scope.Key()).Msg("send failed")
		c.notify("Failed to send message")
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}
