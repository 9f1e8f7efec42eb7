package sync

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

// MaxAttachmentSize is the largest accepted attachment, enforced before any
// upload attempt.
const MaxAttachmentSize = 10 << 20 // 10 MiB

var (
	// ErrAttachmentTooLarge is returned for attachments over MaxAttachmentSize.
	ErrAttachmentTooLarge = errors.New("attachment larger than 10 MiB")
	// ErrAttachmentType is returned for attachments outside the accepted types.
	ErrAttachmentType = errors.New("attachment type not supported")
)

// allowedAttachmentTypes are the MIME types accepted for upload: images,
// PDFs, plain text and Word documents.
var allowedAttachmentTypes = map[string]struct{}{
	"image/jpeg":         {},
	"image/png":          {},
	"image/gif":          {},
	"image/webp":         {},
	"application/pdf":    {},
	"text/plain":         {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

// ValidateAttachment rejects oversized or disallowed files. It runs entirely
// locally; a rejection never reaches the network.
func ValidateAttachment(name, mimeType string, size int64) error {
	if size > MaxAttachmentSize {
		return fmt.Errorf("%q is %d bytes: %w", name, size, ErrAttachmentTooLarge)
	}
	if _, ok := allowedAttachmentTypes[mimeType]; !ok {
		return fmt.Errorf("%q has type %q: %w", name, mimeType, ErrAttachmentType)
	}
	return nil
}

// attachmentPath builds the blob-store path {senderID}/{epoch-millis}.{ext}.
func attachmentPath(senderID, name string, now time.Time) string {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s/%d.%s", senderID, now.UnixMilli(), ext)
}
