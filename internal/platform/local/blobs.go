package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Upload writes the object under the configured blob directory. The path uses
// forward slashes ({senderID}/{epoch-millis}.{ext}) and is mapped onto the
// local filesystem.
func (b *Backend) Upload(ctx context.Context, path string, r io.Reader, size int64, mimeType string) error {
	if b.blobDir == "" {
		return fmt.Errorf("blob directory not configured")
	}

	target := filepath.Join(b.blobDir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create blob directory: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create blob: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(target)
		return fmt.Errorf("write blob: %w", err)
	}
	return nil
}

// PublicURL returns a file URL for a stored object.
func (b *Backend) PublicURL(path string) string {
	abs, err := filepath.Abs(filepath.Join(b.blobDir, filepath.FromSlash(path)))
	if err != nil {
		abs = filepath.Join(b.blobDir, filepath.FromSlash(path))
	}
	return "file://" + filepath.ToSlash(abs)
}
