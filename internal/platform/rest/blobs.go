package rest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Upload stores an object in the attachments bucket.
func (c *Client) Upload(ctx context.Context, path string, r io.Reader, size int64, mimeType string) error {
	rawURL := c.baseURL + "/storage/v1/object/" + c.bucket + "/" + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, r)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	c.setAuthHeaders(req)
	if mimeType != "" {
		req.Header.Set("Content-Type", mimeType)
	}
	if size > 0 {
		req.ContentLength = size
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upload %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

// PublicURL returns the publicly resolvable URL for a stored object. The URL
// is derived from the bucket layout; no request is made.
func (c *Client) PublicURL(path string) string {
	return c.baseURL + "/storage/v1/object/public/" + c.bucket + "/" + path
}
