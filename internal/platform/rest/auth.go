package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vovakirdan/wirechat-client/internal/platform"
)

// CurrentUser derives the signed-in user's ID from the session access token.
// The token's claims are read without local signature verification; the
// backend verifies the signature on every request, the client only needs the
// subject. An absent or expired token yields ErrNoSession.
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	token := c.accessToken()
	if token == "" {
		return "", platform.ErrNoSession
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return "", fmt.Errorf("parse access token: %w", err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("access token has no subject: %w", platform.ErrNoSession)
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		c.log.Warn().Time("expired_at", claims.ExpiresAt.Time).Msg("session token expired")
		return "", fmt.Errorf("access token expired: %w", platform.ErrNoSession)
	}

	return claims.Subject, nil
}

// SignOut revokes the session on the auth service.
func (c *Client) SignOut(ctx context.Context) error {
	if c.accessToken() == "" {
		return platform.ErrNoSession
	}
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", nil, nil); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	return nil
}
