package cleanup

import (
	"context"
	"errors"
	"sync"

	"bddkit/internal/config"
	"bddkit/internal/transport"
	"bddkit/pkg/logging"
)

// CredentialCache holds the admin bearer token used to authorize cleanup
// requests. One cache lives for the whole process and is shared by every
// scenario; it is filled lazily and cleared when a cleanup request is
// rejected with 401 or 403.
type CredentialCache struct {
	loginPath   string
	credentials config.Credentials
	metrics     *Metrics

	mu    sync.Mutex
	token string
}

// NewCredentialCache returns an empty cache that logs in at loginPath.
func NewCredentialCache(loginPath string, creds config.Credentials) *CredentialCache {
	if loginPath == "" {
		loginPath = config.DefaultLoginPath
	}
	return &CredentialCache{
		loginPath:   loginPath,
		credentials: creds,
	}
}

// Token returns the cached token, logging in through r when the cache is
// empty. A failed login is logged and reported as ("", false); the cache
// stays empty so the next caller tries again.
func (c *CredentialCache) Token(ctx context.Context, r transport.Requester) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, true
	}

	result, err := transport.FormLogin(ctx, r, c.loginPath, c.credentials.Username, c.credentials.Password)
	if c.metrics != nil {
		c.metrics.recordLogin(err == nil)
	}
	if err != nil {
		if errors.Is(err, transport.ErrNoToken) {
			logging.Warn("Cleanup", "Admin login for cleanup returned %d without access_token; continuing unauthenticated", result.Status)
		} else {
			logging.WarnErr("Cleanup", err, "Admin login for cleanup failed; continuing unauthenticated")
		}
		return "", false
	}

	c.token = result.Token
	return c.token, true
}

// Cached returns the token without logging in.
func (c *CredentialCache) Cached() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.token != ""
}

// Invalidate drops the cached token.
func (c *CredentialCache) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}
