package session

import (
	"strings"
	"sync"
	"time"
)

const Anonymous = "anonymous"

// Context holds the bearer credential for one user. It is written by Init
// and Clear only and read by every component that talks to the backend.
type Context struct {
	mu       sync.RWMutex
	provider IdentityProvider
	now      func() time.Time

	token    string
	identity Identity
}

func NewContext(provider IdentityProvider) *Context {
	return &Context{provider: provider, now: time.Now}
}

// Init replaces the credential. On a token that cannot be decoded the
// session is left cleared.
func (c *Context) Init(token string) error {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))

	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = ""
	c.identity = Identity{}
	if token == "" {
		return ErrInvalidToken
	}

	identity, err := c.provider.Identify(token)
	if err != nil {
		return err
	}

	c.token = token
	c.identity = identity
	return nil
}

func (c *Context) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authenticatedLocked()
}

func (c *Context) authenticatedLocked() bool {
	if c.token == "" {
		return false
	}
	return c.identity.ExpiresAt.IsZero() || c.now().Before(c.identity.ExpiresAt)
}

func (c *Context) CurrentUser() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.authenticatedLocked() {
		return Anonymous
	}
	return c.identity.DisplayName
}

// Subject is the stable user id from the token, falling back to the
// display name when the token has none.
func (c *Context) Subject() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.authenticatedLocked() {
		return ""
	}
	if c.identity.Subject != "" {
		return c.identity.Subject
	}
	return c.identity.DisplayName
}

func (c *Context) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.identity = Identity{}
}
