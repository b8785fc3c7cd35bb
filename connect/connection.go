// Package connect turns stored connection records into live provider-bound connections.
package connect

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"go.pilab.hu/connections/domain"
)

// Connection is a stored connection bound to the OAuth2 configuration of its provider.
// It is safe for concurrent use.
type Connection struct {
	config *oauth2.Config
	client *http.Client
	now    func() time.Time

	mu     sync.RWMutex
	record *domain.ConnectionRecord
}

func newConnection(config *oauth2.Config, client *http.Client, record *domain.ConnectionRecord, now func() time.Time) *Connection {
	return &Connection{config: config, client: client, record: record.Clone(), now: now}
}

// context attaches the configured HTTP client for the oauth2 package.
func (c *Connection) context(ctx context.Context) context.Context {
	if c.client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, c.client)
}

func (c *Connection) Key() domain.ConnectionKey {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.record.Key()
}

// Record returns a copy of the current state of the connection, suitable for storing.
func (c *Connection) Record() *domain.ConnectionRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.record.Clone()
}

func (c *Connection) DisplayName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.record.DisplayName
}

func (c *Connection) IDToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.record.IDToken()
}

// HasExpired reports whether the access token is past its expire time.
func (c *Connection) HasExpired() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.record.HasExpired(c.now())
}

// Token returns the stored credentials as an OAuth2 token.
func (c *Connection) Token() *oauth2.Token {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return tokenOf(c.record)
}

// Client returns an HTTP client that authenticates requests with the connection's token,
// refreshing it through the provider when it has expired.
func (c *Connection) Client(ctx context.Context) *http.Client {
	return c.config.Client(c.context(ctx), c.Token())
}

// Refresh exchanges the refresh token for new credentials and stores them on the connection.
// The caller persists the result with UpdateConnection.
func (c *Connection) Refresh(ctx context.Context) error {
	c.mu.RLock()
	refreshToken := c.record.RefreshToken
	key := c.record.Key()
	c.mu.RUnlock()

	if refreshToken == "" {
		return fmt.Errorf("%w: %s", ErrNoRefreshToken, key)
	}

	token, err := c.config.TokenSource(c.context(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return fmt.Errorf("refresh %s: %w", key, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	applyToken(c.record, token)
	return nil
}

func tokenOf(record *domain.ConnectionRecord) *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  record.AccessToken,
		RefreshToken: record.RefreshToken,
		TokenType:    "Bearer",
	}
	if record.ExpireTime != nil {
		token.Expiry = *record.ExpireTime
	}
	if idToken := record.IDToken(); idToken != "" {
		token = token.WithExtra(map[string]any{domain.ExtensionIDToken: idToken})
	}
	return token
}

// applyToken copies the credentials of token into record. A token without a refresh token
// keeps the previous one, since most providers only rotate it occasionally.
func applyToken(record *domain.ConnectionRecord, token *oauth2.Token) {
	record.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		record.RefreshToken = token.RefreshToken
	}

	record.ExpireTime = nil
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		record.ExpireTime = &expiry
	}

	if idToken, ok := token.Extra(domain.ExtensionIDToken).(string); ok && idToken != "" {
		if record.Extension == nil {
			record.Extension = make(map[string]string, 1)
		}
		record.Extension[domain.ExtensionIDToken] = idToken
	}
}
