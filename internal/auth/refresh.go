package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// refreshBuffer is how long before expiry we proactively refresh.
const refreshBuffer = 60 * time.Second

// TokenSource wraps an oauth2 token and refreshes it when it is close to
// expiry. Strava rotates refresh tokens on every refresh, so the onRefresh
// callback persists the new pair.
type TokenSource struct {
	mu        sync.Mutex
	config    *oauth2.Config
	token     *oauth2.Token
	onRefresh func(*oauth2.Token) error
}

// NewTokenSource creates a token source from a stored token. onRefresh is
// called with the new token after every successful refresh and may be nil.
func NewTokenSource(config *oauth2.Config, token *oauth2.Token, onRefresh func(*oauth2.Token) error) *TokenSource {
	return &TokenSource{
		config:    config,
		token:     token,
		onRefresh: onRefresh,
	}
}

// Token returns a valid access token, refreshing first if the current one
// expires within the buffer.
func (ts *TokenSource) Token(ctx context.Context) (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token.Valid() && time.Until(ts.token.Expiry) > refreshBuffer {
		return ts.token, nil
	}
	return ts.refreshLocked(ctx)
}

// Invalidate forces the next Token call to refresh. Used when the API
// rejects a token that still looks valid locally.
func (ts *TokenSource) Invalidate() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.token.Expiry = time.Now().Add(-time.Minute)
}

func (ts *TokenSource) refreshLocked(ctx context.Context) (*oauth2.Token, error) {
	src := ts.config.TokenSource(ctx, ts.token)
	newToken, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}
	ts.token = newToken

	if ts.onRefresh != nil {
		if err := ts.onRefresh(newToken); err != nil {
			return nil, fmt.Errorf("persisting refreshed token: %w", err)
		}
	}
	return ts.token, nil
}
