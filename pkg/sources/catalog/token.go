package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/emberworks/content-sync/pkg/srcerr"
)

// refreshMargin keeps a safety window before expiry: a token is considered
// stale once now >= expires_at - margin.
const refreshMargin = 60 * time.Second

// TokenSource caches one client-credentials token in process memory. Each
// cold process starts empty and performs one refresh before first use; there
// is no background refresh and no cross-process sharing.
type TokenSource struct {
	mu      sync.Mutex
	conf    *clientcredentials.Config
	cached  *oauth2.Token
	nowFunc func() time.Time
	fetch   func(ctx context.Context) (*oauth2.Token, error)
}

func NewTokenSource(clientID, clientSecret, tokenURL string) *TokenSource {
	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	ts := &TokenSource{
		conf:    conf,
		nowFunc: time.Now,
	}
	ts.fetch = func(ctx context.Context) (*oauth2.Token, error) {
		return conf.Token(ctx)
	}
	return ts
}

// Token returns a valid access token, refreshing lazily when the cached one
// is inside the expiry margin. Missing credentials are a configuration
// problem, reported as such and never as an authorization failure.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	if t.conf.ClientID == "" || t.conf.ClientSecret == "" {
		return "", srcerr.New(srcerr.NotConfigured, "catalog",
			errors.New("catalog client credentials are not configured; set CATALOG_CLIENT_ID and CATALOG_CLIENT_SECRET"))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.nowFunc()
	if t.cached != nil && now.Before(t.cached.Expiry.Add(-refreshMargin)) {
		return t.cached.AccessToken, nil
	}

	token, err := t.fetch(ctx)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && (retrieveErr.Response.StatusCode == 401 || retrieveErr.Response.StatusCode == 403) {
			return "", srcerr.New(srcerr.Unauthorized, "catalog", err)
		}
		return "", srcerr.New(srcerr.Upstream, "catalog", err)
	}

	t.cached = token
	return token.AccessToken, nil
}

// ClientID is sent alongside the bearer token on catalog requests.
func (t *TokenSource) ClientID() string {
	return t.conf.ClientID
}
