package igdb

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Provider is the oauth_tokens row key for the IGDB (Twitch) app token.
const Provider = "twitch"

// DefaultTokenURL is the Twitch client-credentials token endpoint.
const DefaultTokenURL = "https://id.twitch.tv/oauth2/token"

// TokenStore persists tokens across restarts. *db.TokenStoreAdapter satisfies it.
type TokenStore interface {
	GetOAuthToken(ctx context.Context, provider string) (access, refresh string, expiry time.Time, scope string, err error)
	UpsertOAuthToken(ctx context.Context, provider, access, refresh string, expiry time.Time, scope string) error
}

// TokenSource fetches and caches a Twitch app access (client credentials)
// token for IGDB calls. When a Store is attached, a still-valid stored token
// is reused before hitting the network, and freshly fetched tokens are
// written back so the refresher and the pipeline share one row.
type TokenSource struct {
	ClientID     string
	ClientSecret string
	Store        TokenStore
	HTTPClient   *http.Client
	TokenURL     string

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

func (ts *TokenSource) tokenURL() string {
	if ts.TokenURL != "" {
		return ts.TokenURL
	}
	return DefaultTokenURL
}

// Get returns a valid (fresh or cached) app access token.
func (ts *TokenSource) Get(ctx context.Context) (string, error) {
	ts.mu.RLock()
	if ts.token != "" && time.Until(ts.expiresAt) > 60*time.Second { // 1 min buffer
		tok := ts.token
		ts.mu.RUnlock()
		return tok, nil
	}
	ts.mu.RUnlock()
	return ts.refresh(ctx)
}

func (ts *TokenSource) refresh(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.token != "" && time.Until(ts.expiresAt) > 60*time.Second {
		return ts.token, nil
	}
	if ts.ClientID == "" || ts.ClientSecret == "" {
		return "", errors.New("missing client id/secret for twitch app token")
	}

	if ts.Store != nil {
		access, _, expiry, _, err := ts.Store.GetOAuthToken(ctx, Provider)
		if err == nil && access != "" && time.Until(expiry) > 60*time.Second {
			ts.token = access
			ts.expiresAt = expiry
			return ts.token, nil
		}
	}

	tok, err := ts.Fetch(ctx)
	if err != nil {
		return "", err
	}
	ts.token = tok.AccessToken
	ts.expiresAt = tok.Expiry

	if ts.Store != nil {
		if err := ts.Store.UpsertOAuthToken(ctx, Provider, tok.AccessToken, "", tok.Expiry, ""); err != nil {
			slog.Warn("token persist failed", slog.String("provider", Provider), slog.Any("err", err))
		}
	}
	return ts.token, nil
}

// Fetch requests a brand-new app token from the identity endpoint, bypassing
// caches. The refresher uses it directly for its scheduled renewals.
func (ts *TokenSource) Fetch(ctx context.Context) (*oauth2.Token, error) {
	if ts.ClientID == "" || ts.ClientSecret == "" {
		return nil, errors.New("missing client id/secret for twitch app token")
	}
	if ts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, ts.HTTPClient)
	}
	cc := &clientcredentials.Config{
		ClientID:     ts.ClientID,
		ClientSecret: ts.ClientSecret,
		TokenURL:     ts.tokenURL(),
	}
	tok, err := cc.Token(ctx)
	if err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, errors.New("empty access_token in twitch response")
	}
	return tok, nil
}
