package quran

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/tilawa/internal/domain"
)

const (
	authTimeout = 30 * time.Second

	// expiryMargin is subtracted from the server lifetime so a token never
	// expires between the validity check and its use.
	expiryMargin = 60 * time.Second

	contentScope = "content"
)

// TokenManager implements domain.TokenSource with the OAuth2
// client-credentials flow, caching tokens in a domain.TokenStore.
type TokenManager struct {
	authURL      string
	clientID     string
	clientSecret string
	store        domain.TokenStore
	httpClient   *http.Client
	now          func() time.Time
	logger       *slog.Logger

	// Serializes refreshes so concurrent callers share one exchange
	mu sync.Mutex
}

var _ domain.TokenSource = (*TokenManager)(nil)

// TokenOption configures a TokenManager
type TokenOption func(*TokenManager)

// WithTokenClock overrides the clock used for expiry decisions
func WithTokenClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) { m.now = now }
}

// WithTokenHTTPClient overrides the HTTP client used for the exchange
func WithTokenHTTPClient(c *http.Client) TokenOption {
	return func(m *TokenManager) { m.httpClient = c }
}

// NewTokenManager creates a token manager for the given authorization endpoint
func NewTokenManager(authURL, clientID, clientSecret string, store domain.TokenStore, logger *slog.Logger, opts ...TokenOption) *TokenManager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &TokenManager{
		authURL:      authURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		store:        store,
		httpClient:   &http.Client{Timeout: authTimeout},
		now:          time.Now,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetToken returns the latest stored token while it is strictly unexpired.
// Otherwise, or when forceFresh is set, it exchanges the client credentials.
func (m *TokenManager) GetToken(ctx context.Context, forceFresh bool) (domain.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !forceFresh {
		tok, ok, err := m.store.LatestToken(ctx)
		if err != nil {
			return domain.Token{}, fmt.Errorf("failed to load token: %w", err)
		}
		if ok && tok.Valid(m.now()) {
			return tok, nil
		}
	}

	return m.refresh(ctx)
}

func (m *TokenManager) refresh(ctx context.Context) (domain.Token, error) {
	resp, err := m.exchange(ctx)
	if err != nil {
		return domain.Token{}, err
	}

	lifetime := time.Duration(resp.ExpiresIn) * time.Second
	if lifetime <= expiryMargin {
		return domain.Token{}, fmt.Errorf("%w: token lifetime %s is shorter than the expiry margin", domain.ErrCredentials, lifetime)
	}

	now := m.now()
	tok := domain.Token{
		AccessToken: resp.AccessToken,
		ExpiresAt:   now.Add(lifetime - expiryMargin),
		CreatedAt:   now,
	}
	if err := m.store.SaveToken(ctx, tok); err != nil {
		return domain.Token{}, fmt.Errorf("failed to save token: %w", err)
	}

	purged, err := m.store.PurgeExpiredTokens(ctx, now)
	if err != nil {
		m.logger.Warn("failed to purge expired tokens", "error", err)
	} else if purged > 0 {
		m.logger.Debug("purged expired tokens", "count", purged)
	}

	m.logger.Info("obtained access token", "expiresAt", tok.ExpiresAt)
	return tok, nil
}

// exchange performs the client-credentials request. Any failure is a credential failure.
func (m *TokenManager) exchange(ctx context.Context) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", contentScope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", domain.ErrCredentials, err)
	}
	req.SetBasicAuth(m.clientID, m.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		m.logger.Error("token request failed", "error", err)
		return nil, fmt.Errorf("%w: %w: %v", domain.ErrCredentials, domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrCredentials, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		m.logger.Error("token request rejected", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrCredentials, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse token response: %v", domain.ErrCredentials, err)
	}
	if err := tokenResp.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCredentials, err)
	}
	return &tokenResp, nil
}
