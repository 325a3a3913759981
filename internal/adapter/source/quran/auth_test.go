package quran

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/tilawa/internal/adapter"
	"github.com/mmcdole/tilawa/internal/domain"
	"github.com/mmcdole/tilawa/internal/store"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTokenStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// newAuthServer issues tokens tok-1, tok-2, ... with the given lifetime
func newAuthServer(t *testing.T, expiresIn int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"invalid_client"}`)
			return
		}
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "content", r.PostForm.Get("scope"))

		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"tok-%d","token_type":"bearer","expires_in":%d,"scope":"content"}`, n, expiresIn)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestGetTokenCachesUntilExpiry(t *testing.T) {
	ctx := context.Background()
	srv, calls := newAuthServer(t, 3600)
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewTokenManager(srv.URL, "client", "secret", newTokenStore(t), adapter.NullLogger(), WithTokenClock(clock.Now))

	tok, err := m.GetToken(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.AccessToken)
	assert.True(t, tok.ExpiresAt.Equal(clock.t.Add(59*time.Minute)))
	assert.True(t, tok.ExpiresAt.After(clock.Now()))

	tok, err = m.GetToken(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.AccessToken)
	assert.Equal(t, int32(1), calls.Load())

	// A token expiring exactly now is stale.
	clock.Advance(59 * time.Minute)
	tok, err = m.GetToken(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok.AccessToken)
	assert.True(t, tok.ExpiresAt.After(clock.Now()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetTokenForceFresh(t *testing.T) {
	ctx := context.Background()
	srv, calls := newAuthServer(t, 3600)
	m := NewTokenManager(srv.URL, "client", "secret", newTokenStore(t), adapter.NullLogger())

	_, err := m.GetToken(ctx, false)
	require.NoError(t, err)

	tok, err := m.GetToken(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok.AccessToken)
	assert.Equal(t, int32(2), calls.Load())

	// The forced token becomes the cached one.
	tok, err = m.GetToken(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok.AccessToken)
}

func TestGetTokenPurgesExpired(t *testing.T) {
	ctx := context.Background()
	srv, _ := newAuthServer(t, 120)
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	tokens := newTokenStore(t)
	m := NewTokenManager(srv.URL, "client", "secret", tokens, adapter.NullLogger(), WithTokenClock(clock.Now))

	_, err := m.GetToken(ctx, false)
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	_, err = m.GetToken(ctx, false)
	require.NoError(t, err)

	purged, err := tokens.PurgeExpiredTokens(ctx, clock.Now())
	require.NoError(t, err)
	assert.Zero(t, purged)
}

func TestGetTokenRejectedCredentials(t *testing.T) {
	srv, calls := newAuthServer(t, 3600)
	m := NewTokenManager(srv.URL, "client", "wrong", newTokenStore(t), adapter.NullLogger())

	_, err := m.GetToken(context.Background(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCredentials)
	assert.NotErrorIs(t, err, domain.ErrContentFetch)
	assert.Zero(t, calls.Load())
}

func TestGetTokenUnreachable(t *testing.T) {
	srv, _ := newAuthServer(t, 3600)
	srv.Close()
	m := NewTokenManager(srv.URL, "client", "secret", newTokenStore(t), adapter.NullLogger())

	_, err := m.GetToken(context.Background(), false)
	assert.ErrorIs(t, err, domain.ErrCredentials)
	assert.ErrorIs(t, err, domain.ErrServerOffline)
}

func TestGetTokenLifetimeShorterThanMargin(t *testing.T) {
	srv, _ := newAuthServer(t, 60)
	m := NewTokenManager(srv.URL, "client", "secret", newTokenStore(t), adapter.NullLogger())

	_, err := m.GetToken(context.Background(), false)
	assert.ErrorIs(t, err, domain.ErrCredentials)
}
