package sessionstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeanGrijp/go-csrfguard/csrf"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// exerciseSession runs the accessor contract shared by every store.
func exerciseSession(t *testing.T, s csrf.Session) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "csrf_id")
	require.NoError(t, err)
	assert.False(t, ok, "fresh session should be empty")

	require.NoError(t, s.Set(ctx, "csrf_id", "first"))
	v, ok, err := s.Get(ctx, "csrf_id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "first", v)

	if as, ok := s.(csrf.AtomicSetter); ok {
		won, err := as.SetIfAbsent(ctx, "csrf_id", "second")
		require.NoError(t, err)
		assert.Equal(t, "first", won, "existing value must win")

		won, err = as.SetIfAbsent(ctx, "other", "fresh")
		require.NoError(t, err)
		assert.Equal(t, "fresh", won)
	}
}

func TestMemorySession(t *testing.T) {
	m := NewMemory()
	exerciseSession(t, m.Session("abc123"))
	assert.Equal(t, 1, m.Len())
}

func TestMemoryLoadIssuesCookie(t *testing.T) {
	m := NewMemory(WithCookie(Cookie{Name: "sid", Secure: true, HTTPOnly: true}))

	rec := httptest.NewRecorder()
	s, err := m.Load(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	c := responseCookie(rec, "sid")
	require.NotNil(t, c, "expected session cookie")
	assert.Equal(t, s.ID(), c.Value)
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)

	// the same cookie resolves to the same session
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	rec2 := httptest.NewRecorder()
	again, err := m.Load(rec2, req)
	require.NoError(t, err)
	assert.Equal(t, s.ID(), again.ID())
	assert.Nil(t, responseCookie(rec2, "sid"), "known session should not be reissued")
}

func TestWithCookieCopiesHTTPOnly(t *testing.T) {
	assert.True(t, applyOptions(nil).cookie.HTTPOnly)
	assert.False(t, applyOptions([]Option{WithCookie(Cookie{Name: "sid"})}).cookie.HTTPOnly)

	m := NewMemory(WithCookie(Cookie{Name: "sid"}))
	rec := httptest.NewRecorder()
	_, err := m.Load(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	c := responseCookie(rec, "sid")
	require.NotNil(t, c)
	assert.False(t, c.HttpOnly)
}

// Cookieless clients do not pile up sessions past the TTL.
func TestMemoryEvictsIdleSessions(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(WithTTL(time.Hour))
	m.now = func() time.Time { return now }
	g := csrf.MustNew(csrf.Config{Sessions: m.Load})

	h := g.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = g.Token(r)
	}))
	for i := 0; i < 500; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	assert.Equal(t, 500, m.Len())

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 0, m.Len(), "idle sessions should no longer count")

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	m.mu.Lock()
	held := len(m.data)
	m.mu.Unlock()
	assert.Equal(t, 1, held, "sweep should drop idle sessions")
}

// A session used more often than its TTL keeps its csrf id.
func TestMemorySessionSlidesExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(WithTTL(time.Hour))
	m.now = func() time.Time { return now }
	g := csrf.MustNew(csrf.Config{})
	ctx := context.Background()

	s := m.Session("abc123")
	first, err := g.CurrentToken(ctx, s)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		now = now.Add(20 * time.Minute)
		tok, err := g.CurrentToken(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, first, tok)
	}

	now = now.Add(time.Hour)
	tok, err := g.CurrentToken(ctx, s)
	require.NoError(t, err)
	assert.NotEqual(t, first, tok, "idle session should start over")
}

func TestMemoryLoadRejectsMalformedID(t *testing.T) {
	m := NewMemory()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "not-a-uuid"})

	s, err := m.Load(httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", s.ID())
}

func TestRedisSession(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedis(client, WithKeyPrefix("csrf-test:"), WithTTL(time.Hour))

	exerciseSession(t, store.Session("abc123"))

	assert.Equal(t, "first", mr.HGet("csrf-test:abc123", "csrf_id"))
	assert.Equal(t, time.Hour, mr.TTL("csrf-test:abc123"))

	mr.FastForward(2 * time.Hour)
	_, ok, err := store.Session("abc123").Get(context.Background(), "csrf_id")
	require.NoError(t, err)
	assert.False(t, ok, "expired session should be gone")
}

// Reads refresh the TTL, so an active session keeps its csrf id.
func TestRedisSessionSlidesExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedis(client, WithTTL(time.Hour))
	g := csrf.MustNew(csrf.Config{})
	ctx := context.Background()

	s := store.Session("abc123")
	first, err := g.CurrentToken(ctx, s)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		mr.FastForward(20 * time.Minute)
		tok, err := g.CurrentToken(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, first, tok)
		assert.Equal(t, time.Hour, mr.TTL("session:abc123"))
	}

	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists("session:abc123"), "idle session should expire")
}

func TestRedisUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	store := NewRedis(client)
	mr.Close()

	_, _, err = store.Session("abc123").Get(context.Background(), "csrf_id")
	assert.ErrorIs(t, err, ErrRedisUnavailable)
}

// Concurrent first requests for one session agree on a single csrf id.
func TestRedisGuardConcurrentFirstUse(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewRedis(client)
	g := csrf.MustNew(csrf.Config{})

	const n = 16
	tokens := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := g.CurrentToken(context.Background(), store.Session("shared"))
			assert.NoError(t, err)
			tokens[i] = tok
		}(i)
	}
	wg.Wait()

	for i := range tokens {
		assert.Equal(t, tokens[0], tokens[i])
	}
	assert.NotEmpty(t, tokens[0])
}

func TestNewSignedValidatesSecrets(t *testing.T) {
	_, err := NewSigned(nil)
	assert.ErrorIs(t, err, ErrNoSecret)

	_, err = NewSigned([]string{"", ""})
	assert.ErrorIs(t, err, ErrNoSecret)

	_, err = NewSigned([]string{"short"})
	assert.ErrorIs(t, err, ErrSecretTooShort)
}

func TestSignedRoundTrip(t *testing.T) {
	store, err := NewSigned([]string{testSecret})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s, err := store.Load(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	exerciseSession(t, s)

	headers := rec.Header()["Set-Cookie"]
	require.Len(t, headers, 1, "each write replaces the queued cookie")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(responseCookie(rec, "session_id"))
	again, err := store.Load(httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.Equal(t, s.ID(), again.ID())

	v, ok, err := again.Get(context.Background(), "csrf_id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "first", v)
}

func TestSignedRejectsTamperedCookie(t *testing.T) {
	store, err := NewSigned([]string{testSecret})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s, err := store.Load(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	c := responseCookie(rec, "session_id")
	require.NotNil(t, c)

	body, _, _ := strings.Cut(c.Value, ".")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: body + ".forged"})
	fresh, err := store.Load(httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.NotEqual(t, s.ID(), fresh.ID(), "tampered cookie must start a new session")
}

func TestSignedAcceptsRotatedSecret(t *testing.T) {
	old, err := NewSigned([]string{testSecret})
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	s, err := old.Load(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	rotated, err := NewSigned([]string{strings.Repeat("n", 32), testSecret})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(responseCookie(rec, "session_id"))
	again, err := rotated.Load(httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.Equal(t, s.ID(), again.ID())

	// the session survives, but digests are re-keyed by the new first secret
	assert.NotEqual(t, old.Digest("id"), rotated.Digest("id"))
}

// With a signed store the form token is a digest of the stored csrf id.
func TestSignedGuardDigestsToken(t *testing.T) {
	store, err := NewSigned([]string{testSecret})
	require.NoError(t, err)
	g := csrf.MustNew(csrf.Config{})

	rec := httptest.NewRecorder()
	s, err := store.Load(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	ctx := context.Background()
	tok, err := g.CurrentToken(ctx, s)
	require.NoError(t, err)
	again, err := g.CurrentToken(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, tok, again)

	id, ok, err := s.Get(ctx, "csrf_id")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, id, tok)
	assert.Equal(t, store.Digest(id), tok)

	req := csrf.Request{Method: http.MethodPost, Format: csrf.FormatHTML, Token: tok}
	assert.NoError(t, g.Verify(ctx, req, s))
	req.Token = id
	assert.ErrorIs(t, g.Verify(ctx, req, s), csrf.ErrInvalidAuthenticityToken)
}
