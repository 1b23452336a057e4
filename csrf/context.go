package csrf

import (
	"context"
	"sync"
)

type ctxKey string

const tokenKey ctxKey = "csrf_token_ctx"

// tokenCell memoises the derived token for one request.
type tokenCell struct {
	once  sync.Once
	token string
	err   error
}

// contextWithCell returns a derived context carrying an empty token cell.
func contextWithCell(ctx context.Context) (context.Context, *tokenCell) {
	c := &tokenCell{}
	return context.WithValue(ctx, tokenKey, c), c
}

// cellFromContext extracts the token cell from ctx, if present.
func cellFromContext(ctx context.Context) (*tokenCell, bool) {
	c, ok := ctx.Value(tokenKey).(*tokenCell)
	return c, ok
}

// load derives the token at most once.
func (c *tokenCell) load(fn func() (string, error)) (string, error) {
	c.once.Do(func() {
		c.token, c.err = fn()
	})
	return c.token, c.err
}

const sessionKey ctxKey = "csrf_session_ctx"

// contextWithSession returns a derived context that stores the request's session.
//
// Params:
// - ctx: base context to attach the session to.
// - s: session loaded for the request.
//
// Returns:
// - a new context containing the session.
func contextWithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext returns the session Protect loaded for the request.
//
// Params:
// - ctx: context possibly containing the session.
//
// Returns:
// - session and a boolean indicating presence.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}
