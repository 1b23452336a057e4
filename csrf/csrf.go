package csrf

import (
	"context"
	"crypto/subtle"
	"errors"
)

// Verify checks req against the token expected for s.
//
// Behavior:
//   - Exempt requests (see Exempt) return nil without touching the session.
//   - Otherwise the expected token is derived and compared in constant time
//     with req.Token. A missing or different token yields
//     ErrInvalidAuthenticityToken.
//
// Any other error means the token could not be derived (session store or
// entropy failure) and should be treated as a server error.
func (g *Guard) Verify(ctx context.Context, req Request, s Session) error {
	if g.Exempt(req) {
		return nil
	}

	expected, err := g.CurrentToken(ctx, s)
	if err != nil {
		return err
	}

	if req.Token == "" || subtle.ConstantTimeCompare([]byte(req.Token), []byte(expected)) != 1 {
		return ErrInvalidAuthenticityToken
	}
	return nil
}

// CurrentToken returns the token forms and headers should carry for s.
// Within a request handled by Protect the result is computed once and reused.
func (g *Guard) CurrentToken(ctx context.Context, s Session) (string, error) {
	if c, ok := cellFromContext(ctx); ok {
		return c.load(func() (string, error) { return g.deriveToken(ctx, s) })
	}
	return g.deriveToken(ctx, s)
}

// IsDenied reports whether err is a forgery denial as opposed to an
// environment failure.
func IsDenied(err error) bool {
	return errors.Is(err, ErrInvalidAuthenticityToken)
}
