package csrf

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Session is the view of a caller-owned session the guard needs: a stable
// identifier plus get/set of string attributes. Implementations must be
// safe for concurrent use.
type Session interface {
	ID() string
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Digester is implemented by sessions whose store can produce a
// tamper-evident encoding of a value (for example a signed cookie store).
// When present it is applied to the csrf id to form the token.
type Digester interface {
	Digest(value string) string
}

// AtomicSetter is implemented by sessions that can store a value only when
// the key is absent. It returns whichever value ended up stored, so
// concurrent first requests agree on one csrf id.
type AtomicSetter interface {
	SetIfAbsent(ctx context.Context, key, value string) (string, error)
}

// SessionLoader resolves the session for an incoming request. It may write
// to w, e.g. to issue a session cookie.
type SessionLoader func(w http.ResponseWriter, r *http.Request) (Session, error)

// csrfID returns the csrf id stored in s, generating and persisting one on
// first use.
func (g *Guard) csrfID(ctx context.Context, s Session) (string, error) {
	id, ok, err := s.Get(ctx, g.cfg.SessionKey)
	if err != nil {
		return "", errors.Join(ErrSessionStore, err)
	}
	if ok && id != "" {
		return id, nil
	}

	id, err = newToken(g.cfg.IDBytes)
	if err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}

	if as, ok := s.(AtomicSetter); ok {
		stored, err := as.SetIfAbsent(ctx, g.cfg.SessionKey, id)
		if err != nil {
			return "", errors.Join(ErrSessionStore, err)
		}
		if stored != "" {
			return stored, nil
		}
		// an empty id is held under the key; overwrite it below
	}

	if err := s.Set(ctx, g.cfg.SessionKey, id); err != nil {
		return "", errors.Join(ErrSessionStore, fmt.Errorf("store %s: %w", g.cfg.SessionKey, err))
	}
	return id, nil
}
