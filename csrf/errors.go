package csrf

import "errors"

var (
	// ErrInvalidAuthenticityToken is returned when a checked request carries a
	// missing or mismatched authenticity token. Callers should answer 422.
	ErrInvalidAuthenticityToken = errors.New("invalid authenticity token")
	// ErrTokenGeneration is returned when the random csrf id cannot be generated.
	ErrTokenGeneration = errors.New("failed to generate csrf id")
	// ErrUnknownDigest is returned by New when Config.Digest names an unsupported algorithm.
	ErrUnknownDigest = errors.New("unknown digest algorithm")
	// ErrNoSessions is returned by Protect when no SessionLoader is configured.
	ErrNoSessions = errors.New("no session loader configured")
	// ErrSessionStore wraps failures reported by the session store.
	ErrSessionStore = errors.New("session store failure")
)
