package sessionstore

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Cookie holds the attributes of the cookie carrying the session.
type Cookie struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
	MaxAge   int // in seconds
}

type options struct {
	cookie Cookie
	ttl    time.Duration
	prefix string
}

// Option configures a store.
type Option func(*options)

// WithCookie overrides the session cookie attributes. An empty Name, Path or
// SameSite keeps its default; the other fields are copied as given, so
// callers that want an HttpOnly cookie set HTTPOnly.
func WithCookie(c Cookie) Option {
	return func(o *options) {
		if c.Name != "" {
			o.cookie.Name = c.Name
		}
		if c.Path != "" {
			o.cookie.Path = c.Path
		}
		if c.SameSite != 0 {
			o.cookie.SameSite = c.SameSite
		}
		o.cookie.Domain = c.Domain
		o.cookie.Secure = c.Secure
		o.cookie.HTTPOnly = c.HTTPOnly
		o.cookie.MaxAge = c.MaxAge
	}
}

// WithTTL sets how long an idle session is kept by the Memory and Redis
// stores. Any read or write of the session restarts the clock.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

func applyOptions(opts []Option) options {
	o := options{
		cookie: Cookie{
			Name:     "session_id",
			Path:     "/",
			HTTPOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		ttl:    24 * time.Hour,
		prefix: "session:",
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// sessionID returns the session id carried by r, issuing a fresh one (and
// its cookie) when the request has none or it is malformed.
func (o options) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(o.cookie.Name); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	o.setCookie(w, id)
	return id
}

func (o options) setCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     o.cookie.Name,
		Value:    value,
		Path:     o.cookie.Path,
		Domain:   o.cookie.Domain,
		MaxAge:   o.cookie.MaxAge,
		SameSite: o.cookie.SameSite,
		Secure:   o.cookie.Secure,
		HttpOnly: o.cookie.HTTPOnly,
	})
}
