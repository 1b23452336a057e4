package csrf

import (
	"hash"
	"log/slog"
	"net/http"
)

// Secret is the application secret used to key token HMACs. The zero value
// means no secret: tokens then come from a random id kept in the session.
type Secret struct {
	value   string
	resolve func(sessionID string) string
}

// StaticSecret returns a Secret with a fixed key.
func StaticSecret(key string) Secret {
	return Secret{value: key}
}

// SecretFunc returns a Secret whose key is computed per session id.
func SecretFunc(fn func(sessionID string) string) Secret {
	return Secret{resolve: fn}
}

// IsZero reports whether no secret is configured.
func (s Secret) IsZero() bool {
	return s.value == "" && s.resolve == nil
}

// Resolve returns the key for the given session id.
func (s Secret) Resolve(sessionID string) string {
	if s.resolve != nil {
		return s.resolve(sessionID)
	}
	return s.value
}

// ActionFunc names the action a request targets, used for Only/Except scoping.
type ActionFunc func(r *http.Request) string

// ErrorHandler renders a rejected or failed request. err is
// ErrInvalidAuthenticityToken for forgery denials.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type Config struct {
	// Token derivation
	Secret Secret
	Digest string // e.g.: "SHA1", "SHA256", "SHA3-256"

	// Scoping
	Only     []string // when set, only these actions are checked
	Except   []string // never checked; wins over Only
	Disabled bool

	// Token transport
	FormField  string // e.g.: "authenticity_token"
	HeaderName string // e.g.: "X-CSRF-Token"

	// Extra security
	EnforceOriginCheck bool
	AllowedOrigin      string // if empty, uses r.Host

	// Session
	SessionKey string // attribute holding the csrf id, e.g.: "csrf_id"
	IDBytes    int
	Sessions   SessionLoader

	// Middleware hooks
	Actions      ActionFunc
	ErrorHandler ErrorHandler
	Logger       *slog.Logger
}

type Guard struct {
	cfg    Config
	digest func() hash.Hash
	only   map[string]struct{}
	except map[string]struct{}
}

// New validates cfg, fills in defaults and returns a Guard. The Guard is
// immutable and safe to share between goroutines.
func New(cfg Config) (*Guard, error) {
	// reasonable defaults
	if cfg.Digest == "" {
		cfg.Digest = DefaultDigest
	}
	if cfg.FormField == "" {
		cfg.FormField = "authenticity_token"
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-CSRF-Token"
	}
	if cfg.SessionKey == "" {
		cfg.SessionKey = "csrf_id"
	}
	if cfg.IDBytes <= 0 {
		cfg.IDBytes = 32
	}
	if cfg.Actions == nil {
		cfg.Actions = func(r *http.Request) string { return r.URL.Path }
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	fn, err := lookupDigest(cfg.Digest)
	if err != nil {
		return nil, err
	}

	return &Guard{
		cfg:    cfg,
		digest: fn,
		only:   toSet(cfg.Only),
		except: toSet(cfg.Except),
	}, nil
}

// MustNew is like New but panics on an invalid configuration.
func MustNew(cfg Config) *Guard {
	g, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return g
}

// Config returns a copy of the effective configuration.
func (g *Guard) Config() Config {
	return g.cfg
}

// Applies reports whether requests to action fall under this guard's
// Only/Except scope. Callers skip Verify entirely when it returns false.
func (g *Guard) Applies(action string) bool {
	if _, ok := g.except[action]; ok {
		return false
	}
	if len(g.only) == 0 {
		return true
	}
	_, ok := g.only[action]
	return ok
}

func toSet(items []string) map[string]struct{} {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "failed to verify request"
	if IsDenied(err) {
		status = http.StatusUnprocessableEntity
		msg = ErrInvalidAuthenticityToken.Error()
	}
	http.Error(w, msg, status)
}
