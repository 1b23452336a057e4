package sessionstore

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/JeanGrijp/go-csrfguard/csrf"
)

const minSecretLength = 32

var (
	// ErrNoSecret is returned when a signed store is created without secrets.
	ErrNoSecret = errors.New("at least one secret is required")
	// ErrSecretTooShort is returned when a secret is shorter than 32 bytes.
	ErrSecretTooShort = errors.New("secret too short")
	// ErrInvalidSignature is returned when a session cookie fails verification.
	ErrInvalidSignature = errors.New("invalid session signature")
)

// Signed keeps sessions entirely client side in an HMAC-SHA256 signed
// cookie. The first secret signs; every secret verifies, so secrets can be
// rotated by prepending a new one.
//
// Digest always keys on the first secret. Rotating therefore keeps sessions
// and their csrf ids, but tokens rendered before the rotation no longer
// verify: forms already open in a browser must be reloaded.
type Signed struct {
	secrets []string
	opts    options
}

type signedPayload struct {
	ID     string            `json:"id"`
	Values map[string]string `json:"v,omitempty"`
}

// NewSigned returns a cookie store signing with secrets.
func NewSigned(secrets []string, opts ...Option) (*Signed, error) {
	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}
	for i := range secrets {
		if len(secrets[i]) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d",
				ErrSecretTooShort, i, len(secrets[i]), minSecretLength)
		}
	}
	return &Signed{secrets: secrets, opts: applyOptions(opts)}, nil
}

// Load decodes the session cookie of r. A missing or tampered cookie starts
// a fresh session, which is written back to w right away so its id is
// stable for the rest of the exchange.
func (s *Signed) Load(w http.ResponseWriter, r *http.Request) (csrf.Session, error) {
	if c, err := r.Cookie(s.opts.cookie.Name); err == nil {
		if p, err := s.decode(c.Value); err == nil {
			return &signedSession{store: s, w: w, payload: p}, nil
		}
	}

	sess := &signedSession{store: s, w: w, payload: signedPayload{ID: uuid.NewString()}}
	if err := sess.write(); err != nil {
		return nil, err
	}
	return sess, nil
}

// Digest returns the hex HMAC of value under the signing secret.
func (s *Signed) Digest(value string) string {
	mac := hmac.New(sha256.New, []byte(s.secrets[0]))
	mac.Write([]byte("csrf:"))
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Signed) encode(p signedPayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	body := base64.RawURLEncoding.EncodeToString(raw)
	return body + "." + s.sign(s.secrets[0], body), nil
}

func (s *Signed) decode(value string) (signedPayload, error) {
	var p signedPayload
	body, sig, ok := strings.Cut(value, ".")
	if !ok {
		return p, ErrInvalidSignature
	}

	valid := false
	for _, secret := range s.secrets {
		if hmac.Equal([]byte(sig), []byte(s.sign(secret, body))) {
			valid = true
			break
		}
	}
	if !valid {
		return p, ErrInvalidSignature
	}

	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return p, ErrInvalidSignature
	}
	if err := json.Unmarshal(raw, &p); err != nil || p.ID == "" {
		return p, ErrInvalidSignature
	}
	return p, nil
}

func (s *Signed) sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

type signedSession struct {
	store   *Signed
	w       http.ResponseWriter
	mu      sync.Mutex
	payload signedPayload
}

func (s *signedSession) ID() string { return s.payload.ID }

func (s *signedSession) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.payload.Values[key]
	return v, ok, nil
}

func (s *signedSession) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payload.Values == nil {
		s.payload.Values = make(map[string]string)
	}
	s.payload.Values[key] = value
	return s.write()
}

func (s *signedSession) Digest(value string) string {
	return s.store.Digest(value)
}

// write replaces any session cookie already queued on the response.
func (s *signedSession) write() error {
	value, err := s.store.encode(s.payload)
	if err != nil {
		return err
	}
	h := s.w.Header()
	prefix := s.store.opts.cookie.Name + "="
	h["Set-Cookie"] = slices.DeleteFunc(h["Set-Cookie"], func(c string) bool {
		return strings.HasPrefix(c, prefix)
	})
	s.store.opts.setCookie(s.w, value)
	return nil
}
