// Package config loads guard and session store settings from the environment.
//
// Variables are parsed with caarlos0/env. A .env file in the working
// directory, when present, is loaded first; variables already set in the
// process environment take precedence over it.
//
//	var s config.Settings
//	if err := config.Load(&s); err != nil {
//		log.Fatal(err)
//	}
//	g, err := csrf.New(s.CSRF())
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/JeanGrijp/go-csrfguard/csrf"
)

// Session store kinds accepted by SESSION_STORE.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSigned = "signed"
)

// ErrUnknownStore is returned when SESSION_STORE names an unsupported store.
var ErrUnknownStore = errors.New("unknown session store")

// Settings is the environment facing configuration.
type Settings struct {
	Secret     string   `env:"CSRF_SECRET"`
	Digest     string   `env:"CSRF_DIGEST" envDefault:"SHA1"`
	Only       []string `env:"CSRF_ONLY" envSeparator:","`
	Except     []string `env:"CSRF_EXCEPT" envSeparator:","`
	Disabled   bool     `env:"CSRF_DISABLED" envDefault:"false"`
	FormField  string   `env:"CSRF_FORM_FIELD" envDefault:"authenticity_token"`
	HeaderName string   `env:"CSRF_HEADER" envDefault:"X-CSRF-Token"`
	SessionKey string   `env:"CSRF_SESSION_KEY" envDefault:"csrf_id"`

	EnforceOriginCheck bool   `env:"CSRF_ORIGIN_CHECK" envDefault:"false"`
	AllowedOrigin      string `env:"CSRF_ALLOWED_ORIGIN"`

	Store          string        `env:"SESSION_STORE" envDefault:"memory"`
	SessionSecrets []string      `env:"SESSION_SECRETS" envSeparator:","`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	CookieName     string        `env:"SESSION_COOKIE" envDefault:"session_id"`
	CookieSecure   bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	RedisURL       string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
}

// Load reads .env (if any) and parses the environment into s.
func Load(s *Settings) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(s); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return s.Validate()
}

// MustLoad is like Load but panics on failure. Useful at startup.
func MustLoad(s *Settings) {
	if err := Load(s); err != nil {
		panic(err)
	}
}

// Validate checks the values env parsing cannot.
func (s *Settings) Validate() error {
	s.Store = strings.ToLower(strings.TrimSpace(s.Store))
	switch s.Store {
	case StoreMemory, StoreRedis, StoreSigned:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, s.Store)
	}
	if _, err := csrf.HMACToken(s.Digest, "", ""); err != nil {
		return err
	}
	return nil
}

// CSRF maps the settings onto a csrf.Config. Sessions, Logger and hooks are
// left for the caller to wire.
func (s *Settings) CSRF() csrf.Config {
	cfg := csrf.Config{
		Digest:             s.Digest,
		Only:               s.Only,
		Except:             s.Except,
		Disabled:           s.Disabled,
		FormField:          s.FormField,
		HeaderName:         s.HeaderName,
		SessionKey:         s.SessionKey,
		EnforceOriginCheck: s.EnforceOriginCheck,
		AllowedOrigin:      s.AllowedOrigin,
	}
	if s.Secret != "" {
		cfg.Secret = csrf.StaticSecret(s.Secret)
	}
	return cfg
}
