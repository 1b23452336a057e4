package config

import (
	"fmt"
	"io"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/JeanGrijp/go-csrfguard/csrf"
	"github.com/JeanGrijp/go-csrfguard/sessionstore"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Sessions builds the session store selected by SESSION_STORE and returns
// its loader. The closer releases store resources (the Redis client).
func (s *Settings) Sessions() (csrf.SessionLoader, io.Closer, error) {
	opts := []sessionstore.Option{
		sessionstore.WithTTL(s.SessionTTL),
		sessionstore.WithCookie(sessionstore.Cookie{
			Name:     s.CookieName,
			Secure:   s.CookieSecure,
			HTTPOnly: true,
			SameSite: http.SameSiteLaxMode,
		}),
	}

	switch s.Store {
	case StoreRedis:
		ropts, err := redis.ParseURL(s.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(ropts)
		return sessionstore.NewRedis(client, opts...).Load, client, nil
	case StoreSigned:
		store, err := sessionstore.NewSigned(s.SessionSecrets, opts...)
		if err != nil {
			return nil, nil, err
		}
		return store.Load, nopCloser{}, nil
	case StoreMemory, "":
		return sessionstore.NewMemory(opts...).Load, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStore, s.Store)
	}
}
