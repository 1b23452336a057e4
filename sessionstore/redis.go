package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/JeanGrijp/go-csrfguard/csrf"
)

// ErrRedisUnavailable is returned when a Redis command fails.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Redis stores each session as a hash under prefix+id. Keys expire after the
// configured TTL of inactivity; every read or write refreshes it.
type Redis struct {
	client redis.UniversalClient
	opts   options
}

// NewRedis returns a store backed by client.
func NewRedis(client redis.UniversalClient, opts ...Option) *Redis {
	return &Redis{client: client, opts: applyOptions(opts)}
}

// Load returns the session for r, creating one when the request carries no session cookie.
func (s *Redis) Load(w http.ResponseWriter, r *http.Request) (csrf.Session, error) {
	return s.Session(s.opts.sessionID(w, r)), nil
}

// Session returns a handle on the session with the given id.
func (s *Redis) Session(id string) csrf.Session {
	return &redisSession{store: s, id: id}
}

func (s *Redis) key(id string) string {
	return s.opts.prefix + id
}

type redisSession struct {
	store *Redis
	id    string
}

func (s *redisSession) ID() string { return s.id }

// Get reads field and slides the session's expiry, so a session in use
// keeps its csrf id.
func (s *redisSession) Get(ctx context.Context, field string) (string, bool, error) {
	key := s.store.key(s.id)
	var get *redis.StringCmd
	_, err := s.store.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		get = p.HGet(ctx, key, field)
		p.Expire(ctx, key, s.store.opts.ttl)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", false, errors.Join(ErrRedisUnavailable, err)
	}
	v, err := get.Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Join(ErrRedisUnavailable, err)
	}
	return v, true, nil
}

func (s *redisSession) Set(ctx context.Context, field, value string) error {
	key := s.store.key(s.id)
	_, err := s.store.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, field, value)
		p.Expire(ctx, key, s.store.opts.ttl)
		return nil
	})
	if err != nil {
		return errors.Join(ErrRedisUnavailable, fmt.Errorf("hset %s: %w", field, err))
	}
	return nil
}

// SetIfAbsent stores value with HSETNX and returns whichever value won.
func (s *redisSession) SetIfAbsent(ctx context.Context, field, value string) (string, error) {
	key := s.store.key(s.id)
	var (
		setNX *redis.BoolCmd
		get   *redis.StringCmd
	)
	_, err := s.store.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		setNX = p.HSetNX(ctx, key, field, value)
		get = p.HGet(ctx, key, field)
		p.Expire(ctx, key, s.store.opts.ttl)
		return nil
	})
	if err != nil {
		return "", errors.Join(ErrRedisUnavailable, fmt.Errorf("hsetnx %s: %w", field, err))
	}
	if setNX.Val() {
		return value, nil
	}
	return get.Val(), nil
}
