package csrf

import (
	"context"
	"net/http"
	"sync"
)

// memSession is a minimal Session for tests.
type memSession struct {
	mu   sync.Mutex
	id   string
	vals map[string]string
	gets int
	sets int
}

func newMemSession(id string) *memSession {
	return &memSession{id: id, vals: map[string]string{}}
}

func (s *memSession) ID() string { return s.id }

func (s *memSession) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	v, ok := s.vals[key]
	return v, ok, nil
}

func (s *memSession) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	s.vals[key] = value
	return nil
}

// atomicSession adds SetIfAbsent on top of memSession.
type atomicSession struct {
	*memSession
}

func (s atomicSession) SetIfAbsent(_ context.Context, key, value string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.vals[key]; ok {
		return v, nil
	}
	s.sets++
	s.vals[key] = value
	return value, nil
}

// signingSession adds a Digester that prefixes the value.
type signingSession struct {
	*memSession
}

func (s signingSession) Digest(value string) string { return "signed:" + value }

// fixedLoader always returns the same session.
func fixedLoader(s Session) SessionLoader {
	return func(http.ResponseWriter, *http.Request) (Session, error) { return s, nil }
}
