package sessionstore

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/JeanGrijp/go-csrfguard/csrf"
)

// sweepInterval bounds how often Memory scans for idle sessions.
const sweepInterval = time.Minute

// Memory is an in-process session store. Sessions idle for longer than the
// configured TTL are dropped, either when next touched or by a periodic
// sweep piggybacked on store access.
type Memory struct {
	mu        sync.Mutex
	data      map[string]*memoryEntry
	opts      options
	now       func() time.Time
	nextSweep time.Time
}

type memoryEntry struct {
	vals map[string]string
	seen time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory(opts ...Option) *Memory {
	return &Memory{
		data: make(map[string]*memoryEntry),
		opts: applyOptions(opts),
		now:  time.Now,
	}
}

// Load returns the session for r, creating one when the request carries no session cookie.
func (m *Memory) Load(w http.ResponseWriter, r *http.Request) (csrf.Session, error) {
	return m.Session(m.opts.sessionID(w, r)), nil
}

// Session returns a handle on the session with the given id.
func (m *Memory) Session(id string) csrf.Session {
	return &memorySession{store: m, id: id}
}

// Len returns the number of live sessions holding at least one value.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for _, e := range m.data {
		if !m.expired(e, now) {
			n++
		}
	}
	return n
}

// entry returns the live entry for id, refreshing its last access. When
// create is false a missing or expired session yields nil. Callers hold mu.
func (m *Memory) entry(id string, create bool) *memoryEntry {
	now := m.now()
	m.sweep(now)

	e, ok := m.data[id]
	if ok && m.expired(e, now) {
		delete(m.data, id)
		ok = false
	}
	if !ok {
		if !create {
			return nil
		}
		e = &memoryEntry{vals: make(map[string]string)}
		m.data[id] = e
	}
	e.seen = now
	return e
}

func (m *Memory) expired(e *memoryEntry, now time.Time) bool {
	return now.Sub(e.seen) >= m.opts.ttl
}

// sweep drops idle sessions, at most once per sweepInterval. Callers hold mu.
func (m *Memory) sweep(now time.Time) {
	if now.Before(m.nextSweep) {
		return
	}
	m.nextSweep = now.Add(min(sweepInterval, m.opts.ttl))
	for id, e := range m.data {
		if m.expired(e, now) {
			delete(m.data, id)
		}
	}
}

type memorySession struct {
	store *Memory
	id    string
}

func (s *memorySession) ID() string { return s.id }

func (s *memorySession) Get(_ context.Context, key string) (string, bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	e := s.store.entry(s.id, false)
	if e == nil {
		return "", false, nil
	}
	v, ok := e.vals[key]
	return v, ok, nil
}

func (s *memorySession) Set(_ context.Context, key, value string) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.entry(s.id, true).vals[key] = value
	return nil
}

func (s *memorySession) SetIfAbsent(_ context.Context, key, value string) (string, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	vals := s.store.entry(s.id, true).vals
	if v, ok := vals[key]; ok {
		return v, nil
	}
	vals[key] = value
	return value, nil
}
