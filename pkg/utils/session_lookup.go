package utils

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mpapenbr/beyond-the-apex/log"
)

var ErrSessionNotFound = errors.New("session not found")

type (
	LookupOption func(*lookupConfig)
	lookupConfig struct {
		staleDuration time.Duration
		now           func() time.Time
	}
)

// WithStaleDuration sets the idle time after which a session is removed
// by RemoveStale
func WithStaleDuration(d time.Duration) LookupOption {
	return func(c *lookupConfig) {
		c.staleDuration = d
	}
}

func WithNow(now func() time.Time) LookupOption {
	return func(c *lookupConfig) {
		c.now = now
	}
}

type sessionEntry[T any] struct {
	value      T
	created    time.Time
	lastAccess time.Time
}

// SessionLookup holds per viewer session state keyed by a generated id
type SessionLookup[T any] struct {
	mu     sync.Mutex
	lookup map[string]*sessionEntry[T]
	cfg    lookupConfig
	log    *log.Logger
}

func NewSessionLookup[T any](opts ...LookupOption) *SessionLookup[T] {
	cfg := lookupConfig{staleDuration: 30 * time.Minute, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &SessionLookup[T]{
		lookup: make(map[string]*sessionEntry[T]),
		cfg:    cfg,
		log:    log.Default().Named("lookup"),
	}
}

// Add registers value and returns the new session id
func (s *SessionLookup[T]) Add(value T) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	now := s.cfg.now()
	s.lookup[id] = &sessionEntry[T]{value: value, created: now, lastAccess: now}
	s.log.Debug("session added", log.String("id", id), log.Int("sessions", len(s.lookup)))
	return id
}

// Get returns the session value and marks the session as used
func (s *SessionLookup[T]) Get(id string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.lookup[id]; ok {
		e.lastAccess = s.cfg.now()
		return e.value, nil
	}
	var zero T
	return zero, ErrSessionNotFound
}

func (s *SessionLookup[T]) Remove(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookup[id]
	if !ok {
		var zero T
		return zero, false
	}
	delete(s.lookup, id)
	return e.value, true
}

// IDs returns the session ids ordered by creation time
func (s *SessionLookup[T]) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]string, 0, len(s.lookup))
	for k := range s.lookup {
		ret = append(ret, k)
	}
	sort.Slice(ret, func(i, j int) bool {
		a, b := s.lookup[ret[i]], s.lookup[ret[j]]
		if a.created.Equal(b.created) {
			return ret[i] < ret[j]
		}
		return a.created.Before(b.created)
	})
	return ret
}

func (s *SessionLookup[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lookup)
}

// RemoveStale removes sessions not used within the stale duration.
// The removed values are returned so the caller can release them.
func (s *SessionLookup[T]) RemoveStale() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	limit := s.cfg.now().Add(-s.cfg.staleDuration)
	ret := []T{}
	for id, e := range s.lookup {
		if e.lastAccess.Before(limit) {
			s.log.Info("removing stale session",
				log.String("id", id),
				log.Time("lastAccess", e.lastAccess))
			delete(s.lookup, id)
			ret = append(ret, e.value)
		}
	}
	return ret
}

func (s *SessionLookup[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookup = make(map[string]*sessionEntry[T])
}
