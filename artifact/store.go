// Package artifact keeps rendered artifacts in memory for a short time so a
// client can download them by token after an upload.
package artifact

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wudi/ocrconvert/observability"
	"github.com/wudi/ocrconvert/render"
)

const (
	DefaultTTL        = 10 * time.Minute
	DefaultMaxEntries = 64
)

type entry struct {
	artifact  render.Artifact
	seq       uint64
	expiresAt time.Time
}

// Store maps download tokens to artifacts. Entries expire after the TTL and
// the oldest entry is evicted once MaxEntries is reached.
type Store struct {
	mu         sync.Mutex
	entries    map[string]*entry
	seq        uint64
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	logger     observability.Logger
}

// Option configures a Store.
type Option func(*Store)

func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

func WithLogger(l observability.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		entries:    make(map[string]*entry),
		ttl:        DefaultTTL,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
		logger:     observability.NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL reports how long artifacts are kept.
func (s *Store) TTL() time.Duration { return s.ttl }

// Put stores a copy of a and returns its token.
func (s *Store) Put(a render.Artifact) string {
	token := uuid.NewString()
	now := s.now()
	a.Data = append([]byte(nil), a.Data...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) >= s.maxEntries {
		s.removeExpiredLocked(now)
	}
	for len(s.entries) >= s.maxEntries {
		s.evictOldestLocked()
	}
	s.seq++
	s.entries[token] = &entry{artifact: a, seq: s.seq, expiresAt: now.Add(s.ttl)}
	return token
}

// Get returns the artifact for token, if present and not expired.
func (s *Store) Get(token string) (render.Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[token]
	if !ok {
		return render.Artifact{}, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, token)
		return render.Artifact{}, false
	}
	return e.artifact, true
}

// Len reports the number of entries, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes expired entries and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeExpiredLocked(s.now())
}

// Run sweeps expired entries every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.ttl / 2
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("artifact cache swept", observability.Int("removed", n))
			}
		}
	}
}

func (s *Store) removeExpiredLocked(now time.Time) int {
	removed := 0
	for token, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, token)
			removed++
		}
	}
	return removed
}

func (s *Store) evictOldestLocked() {
	var (
		oldest string
		seq    uint64
	)
	for token, e := range s.entries {
		if oldest == "" || e.seq < seq {
			oldest, seq = token, e.seq
		}
	}
	if oldest != "" {
		delete(s.entries, oldest)
	}
}
