package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/venue-insights/internal/platform/resilience"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Stats is a point-in-time snapshot of store counters.
type Stats struct {
	Entries int
	Hits    int64
	Misses  int64
	Evicted int64
}

// Store is a concurrent TTL map. Each entry carries its own expiry so callers
// can mix TTL classes in one store. A zero TTL keeps the entry until deleted.
type Store[V any] struct {
	mu         sync.RWMutex
	entries    map[string]entry[V]
	defaultTTL time.Duration
	flight     resilience.SingleFlight[V]
	now        func() time.Time

	hits    atomic.Int64
	misses  atomic.Int64
	evicted atomic.Int64
}

func NewStore[V any](defaultTTL time.Duration) *Store[V] {
	return &Store[V]{
		entries:    make(map[string]entry[V]),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (s *Store[V]) Get(_ context.Context, key string) (V, bool) {
	var zero V
	if key == "" {
		return zero, false
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		s.misses.Add(1)
		return zero, false
	}
	if s.expired(e, s.now()) {
		s.mu.Lock()
		if current, still := s.entries[key]; still && s.expired(current, s.now()) {
			delete(s.entries, key)
			s.evicted.Add(1)
		}
		s.mu.Unlock()
		s.misses.Add(1)
		return zero, false
	}

	s.hits.Add(1)
	return e.value, true
}

func (s *Store[V]) Set(ctx context.Context, key string, value V) {
	s.SetWithTTL(ctx, key, value, s.defaultTTL)
}

func (s *Store[V]) SetWithTTL(_ context.Context, key string, value V, ttl time.Duration) {
	if key == "" {
		return
	}

	expiresAt := time.Time{}
	if ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry[V]{value: value, expiresAt: expiresAt}
	s.mu.Unlock()
}

// GetOrLoad returns the cached value for key or runs loader once across
// concurrent callers and stores the result with ttl. cached reports a hit.
func (s *Store[V]) GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) (V, error)) (value V, cached bool, err error) {
	if loader == nil {
		return value, false, crerr.New("loader is required")
	}
	if key == "" {
		value, err = loader(ctx)
		return value, false, err
	}

	if value, ok := s.Get(ctx, key); ok {
		return value, true, nil
	}

	value, _, err = s.flight.Do(key, func() (V, error) {
		loaded, loadErr := loader(ctx)
		if loadErr != nil {
			return loaded, loadErr
		}
		s.SetWithTTL(ctx, key, loaded, ttl)
		return loaded, nil
	})
	return value, false, err
}

// Evict drops every expired entry and returns how many were removed.
func (s *Store[V]) Evict() int {
	now := s.now()
	removed := 0

	s.mu.Lock()
	for key, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, key)
			removed++
		}
	}
	s.mu.Unlock()

	s.evicted.Add(int64(removed))
	return removed
}

// RunJanitor evicts expired entries every interval until ctx is done.
func (s *Store[V]) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Evict()
		}
	}
}

func (s *Store[V]) Stats() Stats {
	s.mu.RLock()
	n := len(s.entries)
	s.mu.RUnlock()

	return Stats{
		Entries: n,
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
		Evicted: s.evicted.Load(),
	}
}

func (s *Store[V]) expired(e entry[V], now time.Time) bool {
	return !e.expiresAt.IsZero() && !e.expiresAt.After(now)
}
