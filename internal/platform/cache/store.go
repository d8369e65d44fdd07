package cache

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/yared-ayele-debela/tournament-events/internal/platform/resilience"
)

type entry struct {
	value     any
	tags      []string
	expiresAt time.Time
}

// Store is the in-process cache implementation, used for the pipeline's
// internal memoization and in tests. It mirrors the Redis cache's
// semantics: tag and pattern eviction, per-entry TTL, singleflight on
// Remember so concurrent misses compute once.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	flight  resilience.SingleFlight
}

func NewStore() *Store {
	return &Store{
		entries: make(map[string]entry),
	}
}

func (s *Store) Remember(ctx context.Context, key string, ttl time.Duration, tags []string, compute func(context.Context) (any, error)) (any, error) {
	if compute == nil {
		return nil, fmt.Errorf("compute func is required")
	}
	if key == "" {
		return compute(ctx)
	}

	if value, ok := s.get(key); ok {
		return value, nil
	}

	value, err, _ := s.flight.Do(key, func() (any, error) {
		if cached, ok := s.get(key); ok {
			return cached, nil
		}

		computed, computeErr := compute(ctx)
		if computeErr != nil {
			return nil, computeErr
		}
		s.set(key, computed, ttl, tags)
		return computed, nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

func (s *Store) Forget(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

func (s *Store) ForgetByTags(_ context.Context, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	tagged := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tagged[tag] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.entries {
		for _, tag := range e.tags {
			if tagged[tag] {
				delete(s.entries, key)
				break
			}
		}
	}
	return nil
}

func (s *Store) ForgetByPattern(_ context.Context, pattern string) (int, error) {
	if pattern == "" {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key := range s.entries {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return evicted, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if matched {
			delete(s.entries, key)
			evicted++
		}
	}
	return evicted, nil
}

// Contains reports whether key currently holds a live entry; test helper.
func (s *Store) Contains(key string) bool {
	_, ok := s.get(key)
	return ok
}

func (s *Store) get(key string) (any, bool) {
	now := time.Now()

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !e.expiresAt.After(now) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

func (s *Store) set(key string, value any, ttl time.Duration, tags []string) {
	expiresAt := time.Time{}
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry{
		value:     value,
		tags:      append([]string(nil), tags...),
		expiresAt: expiresAt,
	}
	s.mu.Unlock()
}
