package deadletter

import (
	"context"
	"sync"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/deadletter"
)

type MemoryStore struct {
	mu      sync.Mutex
	entries []deadletter.Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, entry deadletter.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]deadletter.Entry{entry}, s.entries...)
	return nil
}

func (s *MemoryStore) Depth(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.entries)), nil
}

func (s *MemoryStore) Peek(_ context.Context, n int64) ([]deadletter.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > int64(len(s.entries)) {
		n = int64(len(s.entries))
	}
	out := make([]deadletter.Entry, n)
	copy(out, s.entries[:n])
	return out, nil
}
