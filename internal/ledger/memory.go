package ledger

import "sync"

// MemoryStore keeps the ledger in process memory. Used by tests and as the
// fail-open fallback when the SQLite store cannot be opened.
type MemoryStore struct {
	mu        sync.Mutex
	counts    map[string]int
	lastReset string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (map[string]int, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.counts == nil {
		return nil, "", nil
	}

	out := make(map[string]int, len(s.counts))
	for id, n := range s.counts {
		out[id] = n
	}
	return out, s.lastReset, nil
}

func (s *MemoryStore) Save(counts map[string]int, lastReset string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts = make(map[string]int, len(counts))
	for id, n := range counts {
		s.counts[id] = n
	}
	s.lastReset = lastReset
	return nil
}
