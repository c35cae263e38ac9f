package kv

import "sync"

// Store is the external record store the rest of the system is built on: an
// opaque key-value mapping with last-write-wins semantics. No transactions,
// no watch, no delete — durability and consistency live entirely behind it.
type Store interface {
	Get(key string) (value []byte, found bool, err error)
	Set(key string, value []byte) error
}

// MemoryStore is the in-process implementation used by tests and dev mode.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string][]byte{}}
}

func (s *MemoryStore) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *MemoryStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.records[key] = v
	return nil
}

var _ Store = (*MemoryStore)(nil)
