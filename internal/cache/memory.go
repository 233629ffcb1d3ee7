package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process store. Contents die with the process.
// Safe for concurrent use; racing writers for one key settle on the
// last write.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string // insertion order, for oldest-first eviction
	opts    Options
}

// NewMemoryStore creates an in-memory store. With zero Options it is
// unbounded and never expires entries.
func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
		opts:    opts,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if entry.expired(s.opts.TTL, time.Now()) {
		return nil, nil
	}
	return entry, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists {
		s.order = append(s.order, key)
	}
	s.entries[key] = entry

	for s.opts.MaxEntries > 0 && len(s.entries) > s.opts.MaxEntries {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
	}
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*Entry)
	s.order = nil
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// Len reports the current entry count.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
