package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DiskStore persists the cache as a single JSON file so results survive
// restarts. The full map lives in memory; every Put rewrites the file
// through a temp-file rename so a crash mid-write never corrupts it.
// A missing or corrupt file is treated as an empty cache.
type DiskStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]*Entry
	opts    Options
}

// NewDiskStore loads the file at path, creating parent directories as
// needed on first write.
func NewDiskStore(path string, opts Options) (*DiskStore, error) {
	s := &DiskStore{
		path:    path,
		entries: make(map[string]*Entry),
		opts:    opts,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DiskStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cache file: %w", err)
	}
	var entries map[string]*Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		// Corrupt file: start fresh rather than failing startup.
		return nil
	}
	s.entries = entries
	return nil
}

// flush writes the whole map atomically. Caller holds the lock.
func (s *DiskStore) flush() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".llm_cache-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (s *DiskStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if entry.expired(s.opts.TTL, time.Now()) {
		return nil, nil
	}
	return entry, nil
}

func (s *DiskStore) Put(_ context.Context, key string, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry
	if s.opts.MaxEntries > 0 && len(s.entries) > s.opts.MaxEntries {
		s.evictOldest()
	}
	return s.flush()
}

// evictOldest drops entries oldest-first until the bound holds.
// Caller holds the lock.
func (s *DiskStore) evictOldest() {
	for len(s.entries) > s.opts.MaxEntries {
		var oldestKey string
		var oldestAt time.Time
		for k, e := range s.entries {
			if oldestKey == "" || e.CreatedAt.Before(oldestAt) {
				oldestKey = k
				oldestAt = e.CreatedAt
			}
		}
		delete(s.entries, oldestKey)
	}
}

func (s *DiskStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*Entry)
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *DiskStore) Close() error {
	return nil
}
