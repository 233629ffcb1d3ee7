package cache

import "context"

// NoOpStore is a store implementation that does nothing.
// Used when caching is disabled - all operations succeed
// but no actual caching occurs (always cache miss).
type NoOpStore struct{}

// NewNoOpStore creates a new no-op store instance
func NewNoOpStore() *NoOpStore {
	return &NoOpStore{}
}

// Get always returns nil (cache miss)
func (s *NoOpStore) Get(ctx context.Context, key string) (*Entry, error) {
	return nil, nil
}

// Put does nothing and always succeeds
func (s *NoOpStore) Put(ctx context.Context, key string, entry *Entry) error {
	return nil
}

// Clear does nothing and always succeeds
func (s *NoOpStore) Clear(ctx context.Context) error {
	return nil
}

// Close does nothing and always succeeds
func (s *NoOpStore) Close() error {
	return nil
}
