package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Store maps request fingerprints to previously computed results.
// A miss is (nil, nil); errors mean the backing medium itself failed.
type Store interface {
	// Get retrieves an entry by fingerprint. Returns nil if not found
	// or expired.
	Get(ctx context.Context, key string) (*Entry, error)

	// Put stores an entry, overwriting any existing entry for the key.
	Put(ctx context.Context, key string, entry *Entry) error

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}

// Entry is a cached operation result.
type Entry struct {
	// Result holds the serialized operation result, either plain text
	// wrapped in a JSON string or a structured extraction record. Keeping
	// raw bytes means disk and redis round-trips reproduce results exactly.
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewEntry wraps a serialized result with a creation timestamp.
func NewEntry(result json.RawMessage) *Entry {
	return &Entry{Result: result, CreatedAt: time.Now()}
}

// expired reports whether the entry is older than ttl. Zero ttl means
// entries never expire.
func (e *Entry) expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(e.CreatedAt) > ttl
}

// Options tunes entry lifetime and store size for backends that enforce
// them locally. Zero values mean unbounded and non-expiring.
type Options struct {
	TTL        time.Duration
	MaxEntries int
}
