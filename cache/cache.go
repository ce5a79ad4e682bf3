// Package cache stores encoded search results keyed by query, upload
// filter and sort order.
package cache

import "context"

// Cache maps keys to opaque payloads. Entries expire after the TTL the
// implementation was built with.
type Cache interface {
	// Get returns the payload for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value under key.
	Set(ctx context.Context, key string, value []byte)
	// Delete removes key.
	Delete(ctx context.Context, key string)
	// Stats returns counters since construction.
	Stats() Stats
}

// Stats holds cache counters.
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Sets        int64 `json:"sets"`
	Evictions   int64 `json:"evictions"`
	CurrentSize int   `json:"current_size"`
}
