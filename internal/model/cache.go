package model

import "time"

// Invalidation triggers for a CachePolicy
const (
	// InvalidateOnExpiry means writes do not evict the entry; it lives for TTL
	// unless flushed explicitly.
	InvalidateOnExpiry = "expiry"
)

// CachePolicy tells the presentation layer how it may cache a feed result.
type CachePolicy struct {
	Key          string        `json:"key"`
	TTL          time.Duration `json:"ttl"`
	Invalidation string        `json:"invalidation"`
}

const (
	IndexPageCacheKey    = "index_page"
	DefaultIndexCacheTTL = 20 * time.Second
)
