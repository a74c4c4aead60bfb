package rules

import "time"

// RulesCache caches the active-rule snapshot handed to the compliance
// pipeline, so that evaluating a filing does not hit the database on every
// request. Implementations must be safe for concurrent use.
type RulesCache interface {
	// Get retrieves cached rules, returns nil if cache miss or expired
	Get() []*Rule

	// Set stores rules in cache
	Set(rules []*Rule)

	// Invalidate clears the cache, forcing a refresh on next Get
	Invalidate()

	// IsValid returns true if cache has valid data
	IsValid() bool
}

// CacheConfig holds configuration for cache behavior.
type CacheConfig struct {
	// TTL is the time-to-live for cached entries.
	// Set to 0 for no expiration (manual invalidation only).
	TTL time.Duration
}

// DefaultCacheConfig returns sensible defaults for rule caching: no TTL,
// invalidation happens on rule mutation.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{TTL: 0}
}
