// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache holds the response cache implementations and the
// invalidation dispatcher that fans content changes out to them.
package cache

import (
	"context"
	"time"
)

// Cache is the byte-oriented store shared by the memory and Redis
// implementations. All methods are safe for concurrent use.
type Cache interface {
	// Get returns the stored value, or ErrCacheMiss when the key is
	// absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value; ttl zero means the implementation's default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes one key.
	Delete(ctx context.Context, key string) error

	// DeleteByPrefix removes every key starting with prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error

	// Clear empties the cache.
	Clear(ctx context.Context) error

	// Close releases the cache's resources.
	Close() error
}

// Stats holds cache hit/miss counters.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	Items  int   `json:"items"`
}

// StatsProvider is implemented by caches that track counters.
type StatsProvider interface {
	Stats() Stats
}

// Error is a sentinel error value for cache conditions.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrCacheMiss means the key was not found or has expired.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed means Close was already called.
	ErrCacheClosed Error = "cache closed"
)
