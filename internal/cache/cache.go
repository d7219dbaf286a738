// Package cache provides the pluggable key/value cache used for session
// snapshots and rate-limit counters. Two backends ship in-tree: a redis
// backend for multi-instance deployments and an in-process LRU for
// single-node and degraded operation.
package cache

import (
	"context"
	"time"
)

// State describes the outcome of a Get.
type State int

const (
	// Found means the key exists and carries the returned value.
	Found State = iota
	// NotFound means the backend answered and the key is absent.
	NotFound
	// Unavailable means the backend failed to answer. Backends never
	// collapse this into NotFound; callers decide whether an outage is
	// a soft miss or an error.
	Unavailable
)

func (s State) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Result is the three-way outcome of a lookup.
type Result struct {
	State State
	Value string
}

// Backend is the cache contract shared by all implementations.
// Implementations must be safe for concurrent use.
type Backend interface {
	Get(ctx context.Context, key string) Result

	// Insert stores value under key. A zero ttl means the backend
	// default; backends limited to a single global TTL ignore the
	// per-entry value entirely (see SupportsPerEntryTTL).
	Insert(ctx context.Context, key, value string, ttl time.Duration) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// InvalidateAll drops every entry. Backends that cannot support it
	// log the request and no-op rather than fail.
	InvalidateAll(ctx context.Context) error

	// SupportsPerEntryTTL reports whether Insert honors per-entry TTLs.
	SupportsPerEntryTTL() bool

	// Name identifies the backend in logs and metrics.
	Name() string
}

// Config carries everything a backend constructor may need. Backends
// read only the fields that concern them.
type Config struct {
	Kind       string        // registry name of the backend to open
	DefaultTTL time.Duration // applied when Insert is called with ttl==0
	MaxEntries int           // in-process capacity bound

	RedisAddr     string
	RedisDB       int
	RedisPassword string
	RedisPrefix   string // prepended to every key
	RedisPoolSize int
}
