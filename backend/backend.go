// Package backend defines the storage capability a cache handle is built on,
// along with in-memory, Redis, SQLite, and tiered implementations.
//
// The memoization layer never implements storage itself: it talks to a
// Backend created by a Manager, which is acquired from a Provider. Each of
// the three is a swappable strategy so callers can substitute their own
// acquisition or configuration logic.
package backend

import (
	"context"
	"time"
)

// DefaultQueryTimeout is the per-operation timeout for backends that perform
// I/O (SQLite, Redis). Prevents indefinite hangs on slow or unresponsive
// storage.
const DefaultQueryTimeout = 5 * time.Second

// DefaultSweepInterval is how often expiring backends scan for dead entries.
const DefaultSweepInterval = time.Minute

// Policy describes when entries expire. When Eternal is true entries never
// expire and ExpireAfter is ignored; otherwise entries expire ExpireAfter
// after their last write.
type Policy struct {
	Eternal     bool
	ExpireAfter time.Duration
}

// Config is the resolved configuration handed to a Manager when creating a
// cache.
type Config struct {
	Policy        Policy
	QueryTimeout  time.Duration
	SweepInterval time.Duration
}

// Backend is the injected storage capability. Keys are strings, values are
// arbitrary. Implementations must be safe for concurrent use.
type Backend interface {
	// Get retrieves a value. The bool reports whether the key was present.
	Get(ctx context.Context, key string) (bool, any, error)
	// Put stores a value, resetting the entry's expiry clock.
	Put(ctx context.Context, key string, val any) error
	// ContainsKey reports whether the key is present without reading it.
	ContainsKey(ctx context.Context, key string) (bool, error)
	// RemoveAll clears every entry in the cache.
	RemoveAll(ctx context.Context) error
	// Close releases resources owned by the backend.
	Close(ctx context.Context) error
}

// ExpiryNotifier is implemented by backends that can report entry expiry.
// Backends that cannot observe expiry (e.g. Redis without keyspace
// notifications) simply do not implement it.
type ExpiryNotifier interface {
	// RegisterExpiredListener registers fn to be called with each key as it
	// expires. Listeners may be invoked from a background goroutine.
	RegisterExpiredListener(fn func(key string))
}

// Manager creates and destroys named caches.
type Manager interface {
	// CreateCache returns a Backend for the named cache. Any prior cache
	// with the same name is destroyed first (replace semantics).
	CreateCache(ctx context.Context, name string, cfg Config) (Backend, error)
	// DestroyCache removes the named cache and all of its entries.
	DestroyCache(ctx context.Context, name string) error
}

// Provider acquires a Manager.
type Provider interface {
	Manager(ctx context.Context) (Manager, error)
}

// ConfigBuilder turns an expiry policy into a full backend Config.
type ConfigBuilder interface {
	Build(policy Policy) Config
}

type defaultConfigBuilder struct{}

func (defaultConfigBuilder) Build(policy Policy) Config {
	return Config{
		Policy:        policy,
		QueryTimeout:  DefaultQueryTimeout,
		SweepInterval: DefaultSweepInterval,
	}
}

// DefaultConfigBuilder returns the builder used when no custom builder is
// supplied. It applies DefaultQueryTimeout and DefaultSweepInterval.
func DefaultConfigBuilder() ConfigBuilder {
	return defaultConfigBuilder{}
}

// normalize fills zero-valued Config fields with defaults so custom builders
// can leave them unset.
func (c Config) normalize() Config {
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = DefaultQueryTimeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	return c
}
