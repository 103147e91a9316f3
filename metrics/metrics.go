// Package metrics provides the per-cache counters tracked by a handle.
package metrics

import "sync/atomic"

// Counter identifies one of the five tracked counters.
type Counter string

const (
	Hits       Counter = "hits"
	Misses     Counter = "misses"
	Errors     Counter = "errors"
	ManualPuts Counter = "manual_puts"
	ManualGets Counter = "manual_gets"
)

// Counters tracks cache activity. All methods are safe for concurrent use.
// Counters are cyclical: incrementing past the maximum representable value
// wraps to zero rather than failing.
type Counters struct {
	hits       atomic.Uint64
	misses     atomic.Uint64
	errors     atomic.Uint64
	manualPuts atomic.Uint64
	manualGets atomic.Uint64
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Errors     uint64 `json:"errors"`
	ManualPuts uint64 `json:"manual_puts"`
	ManualGets uint64 `json:"manual_gets"`
}

func (c *Counters) counter(name Counter) *atomic.Uint64 {
	switch name {
	case Hits:
		return &c.hits
	case Misses:
		return &c.misses
	case Errors:
		return &c.errors
	case ManualPuts:
		return &c.manualPuts
	case ManualGets:
		return &c.manualGets
	}
	return nil
}

// Increment adds one to the named counter. Unknown names are ignored.
func (c *Counters) Increment(name Counter) {
	if v := c.counter(name); v != nil {
		v.Add(1)
	}
}

// Snapshot returns the current counter values.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Errors:     c.errors.Load(),
		ManualPuts: c.manualPuts.Load(),
		ManualGets: c.manualGets.Load(),
	}
}

// Reset zeroes all counters.
func (c *Counters) Reset() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.errors.Store(0)
	c.manualPuts.Store(0)
	c.manualGets.Store(0)
}
