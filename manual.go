package memoize

import (
	"context"
	"fmt"

	"github.com/cachelet/go-memoize/event"
	"github.com/cachelet/go-memoize/fingerprint"
	"github.com/cachelet/go-memoize/metrics"
)

// Manual operations bypass the decorator and address the cache directly.
// They all fingerprint under the shared manual namespace, so equivalent
// argument forms (a scalar versus a one-element sequence holding it) address
// the same entry, and no manual key collides with a decorated function's.

func manualKey(args any) string {
	return fingerprint.Key(fingerprint.Manual, fingerprint.Normalize(args))
}

// Put stores val under the manual fingerprint of args and returns it.
// Increments manual_puts and dispatches MANUAL_PUT.
func (h *Handle) Put(ctx context.Context, args any, val any) (any, error) {
	key := manualKey(args)
	if err := h.backend.Put(ctx, key, val); err != nil {
		return nil, fmt.Errorf("memoize: backend put: %w", err)
	}
	h.record(metrics.ManualPuts, event.New(event.ManualPut, h.name, "", key))
	return val, nil
}

// Get reads the manual entry for args. The manual_gets counter and the
// MANUAL_GET event count access attempts, so both fire on misses too.
func (h *Handle) Get(ctx context.Context, args any) (bool, any, error) {
	key := manualKey(args)
	found, val, err := h.backend.Get(ctx, key)
	h.record(metrics.ManualGets, event.New(event.ManualGet, h.name, "", key))
	if err != nil {
		return false, nil, fmt.Errorf("memoize: backend get: %w", err)
	}
	return found, val, nil
}

// Contains reports whether a manual entry exists for args.
func (h *Handle) Contains(ctx context.Context, args any) (bool, error) {
	found, err := h.backend.ContainsKey(ctx, manualKey(args))
	if err != nil {
		return false, fmt.Errorf("memoize: backend contains: %w", err)
	}
	return found, nil
}

// Invalidate clears every entry in the backend cache, decorated and manual
// alike — both populate one backend namespace. Metrics and listeners
// survive; only entries are dropped.
func (h *Handle) Invalidate(ctx context.Context) error {
	if err := h.backend.RemoveAll(ctx); err != nil {
		return fmt.Errorf("memoize: backend remove all: %w", err)
	}
	h.log.Debug("cache invalidated", "cache", h.name)
	return nil
}

// Get reads the manual entry for args as a T, deserializing when the backend
// stores bytes. See Handle.Get for counting semantics.
func Get[T any](ctx context.Context, h *Handle, args any) (bool, T, error) {
	found, val, err := h.Get(ctx, args)
	if !found || err != nil {
		var zero T
		return false, zero, err
	}
	typed, err := decodeValue[T](val)
	if err != nil {
		var zero T
		return false, zero, err
	}
	return true, typed, nil
}
