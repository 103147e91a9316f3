package memoize

import (
	"context"
	"fmt"
	"reflect"
	"runtime"

	"github.com/cachelet/go-memoize/event"
	"github.com/cachelet/go-memoize/fingerprint"
	"github.com/cachelet/go-memoize/metrics"
)

// Func is a memoizable function: a context plus an argument sequence
// producing a value or an error.
type Func[T any] func(ctx context.Context, args ...any) (T, error)

// Fallback resolves a failed call. It receives the original failure as cause
// together with the original arguments, and its result is returned in place
// of the failure. It may itself fail.
type Fallback[T any] func(ctx context.Context, cause error, args ...any) (T, error)

type wrapConfig[T any] struct {
	name     string
	fallback Fallback[T]
}

// WrapOption configures a single Wrap call.
type WrapOption[T any] func(*wrapConfig[T])

// WithDisplayName overrides the function identity used for fingerprinting.
// Use it when the runtime name is unstable (anonymous functions) or when two
// wrapped functions must share a key namespace.
func WithDisplayName[T any](name string) WrapOption[T] {
	return func(c *wrapConfig[T]) { c.name = name }
}

// WithFallback installs a fallback invoked when the wrapped function fails.
// Without one, failures propagate to the caller unchanged.
func WithFallback[T any](fb Fallback[T]) WrapOption[T] {
	return func(c *wrapConfig[T]) { c.fallback = fb }
}

// displayName resolves fn's printed name via the runtime. Two distinct
// functions with colliding display names fingerprint identically; this is a
// documented limitation of the keying scheme (see package fingerprint).
func displayName(fn any) string {
	if f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()); f != nil {
		return f.Name()
	}
	return fmt.Sprintf("%T", fn)
}

// Wrap decorates fn with memoization through h.
//
// Each call fingerprints the arguments under fn's display name and consults
// the backend:
//
//   - present: the stored value is returned as-is, hits incremented, HIT
//     dispatched. The entry is never re-validated.
//   - absent: fn runs. On success the result is stored, misses incremented,
//     and MISSED dispatched after the store.
//   - failure: errors incremented, ERROR dispatched carrying the cause, then
//     the fallback resolves the call if one was installed; otherwise the
//     original failure is returned unchanged.
//
// There is no single-flight deduplication: concurrent misses on one key each
// invoke fn, last write wins. The engine imposes no timeout of its own; fn's
// latency passes through uncontrolled.
func Wrap[T any](h *Handle, fn Func[T], opts ...WrapOption[T]) Func[T] {
	cfg := wrapConfig[T]{name: displayName(fn)}
	for _, opt := range opts {
		opt(&cfg)
	}
	return func(ctx context.Context, args ...any) (T, error) {
		key := fingerprint.Key(cfg.name, args)

		found, raw, err := h.backend.Get(ctx, key)
		if err != nil {
			var zero T
			return zero, fmt.Errorf("memoize: backend get: %w", err)
		}
		if found {
			val, err := decodeValue[T](raw)
			if err != nil {
				var zero T
				return zero, err
			}
			h.record(metrics.Hits, event.New(event.Hit, h.name, cfg.name, key))
			return val, nil
		}

		val, err := fn(ctx, args...)
		if err != nil {
			evt := event.New(event.Error, h.name, cfg.name, key)
			evt.Cause = err
			h.record(metrics.Errors, evt)
			if cfg.fallback != nil {
				return cfg.fallback(ctx, err, args...)
			}
			var zero T
			return zero, err
		}

		// The caller already has their value; a failed store only costs a
		// future recomputation.
		if err := h.backend.Put(ctx, key, val); err != nil {
			h.log.Warn("failed to store computed value", "cache", h.name, "key", key, "error", err)
		}
		h.record(metrics.Misses, event.New(event.Missed, h.name, cfg.name, key))
		return val, nil
	}
}
