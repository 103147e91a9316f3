// Package memoize wraps arbitrary functions with transparent result caching
// over a pluggable storage backend.
//
// # Handles
//
// A [Handle] is a named cache: an injected backend capability plus the
// metrics counters, event listeners, and resolved configuration shared by
// every operation against it. Create one with [New]:
//
//	h, err := memoize.New(ctx, "users")
//
// Creation has replace semantics — any prior backend cache with the same
// name is destroyed first, so New is idempotent-by-replacement rather than
// additive. By default entries are eternal and live in the process-wide
// in-memory manager; [WithExpireAfter] bounds entry lifetime (minimum one
// second, measured from the last write), and [WithProvider], [WithManager],
// and [WithConfigBuilder] swap out backend acquisition entirely. When any of
// those three factories is customized the resolved [Config] reports an
// unknown expiry policy: the system defers to the caller's configuration and
// does not pretend to know what it does.
//
// # Decoration
//
// [Wrap] turns a function into a memoized one with the same shape:
//
//	fetch := memoize.Wrap(h, fetchUser)
//	user, err := fetch(ctx, 123)   // invokes fetchUser, stores the result
//	user, err = fetch(ctx, 123)    // served from the backend
//
// Calls are keyed by a fingerprint of the function's display name and its
// argument sequence (see [github.com/cachelet/go-memoize/fingerprint]). Each
// call is a hit (value returned from the backend as-is), a miss (the
// function runs and its result is stored), or an error. Failures are counted
// and either resolved by a [Fallback] installed with [WithFallback] or
// returned to the caller unchanged, exactly as if the function had not been
// wrapped.
//
// Concurrent misses on the same key each invoke the wrapped function and the
// last write wins; there is deliberately no single-flight deduplication.
//
// # Manual access
//
// [Handle.Put], [Handle.Get], [Handle.Contains], and the typed [Get] helper
// address the cache directly under a reserved "manual" namespace that no
// decorated function can collide with. [Handle.Invalidate] clears all
// entries — decorated and manual share one backend namespace — while
// metrics and listeners survive.
//
// # Observability
//
// Every operation updates the handle's five counters (hits, misses, errors,
// manual_puts, manual_gets), readable via [Handle.Metrics]. The counters are
// cyclical: at the maximum representable value one more increment wraps to
// zero. [Handle.Subscribe] registers handlers for HIT, MISSED, ERROR,
// MANUAL_PUT, MANUAL_GET, and EXPIRED events, dispatched synchronously in
// subscription order. EXPIRED delivery depends on the backend: it is
// forwarded to the backend's native expiry listener registration and is a
// silent no-op for backends that cannot observe expiry (such as Redis).
package memoize
