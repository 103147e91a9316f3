// Package fingerprint derives deterministic cache keys from a function
// identity and its argument sequence.
//
// The key is the md5 digest of the canonical rendering of the normalized
// argument sequence with the function's display name appended as the final
// element, encoded as 32 lowercase hex characters. Identical (identity, args)
// pairs always produce identical keys within a process.
//
// The identity is the function's printed display name, not a structural
// identity: two distinct functions sharing a display name produce colliding
// keys. This is a documented limitation, kept for cache-key compatibility.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"reflect"
)

// Manual is the reserved identity used by direct put/get/contains operations,
// which have no real function behind them. All manual operations share one
// fingerprint namespace distinct from any decorated function's namespace.
const Manual = "manual"

// Key computes the fingerprint for a function identity and argument sequence.
func Key(name string, args []any) string {
	seq := make([]any, 0, len(args)+1)
	seq = append(seq, args...)
	seq = append(seq, name)
	// fmt renders map keys in sorted order, so this is deterministic for
	// any argument the caller can round-trip through the cache.
	sum := md5.Sum([]byte(fmt.Sprintf("%v", seq)))
	return hex.EncodeToString(sum[:])
}

// Normalize coerces an argument value into the sequence form Key hashes.
// A []any passes through unchanged, other slices and arrays are expanded
// element-wise, and any other value becomes a one-element sequence. A scalar
// and a one-element sequence holding that scalar therefore fingerprint
// identically.
func Normalize(v any) []any {
	if v == nil {
		return nil
	}
	if s, ok := v.([]any); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	default:
		return []any{v}
	}
}
