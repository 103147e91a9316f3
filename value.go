package memoize

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// decodeValue converts a raw backend value into T. In-memory backends store
// values as-is, so a direct type assertion suffices. Serialized backends
// (Redis, SQLite) return []byte and are deserialized with msgpack. This keeps
// typed reads transparent regardless of which backend produced the value.
func decodeValue[T any](val any) (T, error) {
	// A stored nil can only have come from an interface-typed result, and
	// the zero T is its faithful round-trip.
	if val == nil {
		var zero T
		return zero, nil
	}
	if typed, ok := val.(T); ok {
		return typed, nil
	}
	if data, ok := val.([]byte); ok {
		var result T
		if err := msgpack.Unmarshal(data, &result); err != nil {
			var zero T
			return zero, fmt.Errorf("memoize: failed to unmarshal value: %w", err)
		}
		return result, nil
	}
	var zero T
	return zero, fmt.Errorf("memoize: cannot convert value of type %T to %T", val, zero)
}
