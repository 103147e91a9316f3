// Package event defines cache lifecycle events and the synchronous
// subscriber bus that delivers them.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies a cache lifecycle event.
type Type string

const (
	// Hit fires when a decorated call finds its key in the backend.
	Hit Type = "HIT"
	// Missed fires after a decorated call stores a freshly computed value.
	Missed Type = "MISSED"
	// Error fires when the wrapped function fails.
	Error Type = "ERROR"
	// Expired fires when the backend reports an entry expiry. Delivery
	// depends on the backend's native listener support.
	Expired Type = "EXPIRED"
	// ManualPut fires on a direct put.
	ManualPut Type = "MANUAL_PUT"
	// ManualGet fires on a direct get, hit or not.
	ManualGet Type = "MANUAL_GET"
)

// Types returns all recognized event types.
func Types() []Type {
	return []Type{Hit, Missed, Error, Expired, ManualPut, ManualGet}
}

// Valid reports whether t is a recognized event type.
func (t Type) Valid() bool {
	switch t {
	case Hit, Missed, Error, Expired, ManualPut, ManualGet:
		return true
	}
	return false
}

// Event is the payload delivered to subscribed handlers. It is ephemeral:
// constructed per dispatch and never persisted.
type Event struct {
	// ID uniquely identifies the dispatch for correlation across handlers.
	ID string
	// Type is the event type.
	Type Type
	// CacheName is the name of the cache handle that produced the event.
	CacheName string
	// FnName is the display name of the decorated function. Empty for
	// expired and manual events.
	FnName string
	// Key is the fingerprint the event concerns.
	Key string
	// CreationTime is when the event was constructed.
	CreationTime time.Time
	// Cause carries the wrapped function's failure. Set only for Error.
	Cause error
}

// New constructs an event with a fresh ID and the current time.
func New(t Type, cacheName, fnName, key string) Event {
	return Event{
		ID:           uuid.NewString(),
		Type:         t,
		CacheName:    cacheName,
		FnName:       fnName,
		Key:          key,
		CreationTime: time.Now(),
	}
}

// Handler receives dispatched events.
type Handler func(Event)
