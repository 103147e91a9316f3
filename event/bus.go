package event

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cachelet/go-memoize/logger"
)

// ErrInvalidEventKey is returned when subscribing to an unrecognized event
// type.
var ErrInvalidEventKey = errors.New("event: invalid event key")

// Bus is a per-type subscriber registry with synchronous dispatch.
//
// Handlers run on the dispatching goroutine in subscription order. A handler
// panic is recovered and logged so that later handlers still run; it is
// never propagated to the dispatcher.
//
// Subscription is expected to be rare relative to dispatch, so handler
// slices are replaced on write and read without copying.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
	log      logger.Logger
}

// NewBus returns an empty bus. If log is nil, recovered handler panics are
// discarded silently.
func NewBus(log logger.Logger) *Bus {
	if log == nil {
		log = logger.NewNull()
	}
	return &Bus{
		handlers: make(map[Type][]Handler),
		log:      log,
	}
}

// Subscribe registers handler for events of type t. Handlers are dispatched
// in subscription order. Returns ErrInvalidEventKey for unrecognized types.
func (b *Bus) Subscribe(t Type, handler Handler) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidEventKey, t)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	// copy-on-write so Dispatch can iterate without holding the lock
	existing := b.handlers[t]
	next := make([]Handler, len(existing)+1)
	copy(next, existing)
	next[len(existing)] = handler
	b.handlers[t] = next
	return nil
}

// Dispatch delivers evt to every handler subscribed to its type,
// synchronously, on the calling goroutine.
func (b *Bus) Dispatch(evt Event) {
	b.mu.RLock()
	handlers := b.handlers[evt.Type]
	b.mu.RUnlock()
	for _, handler := range handlers {
		b.invoke(handler, evt)
	}
}

func (b *Bus) invoke(handler Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked", "event", string(evt.Type), "key", evt.Key, "panic", fmt.Sprintf("%v", r))
		}
	}()
	handler(evt)
}
