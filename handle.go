package memoize

import (
	"context"
	"fmt"

	"github.com/cachelet/go-memoize/backend"
	"github.com/cachelet/go-memoize/event"
	"github.com/cachelet/go-memoize/logger"
	"github.com/cachelet/go-memoize/metrics"
)

// Handle is a named memoization cache: an injected backend capability plus
// the metrics, listeners, and resolved configuration that all decorated and
// manual operations share. Create one per logical cache with New and keep it
// for the cache's lifetime.
//
// All methods are safe for concurrent use. The backend is assumed
// thread-safe by contract.
type Handle struct {
	name     string
	cfg      Config
	backend  backend.Backend
	counters metrics.Counters
	bus      *event.Bus
	log      logger.Logger
}

// New creates a cache handle. Creation destroys and recreates any prior
// backend cache of the same name (replace semantics), so calling New twice
// with one name yields an empty cache, not the survivor's entries.
func New(ctx context.Context, name string, opts ...Option) (*Handle, error) {
	if name == "" {
		panic("memoize: New requires a cache name")
	}
	cfg, err := ResolveConfig(opts...)
	if err != nil {
		return nil, err
	}
	log := cfg.Logger.WithPrefix("memoize")

	manager := cfg.Manager
	if manager == nil {
		provider := cfg.Provider
		if provider == nil {
			provider = backend.DefaultProvider()
		}
		manager, err = provider.Manager(ctx)
		if err != nil {
			return nil, fmt.Errorf("memoize: failed to acquire backend manager: %w", err)
		}
	}
	builder := cfg.ConfigBuilder
	if builder == nil {
		builder = backend.DefaultConfigBuilder()
	}

	b, err := manager.CreateCache(ctx, name, builder.Build(cfg.policy()))
	if err != nil {
		return nil, fmt.Errorf("memoize: failed to create cache %q: %w", name, err)
	}
	log.Debug("cache created", "cache", name)

	return &Handle{
		name:    name,
		cfg:     cfg,
		backend: b,
		bus:     event.NewBus(log),
		log:     log,
	}, nil
}

// Name returns the cache name.
func (h *Handle) Name() string {
	return h.name
}

// Config returns the resolved configuration.
func (h *Handle) Config() Config {
	return h.cfg
}

// Backend returns the injected storage capability.
func (h *Handle) Backend() backend.Backend {
	return h.backend
}

// Metrics returns a point-in-time snapshot of the handle's counters.
func (h *Handle) Metrics() metrics.Snapshot {
	return h.counters.Snapshot()
}

// ResetMetrics zeroes all five counters. Cache entries and listeners are
// unaffected.
func (h *Handle) ResetMetrics() {
	h.counters.Reset()
}

// Subscribe registers handler for events of type t, dispatched synchronously
// in subscription order. Unrecognized types fail with
// event.ErrInvalidEventKey.
//
// event.Expired is special: only the backend knows when entries actually
// expire, so the subscription is forwarded to the backend's native expiry
// listener registration. When the backend cannot observe expiry the
// subscription is a silent no-op.
func (h *Handle) Subscribe(t event.Type, handler event.Handler) error {
	if t != event.Expired {
		return h.bus.Subscribe(t, handler)
	}
	notifier, ok := h.backend.(backend.ExpiryNotifier)
	if !ok {
		h.log.Debug("backend cannot observe expiry, EXPIRED subscription dropped", "cache", h.name)
		return nil
	}
	notifier.RegisterExpiredListener(func(key string) {
		defer func() {
			if r := recover(); r != nil {
				h.log.Error("event handler panicked", "event", string(event.Expired), "key", key, "panic", fmt.Sprintf("%v", r))
			}
		}()
		handler(event.New(event.Expired, h.name, "", key))
	})
	return nil
}

// Close releases backend resources. Metrics and listeners become inert.
func (h *Handle) Close(ctx context.Context) error {
	return h.backend.Close(ctx)
}

// record bumps a counter and dispatches the matching event.
func (h *Handle) record(counter metrics.Counter, evt event.Event) {
	h.counters.Increment(counter)
	h.bus.Dispatch(evt)
}
