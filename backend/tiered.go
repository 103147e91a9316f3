package backend

import (
	"context"

	"golang.org/x/sync/errgroup"
)

type tieredBackend struct {
	tiers []Backend
}

var _ Backend = (*tieredBackend)(nil)

// NewTiered returns a Backend that chains multiple backends together.
// Get checks tiers in order and returns the first hit. Put and RemoveAll
// fan out to all tiers concurrently. This enables topologies such as an
// in-memory L1 backed by a Redis or SQLite L2.
//
// Expiry listener registration is forwarded to the last tier when it
// supports it: the last tier is the authoritative store, earlier tiers are
// lookaside copies whose expiry is incidental.
// At least one backend must be provided; panics if empty.
func NewTiered(tiers ...Backend) Backend {
	if len(tiers) == 0 {
		panic("backend: NewTiered requires at least one backend")
	}
	if notifier, ok := tiers[len(tiers)-1].(ExpiryNotifier); ok {
		return &tieredNotifierBackend{
			tieredBackend: tieredBackend{tiers: tiers},
			notifier:      notifier,
		}
	}
	return &tieredBackend{tiers: tiers}
}

func (t *tieredBackend) Get(ctx context.Context, key string) (bool, any, error) {
	for _, tier := range t.tiers {
		found, val, err := tier.Get(ctx, key)
		if err != nil {
			return false, nil, err
		}
		if found {
			return true, val, nil
		}
	}
	return false, nil, nil
}

func (t *tieredBackend) Put(ctx context.Context, key string, val any) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, tier := range t.tiers {
		tier := tier
		g.Go(func() error {
			return tier.Put(gctx, key, val)
		})
	}
	return g.Wait()
}

func (t *tieredBackend) ContainsKey(ctx context.Context, key string) (bool, error) {
	for _, tier := range t.tiers {
		found, err := tier.ContainsKey(ctx, key)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

func (t *tieredBackend) RemoveAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, tier := range t.tiers {
		tier := tier
		g.Go(func() error {
			return tier.RemoveAll(gctx)
		})
	}
	return g.Wait()
}

func (t *tieredBackend) Close(ctx context.Context) error {
	var firstErr error
	for _, tier := range t.tiers {
		if err := tier.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type tieredNotifierBackend struct {
	tieredBackend
	notifier ExpiryNotifier
}

var _ ExpiryNotifier = (*tieredNotifierBackend)(nil)

func (t *tieredNotifierBackend) RegisterExpiredListener(fn func(key string)) {
	t.notifier.RegisterExpiredListener(fn)
}
