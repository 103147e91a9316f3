package memoize

import (
	"context"
	"testing"

	"github.com/cachelet/go-memoize/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualPutGetContains(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	val, err := h.Put(ctx, "foo", "bar")
	assert.NoError(t, err)
	assert.Equal(t, "bar", val)

	ok, err := h.Contains(ctx, "foo")
	assert.NoError(t, err)
	assert.True(t, ok)

	found, got, err := h.Get(ctx, "foo")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "bar", got)
}

func TestManualScalarSequenceEquivalence(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	_, err := h.Put(ctx, "foo", "bar")
	require.NoError(t, err)

	// a one-element sequence addresses the same entry as the bare scalar
	ok, err := h.Contains(ctx, []any{"foo"})
	assert.NoError(t, err)
	assert.True(t, ok)

	found, got, err := h.Get(ctx, []any{"foo"})
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "bar", got)
}

func TestManualGetCountsAttempts(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	var events []event.Event
	require.NoError(t, h.Subscribe(event.ManualGet, func(evt event.Event) {
		events = append(events, evt)
	}))

	// misses count too: the metric tracks access attempts, not hits
	found, _, err := h.Get(ctx, "missing")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, uint64(1), h.Metrics().ManualGets)
	assert.Len(t, events, 1)
	assert.Empty(t, events[0].FnName)
}

func TestManualMetrics(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	for i := 0; i < 3; i++ {
		_, err := h.Put(ctx, i, i)
		require.NoError(t, err)
	}
	for i := 0; i < 12; i++ {
		_, _, err := h.Get(ctx, i%4)
		require.NoError(t, err)
	}

	snap := h.Metrics()
	assert.Equal(t, uint64(3), snap.ManualPuts)
	assert.Equal(t, uint64(12), snap.ManualGets)

	h.ResetMetrics()
	assert.Zero(t, h.Metrics())
}

func TestManualPutEvent(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	var events []event.Event
	require.NoError(t, h.Subscribe(event.ManualPut, func(evt event.Event) {
		events = append(events, evt)
	}))

	_, err := h.Put(ctx, "foo", 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.ManualPut, events[0].Type)
	assert.Equal(t, "test", events[0].CacheName)
	assert.Empty(t, events[0].FnName)
}

func TestManualNamespaceSeparateFromDecorated(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	fetch := Wrap(h, func(context.Context, ...any) (string, error) {
		return "decorated", nil
	}, WithDisplayName[string]("fetchSeparate"))
	_, err := fetch(ctx, "foo")
	require.NoError(t, err)

	// same argument, different namespace
	found, _, err := h.Get(ctx, "foo")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestManualTypedGet(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	type user struct {
		ID   int
		Name string
	}
	_, err := h.Put(ctx, 7, user{ID: 7, Name: "kim"})
	require.NoError(t, err)

	found, got, err := Get[user](ctx, h, 7)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, user{ID: 7, Name: "kim"}, got)

	found, _, err = Get[user](ctx, h, 8)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestManualTypedGetNilValue(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	_, err := h.Put(ctx, "absent", nil)
	require.NoError(t, err)

	found, got, err := Get[any](ctx, h, "absent")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Nil(t, got)
}

func TestInvalidateKeepsMetricsAndListeners(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	var puts int
	require.NoError(t, h.Subscribe(event.ManualPut, func(event.Event) { puts++ }))

	_, err := h.Put(ctx, "foo", 1)
	require.NoError(t, err)
	require.NoError(t, h.Invalidate(ctx))

	ok, err := h.Contains(ctx, "foo")
	assert.NoError(t, err)
	assert.False(t, ok)

	// metrics and listeners survived
	assert.Equal(t, uint64(1), h.Metrics().ManualPuts)
	_, err = h.Put(ctx, "foo", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, puts)
}
