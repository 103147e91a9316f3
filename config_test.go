package memoize

import (
	"context"
	"testing"
	"time"

	"github.com/cachelet/go-memoize/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProvider struct {
	manager backend.Manager
	calls   int
}

func (p *recordingProvider) Manager(ctx context.Context) (backend.Manager, error) {
	p.calls++
	return p.manager, nil
}

type recordingBuilder struct {
	got   []backend.Policy
	built backend.Config
}

func (b *recordingBuilder) Build(policy backend.Policy) backend.Config {
	b.got = append(b.got, policy)
	if b.built != (backend.Config{}) {
		return b.built
	}
	return backend.DefaultConfigBuilder().Build(policy)
}

func TestResolveDefaults(t *testing.T) {
	cfg, err := ResolveConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg.Eternal)
	assert.True(t, *cfg.Eternal)
	assert.Nil(t, cfg.ExpireAfter)
	assert.False(t, cfg.Custom())
}

func TestResolveExpireAfter(t *testing.T) {
	cfg, err := ResolveConfig(WithExpireAfter(1500 * time.Millisecond))
	require.NoError(t, err)
	require.NotNil(t, cfg.Eternal)
	assert.False(t, *cfg.Eternal)
	require.NotNil(t, cfg.ExpireAfter)
	assert.Equal(t, 1500*time.Millisecond, *cfg.ExpireAfter)
}

func TestResolveExpireAfterBelowFloor(t *testing.T) {
	_, err := ResolveConfig(WithExpireAfter(500 * time.Millisecond))
	assert.ErrorIs(t, err, ErrInvalidExpireAfter)
}

func TestResolveCustomFactoriesUnknownPolicy(t *testing.T) {
	manager := backend.NewMemoryManager(context.Background())
	provider := &recordingProvider{manager: manager}
	builder := &recordingBuilder{}

	cfg, err := ResolveConfig(
		WithProvider(provider),
		WithManager(manager),
		WithConfigBuilder(builder),
		// factories win: the simple policy cannot be assumed
		WithExpireAfter(2*time.Second),
	)
	require.NoError(t, err)
	assert.Nil(t, cfg.Eternal)
	assert.Nil(t, cfg.ExpireAfter)
	assert.True(t, cfg.Custom())
	assert.Same(t, provider, cfg.Provider)
	assert.Same(t, manager, cfg.Manager)
	assert.Same(t, builder, cfg.ConfigBuilder)
}

func TestNewUsesCustomFactories(t *testing.T) {
	ctx := context.Background()
	manager := backend.NewMemoryManager(ctx)
	provider := &recordingProvider{manager: manager}
	builder := &recordingBuilder{}

	h, err := New(ctx, "custom", WithProvider(provider), WithConfigBuilder(builder))
	require.NoError(t, err)
	defer h.Close(ctx)

	assert.Equal(t, 1, provider.calls)
	require.Len(t, builder.got, 1)
	// unknown policy resolves to eternal for the builder's benefit
	assert.True(t, builder.got[0].Eternal)
	assert.Nil(t, h.Config().Eternal)
	assert.Nil(t, h.Config().ExpireAfter)
}

func TestNewDirectManagerBypassesProvider(t *testing.T) {
	ctx := context.Background()
	manager := backend.NewMemoryManager(ctx)
	provider := &recordingProvider{manager: backend.NewMemoryManager(ctx)}

	h, err := New(ctx, "direct", WithProvider(provider), WithManager(manager))
	require.NoError(t, err)
	defer h.Close(ctx)
	assert.Zero(t, provider.calls)
}

func TestNewInvalidExpireAfter(t *testing.T) {
	_, err := New(context.Background(), "bad", WithExpireAfter(time.Millisecond))
	assert.ErrorIs(t, err, ErrInvalidExpireAfter)
}

func TestNewRequiresName(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = New(context.Background(), "")
	})
}

func TestNewReplacesPriorCache(t *testing.T) {
	ctx := context.Background()
	manager := backend.NewMemoryManager(ctx)

	h1, err := New(ctx, "replace", WithManager(manager))
	require.NoError(t, err)
	_, err = h1.Put(ctx, "k", "survivor?")
	require.NoError(t, err)

	h2, err := New(ctx, "replace", WithManager(manager))
	require.NoError(t, err)
	defer h2.Close(ctx)

	found, err := h2.Contains(ctx, "k")
	assert.NoError(t, err)
	assert.False(t, found)
}
