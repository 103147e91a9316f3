package backend

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

type redisManager struct {
	client *redis.Client
}

var _ Manager = (*redisManager)(nil)

// NewRedisManager returns a Manager backed by Redis. Each named cache is a
// key namespace (`name:fingerprint`). Values are serialized with msgpack, so
// reads return []byte; typed decoding happens in the memoization layer.
//
// The caller owns the redis.Client lifecycle — backend Close is a no-op on
// the client. Entry expiry uses native Redis TTL; expiry cannot be observed,
// so Redis backends do not implement ExpiryNotifier.
func NewRedisManager(client *redis.Client) Manager {
	return &redisManager{client: client}
}

func (m *redisManager) CreateCache(ctx context.Context, name string, cfg Config) (Backend, error) {
	cfg = cfg.normalize()
	b := &redisBackend{client: m.client, name: name, cfg: cfg}
	// replace semantics: drop whatever a previous same-named cache stored
	if err := b.RemoveAll(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (m *redisManager) DestroyCache(ctx context.Context, name string) error {
	b := &redisBackend{client: m.client, name: name, cfg: Config{}.normalize()}
	return b.RemoveAll(ctx)
}

type redisBackend struct {
	client *redis.Client
	name   string
	cfg    Config
}

var _ Backend = (*redisBackend)(nil)

func (b *redisBackend) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, b.cfg.QueryTimeout)
}

func (b *redisBackend) prefixKey(key string) string {
	return b.name + ":" + key
}

func (b *redisBackend) Get(ctx context.Context, key string) (bool, any, error) {
	qctx, cancel := b.queryCtx(ctx)
	defer cancel()
	data, err := b.client.Get(qctx, b.prefixKey(key)).Bytes()
	if err == redis.Nil {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("backend: redis get: %w", err)
	}
	return true, data, nil
}

func (b *redisBackend) Put(ctx context.Context, key string, val any) error {
	data, err := msgpack.Marshal(val)
	if err != nil {
		return fmt.Errorf("backend: failed to marshal value: %w", err)
	}
	qctx, cancel := b.queryCtx(ctx)
	defer cancel()
	var expires = b.cfg.Policy.ExpireAfter
	if b.cfg.Policy.Eternal {
		expires = 0 // redis: no TTL
	}
	if err := b.client.Set(qctx, b.prefixKey(key), data, expires).Err(); err != nil {
		return fmt.Errorf("backend: redis set: %w", err)
	}
	return nil
}

func (b *redisBackend) ContainsKey(ctx context.Context, key string) (bool, error) {
	qctx, cancel := b.queryCtx(ctx)
	defer cancel()
	n, err := b.client.Exists(qctx, b.prefixKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("backend: redis exists: %w", err)
	}
	return n > 0, nil
}

func (b *redisBackend) RemoveAll(ctx context.Context) error {
	qctx, cancel := b.queryCtx(ctx)
	defer cancel()
	iter := b.client.Scan(qctx, 0, b.prefixKey("*"), 100).Iterator()
	var keys []string
	for iter.Next(qctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("backend: redis scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := b.client.Del(qctx, keys...).Err(); err != nil {
		return fmt.Errorf("backend: redis del: %w", err)
	}
	return nil
}

func (b *redisBackend) Close(_ context.Context) error {
	return nil
}
