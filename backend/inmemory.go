package backend

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	object  any
	expires time.Time // zero means never
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && e.expires.Before(now)
}

type memoryBackend struct {
	ctx       context.Context
	cancel    context.CancelFunc
	entries   map[string]*memoryEntry
	mutex     sync.Mutex
	listeners []func(key string)
	waitGroup sync.WaitGroup
	once      sync.Once
	cfg       Config
}

var (
	_ Backend        = (*memoryBackend)(nil)
	_ ExpiryNotifier = (*memoryBackend)(nil)
)

func newMemoryBackend(parent context.Context, cfg Config) *memoryBackend {
	ctx, cancel := context.WithCancel(parent)
	b := &memoryBackend{
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*memoryEntry),
		cfg:     cfg,
	}
	if !cfg.Policy.Eternal {
		b.waitGroup.Add(1)
		go b.run()
	}
	return b
}

func (b *memoryBackend) Get(_ context.Context, key string) (bool, any, error) {
	b.mutex.Lock()
	e, ok := b.entries[key]
	if !ok {
		b.mutex.Unlock()
		return false, nil, nil
	}
	if e.expired(time.Now()) {
		delete(b.entries, key)
		b.mutex.Unlock()
		b.notifyExpired(key)
		return false, nil, nil
	}
	b.mutex.Unlock()
	return true, e.object, nil
}

func (b *memoryBackend) Put(_ context.Context, key string, val any) error {
	var expires time.Time
	if !b.cfg.Policy.Eternal {
		expires = time.Now().Add(b.cfg.Policy.ExpireAfter)
	}
	b.mutex.Lock()
	b.entries[key] = &memoryEntry{object: val, expires: expires}
	b.mutex.Unlock()
	return nil
}

func (b *memoryBackend) ContainsKey(_ context.Context, key string) (bool, error) {
	b.mutex.Lock()
	e, ok := b.entries[key]
	if ok && e.expired(time.Now()) {
		delete(b.entries, key)
		b.mutex.Unlock()
		b.notifyExpired(key)
		return false, nil
	}
	b.mutex.Unlock()
	return ok, nil
}

func (b *memoryBackend) RemoveAll(_ context.Context) error {
	b.mutex.Lock()
	b.entries = make(map[string]*memoryEntry)
	b.mutex.Unlock()
	return nil
}

func (b *memoryBackend) Close(_ context.Context) error {
	b.once.Do(func() {
		b.cancel()
		b.waitGroup.Wait()
	})
	return nil
}

func (b *memoryBackend) RegisterExpiredListener(fn func(key string)) {
	b.mutex.Lock()
	b.listeners = append(b.listeners, fn)
	b.mutex.Unlock()
}

func (b *memoryBackend) notifyExpired(key string) {
	b.mutex.Lock()
	listeners := b.listeners
	b.mutex.Unlock()
	for _, fn := range listeners {
		fn(key)
	}
}

func (b *memoryBackend) run() {
	defer b.waitGroup.Done()
	ticker := time.NewTicker(b.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-b.ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			var dead []string
			b.mutex.Lock()
			for key, e := range b.entries {
				if e.expired(now) {
					delete(b.entries, key)
					dead = append(dead, key)
				}
			}
			b.mutex.Unlock()
			for _, key := range dead {
				b.notifyExpired(key)
			}
		}
	}
}

type memoryManager struct {
	ctx    context.Context
	mutex  sync.Mutex
	caches map[string]*memoryBackend
}

var _ Manager = (*memoryManager)(nil)

// NewMemoryManager returns a Manager whose caches live in process memory.
// Values are stored as-is with no serialization, so mutations to stored
// pointers are visible through the cache.
func NewMemoryManager(ctx context.Context) Manager {
	return &memoryManager{
		ctx:    ctx,
		caches: make(map[string]*memoryBackend),
	}
}

func (m *memoryManager) CreateCache(ctx context.Context, name string, cfg Config) (Backend, error) {
	cfg = cfg.normalize()
	m.mutex.Lock()
	prior := m.caches[name]
	b := newMemoryBackend(m.ctx, cfg)
	m.caches[name] = b
	m.mutex.Unlock()
	if prior != nil {
		prior.Close(ctx)
	}
	return b, nil
}

func (m *memoryManager) DestroyCache(ctx context.Context, name string) error {
	m.mutex.Lock()
	prior := m.caches[name]
	delete(m.caches, name)
	m.mutex.Unlock()
	if prior != nil {
		return prior.Close(ctx)
	}
	return nil
}

var (
	defaultManagerOnce sync.Once
	defaultManager     Manager
)

type defaultProvider struct{}

func (defaultProvider) Manager(ctx context.Context) (Manager, error) {
	defaultManagerOnce.Do(func() {
		defaultManager = NewMemoryManager(context.Background())
	})
	return defaultManager, nil
}

// DefaultProvider returns the provider used when no custom provider is
// supplied. It yields a process-wide in-memory Manager.
func DefaultProvider() Provider {
	return defaultProvider{}
}
