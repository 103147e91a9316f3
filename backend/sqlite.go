package backend

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

// SQLiteManager is a Manager backed by a single SQLite database. Every named
// cache shares one table, keyed by (cache_name, key). Values are serialized
// with msgpack, so reads return []byte; typed decoding happens in the
// memoization layer.
type SQLiteManager struct {
	db    *sql.DB
	mutex sync.Mutex
	open  map[string]*sqliteBackend
}

var _ Manager = (*SQLiteManager)(nil)

// NewSQLiteManager opens (or creates) the database at dbPath. If dbPath is
// empty or ":memory:", an in-memory database is used. The manager owns the
// database handle; Close it when done.
func NewSQLiteManager(dbPath string) (*SQLiteManager, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("backend: failed to open sqlite database: %w", err)
	}

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS cache_entries (
		cache_name TEXT NOT NULL,
		key TEXT NOT NULL,
		value BLOB NOT NULL,
		expires_at INTEGER NOT NULL,
		PRIMARY KEY (cache_name, key)
	)`); err != nil {
		db.Close()
		return nil, err
	}

	// Index for efficient sweeps.
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_cache_entries_expires_at ON cache_entries(expires_at)`); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteManager{db: db, open: make(map[string]*sqliteBackend)}, nil
}

func (m *SQLiteManager) CreateCache(ctx context.Context, name string, cfg Config) (Backend, error) {
	cfg = cfg.normalize()
	if err := m.DestroyCache(ctx, name); err != nil {
		return nil, err
	}
	childCtx, cancel := context.WithCancel(context.Background())
	b := &sqliteBackend{
		db:     m.db,
		name:   name,
		cfg:    cfg,
		ctx:    childCtx,
		cancel: cancel,
	}
	if !cfg.Policy.Eternal {
		b.waitGroup.Add(1)
		go b.run()
	}
	m.mutex.Lock()
	m.open[name] = b
	m.mutex.Unlock()
	return b, nil
}

func (m *SQLiteManager) DestroyCache(ctx context.Context, name string) error {
	m.mutex.Lock()
	prior := m.open[name]
	delete(m.open, name)
	m.mutex.Unlock()
	if prior != nil {
		prior.Close(ctx)
	}
	_, err := m.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_name = ?`, name)
	if err != nil {
		return fmt.Errorf("backend: failed to destroy cache %q: %w", name, err)
	}
	return nil
}

// Close stops all cache sweepers and closes the database.
func (m *SQLiteManager) Close() error {
	m.mutex.Lock()
	open := make([]*sqliteBackend, 0, len(m.open))
	for _, b := range m.open {
		open = append(open, b)
	}
	m.open = make(map[string]*sqliteBackend)
	m.mutex.Unlock()
	for _, b := range open {
		b.Close(context.Background())
	}
	return m.db.Close()
}

type sqliteBackend struct {
	db        *sql.DB
	name      string
	cfg       Config
	ctx       context.Context
	cancel    context.CancelFunc
	waitGroup sync.WaitGroup
	once      sync.Once
	mutex     sync.Mutex
	listeners []func(key string)
}

var (
	_ Backend        = (*sqliteBackend)(nil)
	_ ExpiryNotifier = (*sqliteBackend)(nil)
)

func (b *sqliteBackend) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, b.cfg.QueryTimeout)
}

// expiresAt computes the stored expiry for a write happening now. Zero means
// never.
func (b *sqliteBackend) expiresAt() int64 {
	if b.cfg.Policy.Eternal {
		return 0
	}
	return time.Now().Add(b.cfg.Policy.ExpireAfter).UnixNano()
}

func expired(expiresAt, now int64) bool {
	return expiresAt != 0 && expiresAt < now
}

func (b *sqliteBackend) Get(ctx context.Context, key string) (bool, any, error) {
	qctx, cancel := b.queryCtx(ctx)
	defer cancel()
	now := time.Now().UnixNano()
	var data []byte
	var expiresAt int64
	err := b.db.QueryRowContext(qctx,
		`SELECT value, expires_at FROM cache_entries WHERE cache_name = ? AND key = ?`, b.name, key,
	).Scan(&data, &expiresAt)
	if err == sql.ErrNoRows {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("backend: sqlite get: %w", err)
	}
	if expired(expiresAt, now) {
		// lazily delete the dead row
		_, _ = b.db.ExecContext(qctx, `DELETE FROM cache_entries WHERE cache_name = ? AND key = ?`, b.name, key)
		b.notifyExpired(key)
		return false, nil, nil
	}
	return true, data, nil
}

func (b *sqliteBackend) Put(ctx context.Context, key string, val any) error {
	data, err := msgpack.Marshal(val)
	if err != nil {
		return fmt.Errorf("backend: failed to marshal value: %w", err)
	}
	qctx, cancel := b.queryCtx(ctx)
	defer cancel()
	_, err = b.db.ExecContext(qctx,
		`INSERT INTO cache_entries (cache_name, key, value, expires_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(cache_name, key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		b.name, key, data, b.expiresAt(),
	)
	if err != nil {
		return fmt.Errorf("backend: sqlite put: %w", err)
	}
	return nil
}

func (b *sqliteBackend) ContainsKey(ctx context.Context, key string) (bool, error) {
	qctx, cancel := b.queryCtx(ctx)
	defer cancel()
	now := time.Now().UnixNano()
	var expiresAt int64
	err := b.db.QueryRowContext(qctx,
		`SELECT expires_at FROM cache_entries WHERE cache_name = ? AND key = ?`, b.name, key,
	).Scan(&expiresAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("backend: sqlite contains: %w", err)
	}
	if expired(expiresAt, now) {
		_, _ = b.db.ExecContext(qctx, `DELETE FROM cache_entries WHERE cache_name = ? AND key = ?`, b.name, key)
		b.notifyExpired(key)
		return false, nil
	}
	return true, nil
}

func (b *sqliteBackend) RemoveAll(ctx context.Context) error {
	qctx, cancel := b.queryCtx(ctx)
	defer cancel()
	if _, err := b.db.ExecContext(qctx, `DELETE FROM cache_entries WHERE cache_name = ?`, b.name); err != nil {
		return fmt.Errorf("backend: sqlite remove all: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Close(_ context.Context) error {
	b.once.Do(func() {
		b.cancel()
		b.waitGroup.Wait()
	})
	return nil
}

func (b *sqliteBackend) RegisterExpiredListener(fn func(key string)) {
	b.mutex.Lock()
	b.listeners = append(b.listeners, fn)
	b.mutex.Unlock()
}

func (b *sqliteBackend) notifyExpired(key string) {
	b.mutex.Lock()
	listeners := b.listeners
	b.mutex.Unlock()
	for _, fn := range listeners {
		fn(key)
	}
}

func (b *sqliteBackend) run() {
	defer b.waitGroup.Done()
	ticker := time.NewTicker(b.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-b.ctx.Done():
			return
		case <-ticker.C:
			b.sweep()
		}
	}
}

// sweep deletes expired rows, collecting their keys first so expiry
// listeners see every entry the sweeper removes.
func (b *sqliteBackend) sweep() {
	qctx, cancel := b.queryCtx(b.ctx)
	defer cancel()
	now := time.Now().UnixNano()
	rows, err := b.db.QueryContext(qctx,
		`SELECT key FROM cache_entries WHERE cache_name = ? AND expires_at != 0 AND expires_at < ?`, b.name, now)
	if err != nil {
		return
	}
	var dead []string
	for rows.Next() {
		var key string
		if rows.Scan(&key) == nil {
			dead = append(dead, key)
		}
	}
	rows.Close()
	if len(dead) == 0 {
		return
	}
	if _, err := b.db.ExecContext(qctx,
		`DELETE FROM cache_entries WHERE cache_name = ? AND expires_at != 0 AND expires_at < ?`, b.name, now); err != nil {
		return
	}
	for _, key := range dead {
		b.notifyExpired(key)
	}
}
