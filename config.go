package memoize

import (
	"errors"
	"fmt"
	"time"

	"github.com/cachelet/go-memoize/backend"
	"github.com/cachelet/go-memoize/logger"
)

// MinExpireAfter is the smallest expire-after duration a cache accepts.
const MinExpireAfter = time.Second

// ErrInvalidExpireAfter is returned by New when the expire-after duration is
// below MinExpireAfter.
var ErrInvalidExpireAfter = errors.New("memoize: expire after must be at least 1 second")

// Config is the resolved configuration of a cache handle.
//
// Eternal and ExpireAfter are pointers because they are tri-state: when any
// of the three backend factories is customized, the system cannot introspect
// the caller's configuration and both report nil (unknown). Otherwise exactly
// one of them is active: Eternal pointing at true with ExpireAfter nil, or
// Eternal pointing at false with ExpireAfter set.
type Config struct {
	Eternal       *bool
	ExpireAfter   *time.Duration
	Provider      backend.Provider
	Manager       backend.Manager
	ConfigBuilder backend.ConfigBuilder
	Logger        logger.Logger
}

// Custom reports whether any backend factory was overridden.
func (c Config) Custom() bool {
	return c.Provider != nil || c.Manager != nil || c.ConfigBuilder != nil
}

type config struct {
	eternal        bool
	expireAfter    time.Duration
	expireAfterSet bool
	provider       backend.Provider
	manager        backend.Manager
	builder        backend.ConfigBuilder
	log            logger.Logger
}

// Option configures a cache handle.
type Option func(*config)

func defaultConfig() config {
	return config{eternal: true}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithEternal controls whether entries live forever. Defaults to true;
// overridden by WithExpireAfter.
func WithEternal(eternal bool) Option {
	return func(c *config) { c.eternal = eternal }
}

// WithExpireAfter makes entries expire d after their last write. d must be
// at least MinExpireAfter or New fails with ErrInvalidExpireAfter.
func WithExpireAfter(d time.Duration) Option {
	return func(c *config) {
		c.expireAfter = d
		c.expireAfterSet = true
	}
}

// WithProvider overrides backend provider acquisition.
func WithProvider(p backend.Provider) Option {
	return func(c *config) { c.provider = p }
}

// WithManager overrides backend manager acquisition, bypassing the provider.
func WithManager(m backend.Manager) Option {
	return func(c *config) { c.manager = m }
}

// WithConfigBuilder overrides backend configuration construction.
func WithConfigBuilder(b backend.ConfigBuilder) Option {
	return func(c *config) { c.builder = b }
}

// WithLogger sets the logger used for lifecycle and dispatch diagnostics.
// Defaults to a no-op logger.
func WithLogger(log logger.Logger) Option {
	return func(c *config) { c.log = log }
}

// ResolveConfig validates options and resolves them into a Config.
//
// When any of provider, manager, or config builder is customized, the expiry
// policy resolves to unknown (nil Eternal and ExpireAfter): the system defers
// entirely to the caller's factories and does not assume they match the
// simple policy. Otherwise an expire-after duration, if given, must be at
// least MinExpireAfter and makes the cache non-eternal; absent one, entries
// never expire.
func ResolveConfig(opts ...Option) (Config, error) {
	cfg := applyOptions(opts)
	log := cfg.log
	if log == nil {
		log = logger.NewNull()
	}
	resolved := Config{
		Provider:      cfg.provider,
		Manager:       cfg.manager,
		ConfigBuilder: cfg.builder,
		Logger:        log,
	}
	if resolved.Custom() {
		return resolved, nil
	}
	if cfg.expireAfterSet {
		if cfg.expireAfter < MinExpireAfter {
			return Config{}, fmt.Errorf("%w: got %s", ErrInvalidExpireAfter, cfg.expireAfter)
		}
		eternal := false
		resolved.Eternal = &eternal
		expireAfter := cfg.expireAfter
		resolved.ExpireAfter = &expireAfter
		return resolved, nil
	}
	eternal := true
	resolved.Eternal = &eternal
	return resolved, nil
}

// policy derives the backend expiry policy from the resolved config. When
// the policy is unknown (custom factories) it falls back to eternal; a
// custom config builder is free to ignore it.
func (c Config) policy() backend.Policy {
	p := backend.Policy{Eternal: true}
	if c.Eternal != nil {
		p.Eternal = *c.Eternal
	}
	if c.ExpireAfter != nil {
		p.ExpireAfter = *c.ExpireAfter
	}
	return p
}
