// Package rconfig holds the construction-time configuration for the
// metadata resolver: cache TTLs, the HTTPS transport's body size and
// timeout bounds, and the embedded logging configuration. The core is a
// library, so there is no env/file loading here — a caller builds a
// Config value directly; env/file loading belongs to whatever CLI or
// service wraps the resolver.
package rconfig

import (
	"time"

	"github.com/keetanet/metadata-resolver/pkg/rlog"
)

// Default positive and negative cache TTLs, per spec §3.
const (
	DefaultPositiveTTL = 60 * time.Second
	DefaultNegativeTTL = 5 * time.Second

	// DefaultMaxHTTPBodyBytes bounds an HTTPS metadata fetch; oversize
	// bodies fail as a transport error rather than being read in full.
	DefaultMaxHTTPBodyBytes = 1 << 20 // 1 MiB

	DefaultHTTPTimeout = 5 * time.Second

	// DefaultCacheMaxEntries bounds the shared cache's size.
	DefaultCacheMaxEntries = 10_000
)

// Config configures a resolver instance.
type Config struct {
	// PositiveTTL is how long a successful URL read stays cached.
	PositiveTTL time.Duration

	// NegativeTTL is how long a failed URL read stays cached.
	NegativeTTL time.Duration

	// MaxHTTPBodyBytes caps the size of an HTTPS metadata response.
	MaxHTTPBodyBytes int64

	// HTTPTimeout bounds a single HTTPS fetch.
	HTTPTimeout time.Duration

	// CacheMaxEntries bounds the number of distinct URLs held in cache.
	CacheMaxEntries int

	// Logging is a logging configuration a caller can pass to rlog.New.
	// resolver.New does not read it: a resolver constructed without
	// resolver.WithLogger uses a discard logger.
	Logging *rlog.Config
}

// Default returns the resolver's default configuration.
func Default() *Config {
	return &Config{
		PositiveTTL:      DefaultPositiveTTL,
		NegativeTTL:      DefaultNegativeTTL,
		MaxHTTPBodyBytes: DefaultMaxHTTPBodyBytes,
		HTTPTimeout:      DefaultHTTPTimeout,
		CacheMaxEntries:  DefaultCacheMaxEntries,
		Logging:          rlog.DefaultConfig(),
	}
}

// WithDefaults fills any zero-valued field of cfg with the default, and
// returns cfg. A nil cfg returns Default().
func WithDefaults(cfg *Config) *Config {
	if cfg == nil {
		return Default()
	}
	if cfg.PositiveTTL == 0 {
		cfg.PositiveTTL = DefaultPositiveTTL
	}
	if cfg.NegativeTTL == 0 {
		cfg.NegativeTTL = DefaultNegativeTTL
	}
	if cfg.MaxHTTPBodyBytes == 0 {
		cfg.MaxHTTPBodyBytes = DefaultMaxHTTPBodyBytes
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}
	if cfg.CacheMaxEntries == 0 {
		cfg.CacheMaxEntries = DefaultCacheMaxEntries
	}
	if cfg.Logging == nil {
		cfg.Logging = rlog.DefaultConfig()
	}
	return cfg
}
