// Package resolver implements the Resolver Facade (C6): the public
// entry point that ties the URL reader, chain client adapter, cache,
// metadata node, lazy value protocol, and search criteria evaluator
// together into a single lookup(category, criteria) operation.
package resolver

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net/http"

	"github.com/google/uuid"

	"github.com/keetanet/metadata-resolver/pkg/chainclient"
	"github.com/keetanet/metadata-resolver/pkg/criteria"
	"github.com/keetanet/metadata-resolver/pkg/lazy"
	"github.com/keetanet/metadata-resolver/pkg/node"
	"github.com/keetanet/metadata-resolver/pkg/rcache"
	"github.com/keetanet/metadata-resolver/pkg/rconfig"
	"github.com/keetanet/metadata-resolver/pkg/rerrors"
	"github.com/keetanet/metadata-resolver/pkg/rlog"
)

// accessToken is the internal-accessor sentinel (spec §4.6 / P7): a
// process-wide unexported value compared by identity. Only code inside
// this package can construct one, so external callers can never satisfy
// MutableStats' guard.
type accessToken struct{ id *byte }

// internalToken is the one value that satisfies MutableStats' guard. It
// is never exported, so only resolver-internal code (and this package's
// own tests) can present it.
var internalToken = accessToken{id: new(byte)}

// ProviderResult is one matched provider's forced descriptor, returned
// from Lookup keyed by provider id.
type ProviderResult struct {
	ID    string
	Value lazy.Forced
}

// Resolver is the public facade over one metadata graph rooted at a
// single resolver instance's shared cache and stats.
type Resolver struct {
	id         string
	cfg        *rconfig.Config
	logger     *rlog.Logger
	cache      *rcache.Cache
	chain      chainclient.Client
	stats      *node.Stats
	trustedCAs *x509.CertPool
}

// Option configures a Resolver at construction time, following the
// teacher's small-family-of-optional-fields idiom rather than a generic
// functional-options package.
type Option func(*Resolver)

// WithLogger sets the resolver's logger. A nil Logger is equivalent to
// not calling this option.
func WithLogger(l *rlog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithConfig sets the resolver's configuration, filling any zero-valued
// field with its default.
func WithConfig(cfg *rconfig.Config) Option {
	return func(r *Resolver) {
		r.cfg = rconfig.WithDefaults(cfg)
	}
}

// WithID pins the resolver's instance id instead of generating a random
// one.
func WithID(id string) Option {
	return func(r *Resolver) {
		r.id = id
	}
}

// WithTrustedCAs restricts the HTTPS leg's certificate verification to
// the given pool, instead of the system trust store.
func WithTrustedCAs(pool *x509.CertPool) Option {
	return func(r *Resolver) {
		r.trustedCAs = pool
	}
}

// New constructs a Resolver backed by chain for keetanet:// reads.
func New(chain chainclient.Client, opts ...Option) *Resolver {
	r := &Resolver{
		id:    uuid.NewString(),
		cfg:   rconfig.Default(),
		chain: chain,
		stats: node.NewStats(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = rlog.OrDiscard(r.logger)
	r.cache = rcache.New(r.cfg.CacheMaxEntries)
	return r
}

// ID returns the resolver's instance id.
func (r *Resolver) ID() string {
	return r.id
}

// Stats returns a point-in-time deep copy of the resolver's counters.
func (r *Resolver) Stats() node.Snapshot {
	return r.stats.Snapshot()
}

// ClearCache clears the cache and zeroes every stats counter (spec
// §4.6).
func (r *Resolver) ClearCache() {
	r.cache.Clear()
	r.stats.Reset()
}

// MutableStats is the internal mutable-stats accessor guarded by an
// access token (spec §4.6, P7): any token other than the package's own
// internal sentinel fails with rerrors.CodeInvalidAccessToken. External
// callers have no way to construct a valid token, so this accessor is
// effectively unreachable outside this package.
func (r *Resolver) MutableStats(token accessToken) (*node.Stats, error) {
	if token != internalToken {
		return nil, rerrors.New(rerrors.CodeInvalidAccessToken, "invalid access token for mutable stats accessor")
	}
	return r.stats, nil
}

func (r *Resolver) nodeOptions() node.Options {
	opts := node.Options{
		PositiveTTL:      r.cfg.PositiveTTL,
		NegativeTTL:      r.cfg.NegativeTTL,
		MaxHTTPBodyBytes: r.cfg.MaxHTTPBodyBytes,
		HTTPTimeout:      r.cfg.HTTPTimeout,
	}
	if r.trustedCAs != nil {
		opts.HTTPClient = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{RootCAs: r.trustedCAs},
			},
		}
	}
	return opts
}

func (r *Resolver) rootNode(url string) *node.Node {
	return node.NewRoot(url, r.cache, r.chain, r.stats, r.logger, r.nodeOptions())
}

// fieldVersion, fieldServices, fieldCurrencyMap are the field names of
// the root document envelope (spec §6).
const (
	fieldVersion     = "version"
	fieldServices    = "services"
	fieldCurrencyMap = "currencyMap"
)

// root forces rootURL down to its object shape and validates the
// envelope (version, services), per spec §4.6's lookup sequence.
func (r *Resolver) root(ctx context.Context, rootURL string) (lazy.Forced, error) {
	n := r.rootNode(rootURL)
	forced, err := n.Value(ctx, lazy.KindObject)
	if err != nil {
		return lazy.Forced{}, err
	}

	versionField, ok := forced.Field(fieldVersion)
	if !ok {
		return lazy.Forced{}, rerrors.New(rerrors.CodeUnsupportedVersion, "root document has no version field")
	}
	versionForced, err := versionField.By(lazy.KindNumber)
	if err != nil {
		return lazy.Forced{}, rerrors.Wrap(err, rerrors.CodeUnsupportedVersion, "root document version is not a number")
	}
	version, err := versionForced.Number()
	if err != nil {
		return lazy.Forced{}, err
	}
	if version != 1 {
		return lazy.Forced{}, rerrors.Newf(rerrors.CodeUnsupportedVersion, "unsupported metadata version: %v", version).
			WithContext("version", version)
	}

	if _, ok := forced.Field(fieldServices); !ok {
		return lazy.Forced{}, rerrors.New(rerrors.CodeMissingServices, "root document has no services object")
	}

	return forced, nil
}

// Lookup resolves every provider descriptor under services.<category>
// in the document at rootURL, returning the subset that matches crit.
// A nil/empty result means no provider matched (spec §4.6: "If no
// matches, return null").
func (r *Resolver) Lookup(ctx context.Context, rootURL string, category criteria.Category, crit criteria.Criteria) (map[string]ProviderResult, error) {
	root, err := r.root(ctx, rootURL)
	if err != nil {
		return nil, err
	}

	servicesField, _ := root.Field(fieldServices)
	services, err := servicesField.By(lazy.KindObject)
	if err != nil {
		return nil, rerrors.Wrap(err, rerrors.CodeMissingServices, "services is not an object")
	}

	categoryField, ok := services.Field(string(category))
	if !ok {
		return nil, nil
	}
	categoryObj, err := categoryField.By(lazy.KindObject)
	if err != nil {
		return nil, rerrors.Wrapf(err, rerrors.CodeProviderInvalid, "services.%s is not an object", category)
	}

	results := make(map[string]ProviderResult)
	for providerID, providerVal := range categoryObj.Object() {
		forced, err := providerVal.By(lazy.KindObject)
		if err != nil {
			r.logger.Debug("provider skipped: schema error", "category", category, "provider", providerID, "error", err)
			continue
		}

		ok, err := criteria.Match(ctx, category, forced, crit)
		if err != nil {
			if rerrors.HasCode(err, rerrors.CodeNotImplemented) {
				return nil, err
			}
			r.logger.Debug("provider skipped: match error", "category", category, "provider", providerID, "error", err)
			continue
		}
		if !ok {
			continue
		}

		results[providerID] = ProviderResult{ID: providerID, Value: forced}
	}

	if len(results) == 0 {
		return nil, nil
	}
	return results, nil
}

// CurrencyMap forces and returns the root document's optional
// currencyMap (spec §3.E): a mapping from ISO-alpha-3 currency code or
// "$"-prefixed token symbol to the token's public-key string.
func (r *Resolver) CurrencyMap(ctx context.Context, rootURL string) (map[string]string, error) {
	root, err := r.root(ctx, rootURL)
	if err != nil {
		return nil, err
	}

	mapField, ok := root.Field(fieldCurrencyMap)
	if !ok {
		return nil, nil
	}
	forced, err := mapField.By(lazy.KindObject)
	if err != nil {
		return nil, rerrors.Wrap(err, rerrors.CodeWrongKind, "currencyMap is not an object")
	}

	out := make(map[string]string, len(forced.Object()))
	for key, v := range forced.Object() {
		strForced, err := v.By(lazy.KindString)
		if err != nil {
			return nil, rerrors.Wrapf(err, rerrors.CodeWrongKind, "currencyMap[%s] is not a string", key)
		}
		str, err := strForced.String()
		if err != nil {
			return nil, err
		}
		out[key] = str
	}
	return out, nil
}
