// Package node implements the Metadata Node (C4): one logical node in
// the traversed metadata graph, owning a URL, a cycle-detection set
// inherited from its parent, and the machinery that turns a raw JSON
// document into a lazy typed view (pkg/lazy) whose external-reference
// fields transparently become child nodes.
package node

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/keetanet/metadata-resolver/pkg/chainclient"
	"github.com/keetanet/metadata-resolver/pkg/lazy"
	"github.com/keetanet/metadata-resolver/pkg/rcache"
	"github.com/keetanet/metadata-resolver/pkg/rlog"
	"github.com/keetanet/metadata-resolver/pkg/urlreader"
)

// emptyString is the JSON encoding of "" — the cycle short-circuit
// sentinel (spec invariant 2), treated as an absent/primitive value.
var emptyString = json.RawMessage(`""`)

// seenSet is the per-lookup cycle guard (spec §3 invariant 2, §5:
// "seenURLs is NOT shared across lookups"). It is shared by pointer
// along one parent chain and is safe for concurrent sibling-field
// forcing within that one chain.
type seenSet struct {
	mu sync.Mutex
	m  map[string]struct{}
}

func newSeenSet() *seenSet {
	return &seenSet{m: make(map[string]struct{})}
}

// checkAndAdd reports whether url was already present, adding it if not.
func (s *seenSet) checkAndAdd(u string) (alreadySeen bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[u]; ok {
		return true
	}
	s.m[u] = struct{}{}
	return false
}

// Options bounds the node's reads and cache lifetimes.
type Options struct {
	PositiveTTL      time.Duration
	NegativeTTL      time.Duration
	MaxHTTPBodyBytes int64
	HTTPTimeout      time.Duration
	HTTPClient       *http.Client // optional; overrides the HTTPS leg's default client (e.g. for a pinned CA pool)
}

// Node is one logical node in the metadata graph.
type Node struct {
	url    string
	cache  *rcache.Cache
	chain  chainclient.Client
	stats  *Stats
	logger *rlog.Logger
	opts   Options
	seen   *seenSet
}

// NewRoot creates a root Metadata Node for url with a fresh seenURLs set.
func NewRoot(url string, cache *rcache.Cache, chain chainclient.Client, stats *Stats, logger *rlog.Logger, opts Options) *Node {
	return &Node{
		url:    url,
		cache:  cache,
		chain:  chain,
		stats:  stats,
		logger: rlog.OrDiscard(logger),
		opts:   opts,
		seen:   newSeenSet(),
	}
}

// child returns a new Node at childURL inheriting this node's seenURLs,
// cache, chain client, stats, logger, and options (spec §3: "A node
// constructed with a parent inherits the parent's seenURLs").
func (n *Node) child(childURL string) *Node {
	return &Node{
		url:    childURL,
		cache:  n.cache,
		chain:  n.chain,
		stats:  n.stats,
		logger: n.logger,
		opts:   n.opts,
		seen:   n.seen,
	}
}

// URL returns the URL this node resolves.
func (n *Node) URL() string {
	return n.url
}

func schemeOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Scheme
}

// readURL fetches and caches the raw document at u, following spec
// §4.4's sequence: stats, cycle check, cache consult, scheme-specific
// miss counters, fetch, cache write.
func (n *Node) readURL(ctx context.Context, u string) (json.RawMessage, error) {
	n.stats.Reads.Add(1)

	if n.seen.checkAndAdd(u) {
		return emptyString, nil
	}

	if entry, ok := n.cache.Get(u); ok {
		n.stats.CacheHits.Add(1)
		if entry.Pass {
			n.logger.Debug("metadata cache hit", "url", u)
			return entry.Payload, nil
		}
		n.logger.Debug("metadata cache hit (negative)", "url", u)
		return nil, entry.Err
	}
	n.stats.CacheMisses.Add(1)

	switch schemeOf(u) {
	case "keetanet":
		n.stats.KeetanetReads.Add(1)
	case "https":
		n.stats.HTTPSReads.Add(1)
	default:
		n.stats.UnsupportedReads.Add(1)
	}

	raw, err := urlreader.ReadRaw(ctx, u, n.chain, urlreader.Options{
		MaxBodyBytes: n.opts.MaxHTTPBodyBytes,
		HTTPTimeout:  n.opts.HTTPTimeout,
		HTTPClient:   n.opts.HTTPClient,
	})
	if err != nil {
		n.cache.PutFailure(u, err, n.opts.NegativeTTL)
		n.logger.Debug("metadata read failed", "url", u, "error", err)
		return nil, err
	}

	n.cache.PutSuccess(u, raw, n.opts.PositiveTTL)
	n.logger.Debug("metadata read ok", "url", u)
	return raw, nil
}

// evalNode reads n's document and, if it is itself an external
// reference, recursively follows it (spec invariant 3: resolveValue is
// transparent, composed until no external reference remains) before
// wiring the result up as a lazy.Value whose own children get the same
// treatment lazily.
func evalNode(ctx context.Context, n *Node) (lazy.Value, error) {
	raw, err := n.readURL(ctx, n.url)
	if err != nil {
		return lazy.Value{}, err
	}

	if refURL, ok := isExternalRef(raw); ok {
		return evalNode(ctx, n.child(refURL))
	}

	return lazy.NewWithWrap(raw, n.url, n.wrapFunc(ctx)), nil
}

// wrapFunc returns the lazy.WrapFunc used to build every object/array
// child of n's document: a plain nested value continues to use this
// same node (same URL, same seenURLs scope), while an external
// reference is deferred to a child node's evalNode, only actually read
// when something forces that field.
func (n *Node) wrapFunc(ctx context.Context) lazy.WrapFunc {
	return func(raw json.RawMessage, origin string) lazy.Value {
		if refURL, ok := isExternalRef(raw); ok {
			child := n.child(refURL)
			return lazy.NewForward(func() (lazy.Value, error) {
				return evalNode(ctx, child)
			}, origin)
		}
		return lazy.NewWithWrap(raw, origin, n.wrapFunc(ctx))
	}
}

// Value is the root accessor (spec §4.4): it reads n's URL, flattens
// any top-level external-reference chain, and asserts the requested
// kind.
func (n *Node) Value(ctx context.Context, kind lazy.Kind) (lazy.Forced, error) {
	v, err := evalNode(ctx, n)
	if err != nil {
		return lazy.Forced{}, err
	}
	return v.By(kind)
}
