// Package rcache implements the Cache (C3): a concurrent, URL-keyed
// mapping from URL string to a success/failure entry with its own
// expiry, shared across every evaluation rooted at one resolver
// instance.
//
// It is backed by hashicorp/golang-lru/v2/expirable, which already
// supplies the bounded-size + TTL + LRU-eviction shape the teacher's
// cache.AccountCache hand-rolled with an accessOrder slice (see
// DESIGN.md). A single expirable.LRU instance only has one TTL knob,
// so it is set to an outer bound well past either the positive or
// negative TTL configured for a given resolver; the authoritative
// freshness check is always the Entry's own ExpiresAt, re-tested on
// every Get, which is what lets positive and negative entries expire
// on independent schedules from the same underlying store.
package rcache

import (
	"encoding/json"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// outerBound is the expirable.LRU's own TTL: large enough that it never
// fires before an Entry's own ExpiresAt does, for any TTL a resolver is
// realistically configured with.
const outerBound = 24 * time.Hour

// Entry is an immutable cached outcome for one URL.
type Entry struct {
	Pass      bool
	Payload   json.RawMessage
	Err       error
	ExpiresAt time.Time
}

func (e Entry) expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Cache is the shared, per-resolver-instance cache.
type Cache struct {
	store *lru.LRU[string, Entry]
}

// New creates a Cache bounded to maxEntries distinct URLs.
func New(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = 10_000
	}
	return &Cache{store: lru.NewLRU[string, Entry](maxEntries, nil, outerBound)}
}

// Get returns the entry for key if present and unexpired. An expired
// entry is evicted and treated as absent. This method does not itself
// update hit/miss stats — callers (pkg/node) own those counters because
// a cache miss there may still avoid a network read in edge cases (e.g.
// cycle short-circuit) that shouldn't count as cache activity.
func (c *Cache) Get(key string) (Entry, bool) {
	entry, ok := c.store.Get(key)
	if !ok {
		return Entry{}, false
	}
	if entry.expired(time.Now()) {
		c.store.Remove(key)
		return Entry{}, false
	}
	return entry, true
}

// PutSuccess installs a successful entry with the given TTL.
func (c *Cache) PutSuccess(key string, payload json.RawMessage, ttl time.Duration) {
	c.store.Add(key, Entry{Pass: true, Payload: payload, ExpiresAt: time.Now().Add(ttl)})
}

// PutFailure installs a failed entry with the given TTL.
func (c *Cache) PutFailure(key string, err error, ttl time.Duration) {
	c.store.Add(key, Entry{Pass: false, Err: err, ExpiresAt: time.Now().Add(ttl)})
}

// Delete removes a single key.
func (c *Cache) Delete(key string) {
	c.store.Remove(key)
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.store.Purge()
}

// Len returns the number of entries currently cached (including any not
// yet lazily evicted past their ExpiresAt).
func (c *Cache) Len() int {
	return c.store.Len()
}
