package cache

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/finledger/transaction-service/internal/domain/repository"
)

const (
	// DefaultListingTTL is how long a cached page stays valid.
	DefaultListingTTL = 10 * time.Minute

	// DefaultListingCapacity bounds the number of distinct query results
	// held at once; least-recently-used entries are evicted beyond it.
	DefaultListingCapacity = 128
)

// ListingCache caches paginated listing results keyed by the exact query
// tuple. Entries expire after a fixed TTL and the cache evicts LRU entries
// beyond its capacity. Any write to the store must call Invalidate.
type ListingCache struct {
	pages *expirable.LRU[string, *repository.Page]
}

// NewListingCache creates a listing cache with the given capacity and TTL.
// Non-positive arguments fall back to the defaults.
func NewListingCache(capacity int, ttl time.Duration) *ListingCache {
	if capacity <= 0 {
		capacity = DefaultListingCapacity
	}
	if ttl <= 0 {
		ttl = DefaultListingTTL
	}

	return &ListingCache{
		pages: expirable.NewLRU[string, *repository.Page](capacity, nil, ttl),
	}
}

// listingKey builds the cache key from the query tuple.
func listingKey(q repository.PageQuery) string {
	return fmt.Sprintf("page=%d&size=%d&sort=%s,%s", q.Page, q.Size, q.SortField, q.SortDir)
}

// Get returns the cached page for q, if present and not expired.
func (c *ListingCache) Get(q repository.PageQuery) (*repository.Page, bool) {
	return c.pages.Get(listingKey(q))
}

// Put stores the page result for q.
func (c *ListingCache) Put(q repository.PageQuery, page *repository.Page) {
	c.pages.Add(listingKey(q), page)
}

// Invalidate drops every cached page. Per-page caching cannot tell which
// pages a written record lands on, so writes clear everything.
func (c *ListingCache) Invalidate() {
	c.pages.Purge()
}

// Len returns the number of cached pages.
func (c *ListingCache) Len() int {
	return c.pages.Len()
}
