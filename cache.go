package codebuddy

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/eringen/codebuddy/catalog"
)

// CatalogCache is an in-memory copy of the stored catalog with a TTL.
// Handlers read from the cache; SeedCatalog followed by Invalidate makes a
// new catalog visible.
type CatalogCache struct {
	mu      sync.RWMutex
	cat     catalog.Catalog
	loaded  bool
	fetched time.Time
	ttl     time.Duration
	store   *Store
}

// NewCatalogCache creates a CatalogCache backed by the given Store.
func NewCatalogCache(s *Store, ttl time.Duration) *CatalogCache {
	return &CatalogCache{store: s, ttl: ttl}
}

func (c *CatalogCache) valid() bool {
	return c.loaded && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *CatalogCache) Invalidate() {
	c.mu.Lock()
	c.cat = catalog.Catalog{}
	c.loaded = false
	c.mu.Unlock()
}

func (c *CatalogCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	cat, err := c.store.LoadCatalog(ctx)
	if errors.Is(err, ErrNotFound) {
		cat, err = catalog.Catalog{}, nil
	}
	if err != nil {
		return err
	}
	c.cat = cat
	c.loaded = true
	c.fetched = time.Now()
	return nil
}

// Get returns the catalog after ensuring the cache is fresh. It tries a
// read lock first and only takes the write lock when a reload is needed.
func (c *CatalogCache) Get(ctx context.Context) (catalog.Catalog, error) {
	c.mu.RLock()
	if c.valid() {
		cat := c.cat
		c.mu.RUnlock()
		return cat, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return catalog.Catalog{}, err
	}
	return c.cat, nil
}

// Replace stores c and refreshes the cache.
func (c *CatalogCache) Replace(ctx context.Context, cat catalog.Catalog) error {
	if err := c.store.SeedCatalog(ctx, cat); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}
