// Package filecache is an in-memory LRU of catalog records with TTL, used
// in front of the catalog on the public download path. Each instance has
// its own cache; entries expire on their own and are invalidated on
// lifecycle mutations.
package filecache

import (
	"time"

	"github.com/dalemusser/cloudstore/internal/domain/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache holds recently resolved public file records keyed by id hex.
type Cache struct {
	lru *expirable.LRU[string, *models.File]
}

// New creates a cache bounded to maxSize entries, each living at most ttl.
func New(maxSize int, ttl time.Duration) *Cache {
	return &Cache{
		lru: expirable.NewLRU[string, *models.File](maxSize, nil, ttl),
	}
}

// Get returns the cached record for the id, if present and unexpired.
func (c *Cache) Get(idHex string) (*models.File, bool) {
	return c.lru.Get(idHex)
}

// Set adds or refreshes a record.
func (c *Cache) Set(idHex string, f *models.File) {
	c.lru.Add(idHex, f)
}

// Invalidate drops a record after a lifecycle mutation so the public path
// never serves a stale trashed or purged file for longer than one miss.
func (c *Cache) Invalidate(idHex string) {
	c.lru.Remove(idHex)
}
