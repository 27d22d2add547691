package detail

import (
	"context"
	"fmt"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/pders01/dex/internal/debuglog"
	"github.com/pders01/dex/internal/pokeapi"
)

// Source fetches a detail record by identity.
type Source interface {
	PokemonByID(ctx context.Context, identity string) (*pokeapi.Pokemon, error)
}

// Cache holds fetched detail records for the life of a session. Records
// never expire and failed lookups are never stored.
type Cache struct {
	source Source
	items  *gocache.Cache
	group  singleflight.Group
}

// NewCache creates an empty cache backed by source.
func NewCache(source Source) *Cache {
	return &Cache{
		source: source,
		items:  gocache.New(gocache.NoExpiration, 0),
	}
}

// Get returns the record for identity, fetching it on a miss. Concurrent
// misses for the same identity share a single fetch.
func (c *Cache) Get(ctx context.Context, identity string) (*pokeapi.Pokemon, error) {
	if p, ok := c.Peek(identity); ok {
		return p, nil
	}

	v, err, shared := c.group.Do(identity, func() (interface{}, error) {
		if p, ok := c.Peek(identity); ok {
			return p, nil
		}
		p, err := c.source.PokemonByID(ctx, identity)
		if err != nil {
			return nil, err
		}
		c.items.Set(identity, p, gocache.NoExpiration)
		return p, nil
	})
	if err != nil {
		debuglog.WithFields(map[string]interface{}{
			"identity": identity,
			"shared":   shared,
		}).Warnf("detail fetch failed: %v", err)
		return nil, fmt.Errorf("loading detail %s: %w", identity, err)
	}
	return v.(*pokeapi.Pokemon), nil
}

// Peek returns a cached record without touching the network.
func (c *Cache) Peek(identity string) (*pokeapi.Pokemon, bool) {
	v, ok := c.items.Get(identity)
	if !ok {
		return nil, false
	}
	return v.(*pokeapi.Pokemon), true
}

// Len is the number of cached records.
func (c *Cache) Len() int {
	return c.items.ItemCount()
}

// Clear drops every record. Only a session reset calls this.
func (c *Cache) Clear() {
	c.items.Flush()
}
