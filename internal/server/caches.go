// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package server

import (
	"fmt"

	"github.com/wneessen/shopkeep/internal/account"
	"github.com/wneessen/shopkeep/internal/cache"
	"github.com/wneessen/shopkeep/internal/cache/ttlstore"
	"github.com/wneessen/shopkeep/internal/catalog"
	"github.com/wneessen/shopkeep/internal/config"
)

// caches holds the read-through caches of the services together with the
// lifecycle hooks of their backend.
type caches struct {
	statuses cache.Store[string, account.Status]
	listings cache.Store[string, []catalog.Listing]
	starters []func()
	stoppers []func()
}

func newCaches(conf *config.Config) (*caches, error) {
	c := new(caches)
	switch conf.Cache.Type {
	case config.CacheTypeInMemory:
		opts := []cache.Option{
			cache.WithDefaultTTL(conf.Cache.Lifetime),
			cache.WithSweepInterval(conf.Cache.SweepInterval),
		}
		statuses := cache.New[string, account.Status](opts...)
		listings := cache.New[string, []catalog.Listing](opts...)
		c.statuses, c.listings = statuses, listings
		c.starters = []func(){statuses.Start, listings.Start}
		c.stoppers = []func(){statuses.Stop, listings.Stop}
	case config.CacheTypeTTLCache:
		statuses := ttlstore.New[account.Status](conf.Cache.Lifetime)
		listings := ttlstore.New[[]catalog.Listing](conf.Cache.Lifetime)
		c.statuses, c.listings = statuses, listings
		c.stoppers = []func(){
			func() { _ = statuses.Close() },
			func() { _ = listings.Close() },
		}
	default:
		return nil, fmt.Errorf("unsupported cache type: %q", conf.Cache.Type)
	}
	return c, nil
}

func (c *caches) start() {
	for _, start := range c.starters {
		start()
	}
}

func (c *caches) stop() {
	for _, stop := range c.stoppers {
		stop()
	}
}
