// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

/*
Package cache provides the in-memory caches used by the API.

Cache is an unbounded TTL map for query results. The analytics dashboard
stores its aggregates here, keyed per tenant and date range:

	analytics := cache.New("analytics", 5*time.Minute)
	key := cache.TenantKey(tenant, "dashboard", rng)
	if v, ok := analytics.Get(key); ok {
		return v.(*models.Dashboard), nil
	}

Cache implements suture.Service; its Serve method runs the janitor that
drops expired entries.

LRU is a bounded, typed cache with per-entry TTL. The FMCSA client keeps
carrier lookups in one so repeated DOT queries do not hit the upstream.

Both report hits, misses, evictions and size under the cache name through
the metrics package.
*/
package cache
