// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package authz

import (
	"sync"
	"time"

	"github.com/tomtom215/haulbase/internal/metrics"
)

const cacheName = "authz"

// decisionCache caches enforcement results per role, resource and action.
type decisionCache struct {
	ttl      time.Duration
	now      func() time.Time
	mu       sync.RWMutex
	items    map[string]cachedDecision
	stopChan chan struct{}
	stopOnce sync.Once
}

type cachedDecision struct {
	allowed   bool
	expiresAt time.Time
}

func newDecisionCache(ttl time.Duration) *decisionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &decisionCache{
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[string]cachedDecision),
		stopChan: make(chan struct{}),
	}
	go c.janitor()
	return c
}

func decisionKey(role, resource, action string) string {
	return role + "|" + resource + "|" + action
}

func (c *decisionCache) get(role, resource, action string) (allowed, ok bool) {
	c.mu.RLock()
	item, found := c.items[decisionKey(role, resource, action)]
	c.mu.RUnlock()

	if !found || c.now().After(item.expiresAt) {
		metrics.CacheMisses.WithLabelValues(cacheName).Inc()
		return false, false
	}
	metrics.CacheHits.WithLabelValues(cacheName).Inc()
	return item.allowed, true
}

func (c *decisionCache) set(role, resource, action string, allowed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[decisionKey(role, resource, action)] = cachedDecision{
		allowed:   allowed,
		expiresAt: c.now().Add(c.ttl),
	}
	metrics.CacheSize.WithLabelValues(cacheName).Set(float64(len(c.items)))
}

func (c *decisionCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]cachedDecision)
	metrics.CacheSize.WithLabelValues(cacheName).Set(0)
}

func (c *decisionCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *decisionCache) evictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	evicted := 0
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
			evicted++
		}
	}
	if evicted > 0 {
		metrics.CacheEvictions.WithLabelValues(cacheName).Add(float64(evicted))
		metrics.CacheSize.WithLabelValues(cacheName).Set(float64(len(c.items)))
	}
	return evicted
}

func (c *decisionCache) janitor() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

// stop is idempotent.
func (c *decisionCache) stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}
