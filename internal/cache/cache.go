// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

// Package cache provides an in-memory TTL cache for mart query results.
//
// Mart contents only change when the pipeline publishes a new version, so
// API handlers can serve repeated reads from memory and flush the whole
// cache after a successful rebuild. Entries also carry a TTL as a backstop
// so a missed flush cannot serve stale data indefinitely.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// Entry is a cached value with its expiry time.
type Entry struct {
	Value     interface{}
	ExpiresAt time.Time
}

// Stats tracks cache effectiveness counters.
type Stats struct {
	Hits        int64     `json:"hits"`
	Misses      int64     `json:"misses"`
	Evictions   int64     `json:"evictions"`
	TotalKeys   int       `json:"total_keys"`
	LastCleanup time.Time `json:"last_cleanup"`
}

// Cache is a thread-safe TTL cache keyed by string.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	stats   Stats
	stop    chan struct{}
}

// New creates a cache with the given default TTL and starts a background
// cleanup loop that removes expired entries.
func New(ttl time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns the cached value for key, or false if absent or expired.
// An expired entry is evicted on access.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.recordMiss()
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; another goroutine may have
		// replaced the entry since the read.
		if cur, still := c.entries[key]; still && time.Now().After(cur.ExpiresAt) {
			delete(c.entries, key)
			c.stats.Evictions++
		}
		c.mu.Unlock()
		c.recordMiss()
		return nil, false
	}

	c.recordHit()
	return entry.Value, true
}

// Set stores a value with the default TTL.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with an explicit TTL.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry{
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	}
}

// Delete removes a single entry.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Flush drops every entry. Called after a mart publish so readers never
// see a previous mart version through the cache.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := c.stats
	stats.TotalKeys = len(c.entries)
	return stats
}

// HitRate returns hits/(hits+misses) in percent, 0 when no lookups yet.
func (c *Cache) HitRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := c.stats.Hits + c.stats.Misses
	if total == 0 {
		return 0
	}
	return float64(c.stats.Hits) / float64(total) * 100
}

// Close stops the background cleanup loop.
func (c *Cache) Close() {
	close(c.stop)
}

func (c *Cache) recordHit() {
	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
}

func (c *Cache) recordMiss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) cleanup() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			c.stats.Evictions++
		}
	}
	c.stats.LastCleanup = now
}

// GenerateKey derives a stable cache key from a mart name and query
// parameters. Parameters are serialized to JSON and hashed so composite
// filters produce compact keys.
func GenerateKey(mart string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", mart, params)
	}
	sum := sha256.Sum256(data)
	return mart + ":" + hex.EncodeToString(sum[:16])
}
