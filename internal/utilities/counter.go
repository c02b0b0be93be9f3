package utilities

import (
	"maps"
	"sync"

	"github.com/antonio-alexander/go-employees-api/internal/data"
)

// Counter tracks cache hits and misses per key (e.g. employee_1)
type Counter interface {
	Read(key string) (hitCount, missCount int)
	ReadAll() *data.CacheCounters
	IncrementHit(key string) (hitCount int)
	IncrementMiss(key string) (missCount int)
	Reset()
}

type cacheCounter struct {
	sync.RWMutex
	hits   map[string]int
	misses map[string]int
}

func NewCounter(parameters ...any) Counter {
	c := &cacheCounter{}
	c.Reset()
	return c
}

// Read returns -1 for both counts if the key has never been counted
func (c *cacheCounter) Read(key string) (int, int) {
	c.RLock()
	defer c.RUnlock()

	hits, found := c.hits[key]
	if !found {
		return -1, -1
	}
	return hits, c.misses[key]
}

func (c *cacheCounter) ReadAll() *data.CacheCounters {
	c.RLock()
	defer c.RUnlock()

	return &data.CacheCounters{
		CounterHits:   maps.Clone(c.hits),
		CounterMisses: maps.Clone(c.misses),
	}
}

func (c *cacheCounter) Reset() {
	c.Lock()
	defer c.Unlock()

	c.hits, c.misses = make(map[string]int), make(map[string]int)
}

// increment makes sure both maps contain key so that a key that's only
// missed still reports zero hits
func (c *cacheCounter) increment(key string, hit bool) int {
	c.Lock()
	defer c.Unlock()

	c.hits[key] += 0
	c.misses[key] += 0
	if hit {
		c.hits[key]++
		return c.hits[key]
	}
	c.misses[key]++
	return c.misses[key]
}

func (c *cacheCounter) IncrementHit(key string) int {
	return c.increment(key, true)
}

func (c *cacheCounter) IncrementMiss(key string) int {
	return c.increment(key, false)
}
