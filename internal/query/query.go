// Package query caches the results of read requests under stable keys. A cached result is
// served until it is invalidated; the next read after an invalidation fetches it again and
// replaces it as a whole.
package query

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	data     interface{}
	loaded   bool
	stale    bool
	inflight int
	err      error
	// generation is incremented by every invalidation. A fetch that started in an older
	// generation may still store its data, but the entry stays stale.
	generation uint64
	// dataGeneration is the generation in which the stored data was fetched. Results of older
	// fetches never replace it.
	dataGeneration uint64
}

// Client holds the cache entries. It is safe for concurrent use.
type Client struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
}

// NewClient returns an empty cache.
func NewClient() *Client {
	return &Client{entries: map[string]*entry{}}
}

// entry returns the entry for key, creating it if necessary. The caller must hold c.mu.
func (c *Client) entry(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

// Get returns the cached data for key. If there is none, or it was invalidated, fetch is called
// and its result is cached. Concurrent calls for the same key and generation share one fetch.
// On a failed fetch previously cached data is kept and the error is returned. A fetch that
// finishes after a fetch of a newer generation has stored its data does not replace it; the
// caller gets the newer data instead.
func Get[T any](ctx context.Context, c *Client, key string, fetch func(context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	e := c.entry(key)
	if e.loaded && !e.stale {
		data := e.data.(T)
		c.mu.Unlock()
		return data, nil
	}
	generation := e.generation
	e.inflight++
	c.mu.Unlock()

	v, err, _ := c.group.Do(key+"#"+strconv.FormatUint(generation, 10), func() (interface{}, error) {
		// A flight of the same generation may have finished after the check above.
		c.mu.Lock()
		if e.loaded && !e.stale {
			data := e.data
			c.mu.Unlock()
			return data, nil
		}
		c.mu.Unlock()
		return fetch(ctx)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	e.inflight--
	superseded := e.loaded && generation < e.dataGeneration
	if err != nil {
		if !superseded {
			e.err = err
		}
		var zero T
		return zero, err
	}
	if superseded {
		return e.data.(T), nil
	}
	e.err = nil
	e.data = v
	e.dataGeneration = generation
	e.loaded = true
	e.stale = e.generation != generation
	return v.(T), nil
}

// Peek returns the cached data for key without fetching. The boolean is false if nothing has
// been loaded yet. Stale data is returned as well.
func Peek[T any](c *Client, key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.loaded {
		var zero T
		return zero, false
	}
	return e.data.(T), true
}

// Invalidate marks the data for key as stale so that the next Get fetches it again.
func (c *Client) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(key)
	e.stale = true
	e.generation++
}

// IsLoading returns true while a fetch for key is in flight and no data has been loaded yet.
func (c *Client) IsLoading(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return ok && e.inflight > 0 && !e.loaded
}

// IsStale returns true if key has never been loaded or was invalidated since.
func (c *Client) IsStale(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return !ok || !e.loaded || e.stale
}

// Err returns the error of the last fetch for key, or nil if it succeeded.
func (c *Client) Err(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.err
	}
	return nil
}
