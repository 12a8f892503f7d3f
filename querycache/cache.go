package querycache

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Cache is safe for concurrent use. A nil *Cache, or one created with size 0,
// caches nothing and runs every fetch.
type Cache struct {
	lru   *expirable.LRU[string, any]
	group singleflight.Group

	// gen moves on every invalidation so a fetch that started before it
	// does not store a stale value after it.
	gen atomic.Uint64

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New returns a cache holding at most size entries for ttl each.
func New(size int, ttl time.Duration) *Cache {
	c := &Cache{}
	if size > 0 {
		c.lru = expirable.NewLRU[string, any](size, nil, ttl)
	}
	return c
}

// Fetch returns the value cached under key or calls fn to produce it.
// Concurrent callers missing on the same key wait for one call to fn and
// share its result, including the context that call was made with.
func Fetch[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if c == nil || c.lru == nil {
		return fn(ctx)
	}

	if v, ok := c.lru.Get(key); ok {
		if out, ok := v.(T); ok {
			c.hits.Add(1)
			return out, nil
		}
	}
	c.misses.Add(1)

	gen := c.gen.Load()
	v, err, _ := c.group.Do(key, func() (any, error) {
		out, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if c.gen.Load() == gen {
			c.lru.Add(key, out)
		}
		return out, nil
	})
	if err != nil {
		return zero, err
	}

	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("querycache: key %q holds %T", key, v)
	}
	return out, nil
}

// Invalidate drops key and every key under key + "/".
func (c *Cache) Invalidate(key string) {
	if c == nil || c.lru == nil {
		return
	}
	c.gen.Add(1)
	prefix := key + "/"
	for _, k := range c.lru.Keys() {
		if k == key || strings.HasPrefix(k, prefix) {
			c.lru.Remove(k)
			c.group.Forget(k)
		}
	}
	c.group.Forget(key)
}

// Purge drops everything.
func (c *Cache) Purge() {
	if c == nil || c.lru == nil {
		return
	}
	c.gen.Add(1)
	c.lru.Purge()
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	if c == nil || c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

// Stats reports hit and miss counts since creation.
func (c *Cache) Stats() (hits, misses uint64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}
