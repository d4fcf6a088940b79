// Package snapshot keeps each session's fetched collections between page
// views.
//
// A snapshot is owned by one session: list pages read it instead of
// refetching, mutations patch it with the record the API returned, and the
// explicit reload command drops it. Entries expire after a TTL and the
// least recently used entry is evicted when the cache is full.
package snapshot

import (
	"container/list"
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// Config configures the cache.
type Config struct {
	MaxSize int
	TTL     time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxSize <= 0 {
		c.MaxSize = 1024
	}
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	return c
}

// Cache is a mutex-guarded LRU of per-session collections.
type Cache struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	eviction *list.List // front = most recently used
	maxSize  int
	ttl      time.Duration
	now      func() time.Time

	hits      int64
	misses    int64
	evictions int64
}

type entry struct {
	key       string
	value     any
	expiresAt time.Time
}

func New(cfg Config) *Cache {
	cfg = cfg.withDefaults()
	return &Cache{
		items:    make(map[string]*list.Element),
		eviction: list.New(),
		maxSize:  cfg.MaxSize,
		ttl:      cfg.TTL,
		now:      time.Now,
	}
}

func cacheKey(sid, collection string) string {
	return sid + "\x00" + collection
}

func (c *Cache) get(sid, collection string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[cacheKey(sid, collection)]
	if !ok {
		c.misses++
		return nil, false
	}
	e := elem.Value.(*entry)
	if !c.now().Before(e.expiresAt) {
		c.removeLocked(elem)
		c.misses++
		return nil, false
	}
	c.eviction.MoveToFront(elem)
	c.hits++
	return e.value, true
}

func (c *Cache) set(sid, collection string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(cacheKey(sid, collection), value)
}

func (c *Cache) setLocked(key string, value any) {
	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry)
		e.value = value
		e.expiresAt = c.now().Add(c.ttl)
		c.eviction.MoveToFront(elem)
		return
	}
	for c.eviction.Len() >= c.maxSize {
		back := c.eviction.Back()
		if back == nil {
			break
		}
		c.removeLocked(back)
		c.evictions++
	}
	c.items[key] = c.eviction.PushFront(&entry{key: key, value: value, expiresAt: c.now().Add(c.ttl)})
}

// update applies fn to a live entry under the lock. Missing or expired
// entries are left alone: the next read refetches anyway.
func (c *Cache) update(sid, collection string, fn func(any) any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[cacheKey(sid, collection)]
	if !ok {
		return
	}
	e := elem.Value.(*entry)
	if !c.now().Before(e.expiresAt) {
		c.removeLocked(elem)
		return
	}
	e.value = fn(e.value)
}

func (c *Cache) removeLocked(elem *list.Element) {
	delete(c.items, elem.Value.(*entry).key)
	c.eviction.Remove(elem)
}

// Invalidate drops one collection of a session.
func (c *Cache) Invalidate(sid, collection string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[cacheKey(sid, collection)]; ok {
		c.removeLocked(elem)
	}
}

// Drop removes every collection of a session, on logout.
func (c *Cache) Drop(sid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := sid + "\x00"
	for key, elem := range c.items {
		if strings.HasPrefix(key, prefix) {
			c.removeLocked(elem)
		}
	}
}

// Stats is a point-in-time view of the cache counters.
type Stats struct {
	Size      int
	Hits      int64
	Misses    int64
	Evictions int64
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Size: c.eviction.Len(), Hits: c.hits, Misses: c.misses, Evictions: c.evictions}
}

// Load returns the session's snapshot of collection, fetching and storing it
// on a miss. Fetch errors are returned and nothing is stored.
func Load[T any](ctx context.Context, c *Cache, sid, collection string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if v, ok := c.get(sid, collection); ok {
		if rows, ok := v.([]T); ok {
			return rows, nil
		}
	}
	rows, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []T{}
	}
	c.set(sid, collection, rows)
	return rows, nil
}

// Upsert replaces the record with the same key, or prepends it when absent.
// Stored slices are never modified in place; readers keep a consistent copy.
func Upsert[T any](c *Cache, sid, collection string, rec T, key func(T) string) {
	k := key(rec)
	c.update(sid, collection, func(v any) any {
		rows, ok := v.([]T)
		if !ok {
			return v
		}
		out := slices.Clone(rows)
		for i := range out {
			if key(out[i]) == k {
				out[i] = rec
				return out
			}
		}
		return append([]T{rec}, out...)
	})
}

// Remove deletes the record with key id.
func Remove[T any](c *Cache, sid, collection, id string, key func(T) string) {
	c.update(sid, collection, func(v any) any {
		rows, ok := v.([]T)
		if !ok {
			return v
		}
		return slices.DeleteFunc(slices.Clone(rows), func(r T) bool { return key(r) == id })
	})
}
