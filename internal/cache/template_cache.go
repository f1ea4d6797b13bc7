// Package cache implements the Template Cache & Renderer (an in-process
// LRU with TTL, owned by the Channel Resolver rather than a package-level
// singleton) and the Redis-backed recipient profile cache.
//
// No third-party LRU library appears anywhere in the reference corpus, so
// this structure is built on container/list + a map, guarded by a mutex
// that never blocks concurrent enqueues elsewhere in the pipeline (see
// DESIGN.md).
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/5-VED/nest-notification-svc/internal/model"
)

type templateKey struct {
	Type    model.NotificationType
	Channel model.Channel
}

type entry struct {
	key       templateKey
	template  model.NotificationTemplate
	expiresAt time.Time
}

// TemplateCache is a mutex-guarded, capacity-bounded, TTL-expiring LRU
// cache of (type, channel) → template.
type TemplateCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	ll       *list.List
	items    map[templateKey]*list.Element
}

// NewTemplateCache creates a cache bounded to capacity entries, each
// living for ttl after insertion.
func NewTemplateCache(capacity int, ttl time.Duration) *TemplateCache {
	if capacity <= 0 {
		capacity = 500
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TemplateCache{
		capacity: capacity,
		ttl:      ttl,
		ll:       list.New(),
		items:    make(map[templateKey]*list.Element),
	}
}

// Get returns the cached template for (type, channel) and refreshes its
// LRU position. The second return value is false on a miss or an expired
// entry (which is evicted immediately).
func (c *TemplateCache) Get(t model.NotificationType, ch model.Channel) (model.NotificationTemplate, bool) {
	key := templateKey{Type: t, Channel: ch}

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return model.NotificationTemplate{}, false
	}

	e := el.Value.(*entry)
	if time.Now().After(e.expiresAt) {
		c.removeElement(el)
		return model.NotificationTemplate{}, false
	}

	c.ll.MoveToFront(el)
	return e.template, true
}

// Put inserts or refreshes a cache entry, evicting the least-recently-used
// entry if the cache is at capacity.
func (c *TemplateCache) Put(tmpl model.NotificationTemplate) {
	key := templateKey{Type: tmpl.Type, Channel: tmpl.Channel}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry)
		e.template = tmpl
		e.expiresAt = time.Now().Add(c.ttl)
		c.ll.MoveToFront(el)
		return
	}

	e := &entry{key: key, template: tmpl, expiresAt: time.Now().Add(c.ttl)}
	el := c.ll.PushFront(e)
	c.items[key] = el

	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.removeElement(oldest)
		}
	}
}

// removeElement must be called with c.mu held.
func (c *TemplateCache) removeElement(el *list.Element) {
	c.ll.Remove(el)
	e := el.Value.(*entry)
	delete(c.items, e.key)
}

// Len reports the number of live (not necessarily unexpired) entries.
func (c *TemplateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
