package memory

import (
	"container/list"
	"sync"

	"github.com/sandevgo/tuskctx/internal/core"
)

// snapshotCache is a small LRU of session snapshots. It stores and returns
// deep copies, so callers never share slices with it. An entry is dirty when
// its last save failed; only dirty entries outrank the store.
type snapshotCache struct {
	mu    sync.Mutex
	cap   int
	order *list.List
	items map[string]*list.Element
}

type cacheEntry struct {
	id    string
	snap  *core.Snapshot
	dirty bool
}

func newSnapshotCache(capacity int) *snapshotCache {
	return &snapshotCache{
		cap:   capacity,
		order: list.New(),
		items: make(map[string]*list.Element),
	}
}

func (c *snapshotCache) get(id string) (snap *core.Snapshot, dirty, ok bool) {
	if c.cap <= 0 {
		return nil, false, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[id]
	if !ok {
		return nil, false, false
	}
	c.order.MoveToFront(el)
	e := el.Value.(*cacheEntry)
	return e.snap.Clone(), e.dirty, true
}

func (c *snapshotCache) put(snap *core.Snapshot, dirty bool) {
	if c.cap <= 0 || snap == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[snap.ID]; ok {
		e := el.Value.(*cacheEntry)
		e.snap = snap.Clone()
		e.dirty = dirty
		c.order.MoveToFront(el)
		return
	}

	c.items[snap.ID] = c.order.PushFront(&cacheEntry{id: snap.ID, snap: snap.Clone(), dirty: dirty})
	for c.order.Len() > c.cap {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).id)
	}
}

func (c *snapshotCache) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[id]; ok {
		c.order.Remove(el)
		delete(c.items, id)
	}
}
