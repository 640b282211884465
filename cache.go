package glass

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// cacheState tracks how trustworthy a group's baked matte is.
//
// Shape and transform edits only mark MaybeStale: the cheap layout
// comparison at paint time decides whether a rebake, a reprojection or
// plain reuse is needed. Changes to the geometry-affecting settings
// force Stale immediately, because the baked texels themselves are
// wrong, not just their placement.
type cacheState uint8

const (
	cacheUpToDate cacheState = iota
	cacheMaybeStale
	cacheStale
)

// String returns the state name.
func (s cacheState) String() string {
	switch s {
	case cacheUpToDate:
		return "up-to-date"
	case cacheMaybeStale:
		return "maybe-stale"
	default:
		return "stale"
	}
}

// markLayout records a shape or transform change. It never downgrades
// an already Stale group.
func (g *Group) markLayout() {
	if g.state != cacheStale {
		g.state = cacheMaybeStale
	}
}

// layoutSnapshots captures the current shape layout for later
// staleness comparison. The order is preserved: the smooth-union fold
// is order-dependent at the bit level.
func (g *Group) layoutSnapshots() []shapeSnapshot {
	out := make([]shapeSnapshot, len(g.shapes))
	for i, s := range g.shapes {
		out[i] = snapshotOf(s)
	}
	return out
}

func snapshotsEqual(a, b []shapeSnapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// layoutMatches reports whether the matte's baked layout equals the
// group's current layout, ignoring the transform. A match means the
// baked texels are still correct; only their screen placement may have
// moved.
func (g *Group) layoutMatches(m *GeometryMatte) bool {
	if m == nil {
		return false
	}
	if m.key != g.settings.geometryKey() || m.scale != g.scale {
		return false
	}
	return snapshotsEqual(m.snapshots, g.layoutSnapshots())
}

// ensureMatte resolves the cache state at paint time and returns a
// matte that is valid for the group's current configuration. The
// previous matte is replaced only after its successor exists.
func (g *Group) ensureMatte() *GeometryMatte {
	m := g.currentMatte()

	switch {
	case m == nil || g.state == cacheStale:
		m = g.bakeMatte()
		g.storeMatte(m)
	case g.state == cacheMaybeStale:
		switch {
		case !g.layoutMatches(m):
			m = g.bakeMatte()
			g.storeMatte(m)
		case g.transform.NearlyEqual(m.transform, 1e-12):
			// Layout and placement unchanged: full reuse.
		default:
			if rm, ok := g.reprojectMatte(m); ok {
				m = rm
			} else {
				m = g.bakeMatte()
			}
			g.storeMatte(m)
		}
	}

	g.state = cacheUpToDate
	return m
}

// currentMatte fetches the group's live matte: from the shared cache
// when attached to a compositor, from the group itself otherwise. A
// cache eviction surfaces here as nil, which forces a rebake.
func (g *Group) currentMatte() *GeometryMatte {
	if g.cache != nil {
		m, ok := g.cache.Get(g.id)
		if !ok {
			return nil
		}
		return m
	}
	return g.matte
}

// storeMatte replaces the group's live matte.
func (g *Group) storeMatte(m *GeometryMatte) {
	if g.cache != nil {
		g.cache.Put(g.id, m)
		return
	}
	g.matte = m
}

// MatteCache is an LRU cache for geometry mattes with a byte budget,
// shared by the groups of one compositor. It is thread-safe and keeps
// atomic counters for statistics.
//
// Evicting a matte is always safe: the owning group detects the miss on
// its next paint and rebakes, which doubles as the retry path after a
// resource squeeze.
type MatteCache struct {
	mu      sync.RWMutex
	entries map[uint64]*matteEntry // group id -> entry
	lru     *list.List             // front = most recent
	size    int64
	maxSize int64

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// matteEntry is one cached matte with its LRU bookkeeping.
type matteEntry struct {
	id       uint64
	matte    *GeometryMatte
	size     int64
	element  *list.Element
	lastUsed time.Time
}

// CacheStats contains matte cache statistics for monitoring.
type CacheStats struct {
	// Size is the current memory usage in bytes.
	Size int64
	// MaxSize is the memory budget in bytes.
	MaxSize int64
	// Entries is the number of cached mattes.
	Entries int
	// Hits is the number of cache hits.
	Hits uint64
	// Misses is the number of cache misses.
	Misses uint64
	// HitRate is the cache hit rate (0.0 to 1.0).
	HitRate float64
	// Evictions is the number of mattes evicted.
	Evictions uint64
}

// NewMatteCache creates a matte cache with the given byte budget.
func NewMatteCache(maxBytes int64) *MatteCache {
	if maxBytes <= 0 {
		maxBytes = defaultCompositorOptions().matteBudget
	}
	return &MatteCache{
		entries: make(map[uint64]*matteEntry),
		lru:     list.New(),
		maxSize: maxBytes,
	}
}

// Get retrieves the cached matte of a group. On a hit the entry moves
// to the front of the LRU list.
func (c *MatteCache) Get(id uint64) (*GeometryMatte, bool) {
	c.mu.RLock()
	_, ok := c.entries[id]
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	c.mu.Lock()
	// Re-check: the entry may have been evicted between the locks.
	entry, ok := c.entries[id]
	if !ok {
		c.mu.Unlock()
		c.misses.Add(1)
		return nil, false
	}
	c.lru.MoveToFront(entry.element)
	entry.lastUsed = time.Now()
	m := entry.matte
	c.mu.Unlock()

	c.hits.Add(1)
	return m, true
}

// Put stores a group's matte, replacing any previous one. Least
// recently used mattes are evicted until the budget holds.
func (c *MatteCache) Put(id uint64, m *GeometryMatte) {
	if m == nil {
		return
	}
	entrySize := m.SizeBytes()
	if entrySize > c.maxSize {
		// Oversized mattes are not cached; the group rebakes each paint.
		c.Invalidate(id)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[id]; ok {
		c.size -= existing.size
		c.lru.Remove(existing.element)
	}

	c.evictUntilSize(c.maxSize - entrySize)

	entry := &matteEntry{
		id:       id,
		matte:    m,
		size:     entrySize,
		lastUsed: time.Now(),
	}
	entry.element = c.lru.PushFront(entry)
	c.entries[id] = entry
	c.size += entrySize
}

// Invalidate drops the cached matte of one group.
func (c *MatteCache) Invalidate(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[id]; ok {
		c.lru.Remove(entry.element)
		c.size -= entry.size
		delete(c.entries, id)
		c.evictions.Add(1)
	}
}

// InvalidateAll clears the cache.
func (c *MatteCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := uint64(len(c.entries))
	c.entries = make(map[uint64]*matteEntry)
	c.lru.Init()
	c.size = 0

	if evicted > 0 {
		c.evictions.Add(evicted)
	}
}

// Trim evicts mattes until the cache size is at or below targetSize
// bytes.
func (c *MatteCache) Trim(targetSize int64) {
	if targetSize < 0 {
		targetSize = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictUntilSize(targetSize)
}

// evictUntilSize evicts LRU entries until size is at or below target.
// Must be called with c.mu held.
func (c *MatteCache) evictUntilSize(targetSize int64) {
	for c.size > targetSize && c.lru.Len() > 0 {
		elem := c.lru.Back()
		if elem == nil {
			break
		}
		entry := elem.Value.(*matteEntry)
		c.lru.Remove(elem)
		c.size -= entry.size
		delete(c.entries, entry.id)
		c.evictions.Add(1)
	}
}

// Stats returns a snapshot of the cache statistics.
func (c *MatteCache) Stats() CacheStats {
	c.mu.RLock()
	size := c.size
	entries := len(c.entries)
	c.mu.RUnlock()

	hits := c.hits.Load()
	misses := c.misses.Load()
	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return CacheStats{
		Size:      size,
		MaxSize:   c.maxSize,
		Entries:   entries,
		Hits:      hits,
		Misses:    misses,
		HitRate:   hitRate,
		Evictions: c.evictions.Load(),
	}
}
