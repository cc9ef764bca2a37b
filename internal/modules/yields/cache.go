package yields

import "sync"

// SnapshotCache holds the current snapshot and the single snapshot it displaced.
type SnapshotCache interface {
	// Get returns the current snapshot, if any.
	Get() (YieldSnapshot, bool)
	// Set stores snap as current and moves the old current into previous, atomically.
	Set(snap YieldSnapshot)
	// Previous returns the yields of the displaced snapshot, if any.
	Previous() (StrategyYields, bool)
	// SetPrevious overrides the previous yields.
	SetPrevious(y StrategyYields)
	// Invalidate clears both slots.
	Invalidate()
}

// MemoryCache is a mutex-guarded in-process SnapshotCache.
type MemoryCache struct {
	mu       sync.RWMutex
	current  *YieldSnapshot
	previous *StrategyYields
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Get() (YieldSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return YieldSnapshot{}, false
	}
	return *c.current, true
}

func (c *MemoryCache) Set(snap YieldSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		prev := c.current.Yields
		c.previous = &prev
	}
	c.current = &snap
}

func (c *MemoryCache) Previous() (StrategyYields, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.previous == nil {
		return StrategyYields{}, false
	}
	return *c.previous, true
}

func (c *MemoryCache) SetPrevious(y StrategyYields) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.previous = &y
}

func (c *MemoryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	c.previous = nil
}
