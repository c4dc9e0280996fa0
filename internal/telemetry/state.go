package telemetry

import "sync"

// StateCache maps a category name (heartbeat, gps, position, attitude,
// battery) to the most recent normalized fields of that category.
// Update replaces the whole per-category record, never merges.
type StateCache struct {
	mu sync.RWMutex
	m  map[string]map[string]interface{}
}

func NewStateCache() *StateCache {
	return &StateCache{m: make(map[string]map[string]interface{})}
}

func (c *StateCache) Update(category string, fields map[string]interface{}) {
	c.mu.Lock()
	c.m[category] = fields
	c.mu.Unlock()
}

// Snapshot returns a copy of all populated categories. Callers never
// observe later Update calls through a returned snapshot.
func (c *StateCache) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := make(map[string]interface{}, len(c.m))
	for category, fields := range c.m {
		fcopy := make(map[string]interface{}, len(fields))
		for k, v := range fields {
			fcopy[k] = v
		}
		snap[category] = fcopy
	}
	return snap
}

func (c *StateCache) Empty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m) == 0
}
