package telemetry

import "sync"

// LiveValueCache holds the last value resolved from telemetry for each
// entity, keyed by entity id. It is fed exclusively by the dispatcher;
// accepted writes never touch it, the device echoes the new state back
// through telemetry.
type LiveValueCache struct {
	mu     sync.RWMutex
	values map[string]any
}

func NewLiveValueCache() *LiveValueCache {
	return &LiveValueCache{values: make(map[string]any)}
}

// Get returns the last known value for an entity id.
func (c *LiveValueCache) Get(entityId string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[entityId]
	return v, ok
}

// Snapshot returns a copy of the whole cache.
func (c *LiveValueCache) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

func (c *LiveValueCache) set(entityId string, value any) {
	c.mu.Lock()
	c.values[entityId] = value
	c.mu.Unlock()
}
