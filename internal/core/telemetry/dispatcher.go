package telemetry

import (
	"sync"

	"github.com/berfenger/ecoflow2mqtt/internal/core/domain"
	"github.com/berfenger/ecoflow2mqtt/internal/core/profile"
)

// EntityValue pairs an entity definition with a value resolved from
// telemetry.
type EntityValue struct {
	Def   *domain.EntityDefinition
	Value any
}

// ApplyResult reports what a telemetry frame changed: the entities whose
// value was resolved from the frame, and the auto entities the frame's
// namespace woke up.
type ApplyResult struct {
	Updated   []EntityValue
	Activated []*domain.EntityDefinition
}

// Dispatcher merges incoming telemetry frames into the live value cache.
// Frames are sparse: only the entities whose source path resolves inside
// the frame are updated, everything else keeps its previous value. The
// first frame of a namespace activates that namespace's auto entities.
type Dispatcher struct {
	registry *profile.Registry
	cache    *LiveValueCache

	mu    sync.Mutex
	state map[string]map[string]any
}

func NewDispatcher(registry *profile.Registry, cache *LiveValueCache) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		cache:    cache,
		state:    make(map[string]map[string]any),
	}
}

// Apply merges one telemetry frame. Safe for concurrent use.
func (d *Dispatcher) Apply(frame domain.TelemetryFrame) ApplyResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	ns := frame.Namespace
	merged, ok := d.state[ns]
	if !ok {
		merged = make(map[string]any)
		d.state[ns] = merged
	}
	deepMerge(merged, frame.Fields)

	var result ApplyResult
	if !d.registry.Activated(ns) {
		result.Activated = d.registry.Activate(ns)
	}

	seen := make(map[string]struct{})
	for _, def := range d.registry.ActiveByNamespace(ns) {
		value, found := Resolve(frame.Fields, def.Source.Field)
		if !found {
			continue
		}
		d.cache.set(def.Id, value)
		seen[def.Id] = struct{}{}
		result.Updated = append(result.Updated, EntityValue{Def: def, Value: value})
	}

	// freshly woken entities may have their value in an earlier partial of
	// the merged state rather than in this frame
	for _, def := range result.Activated {
		if _, dup := seen[def.Id]; dup {
			continue
		}
		value, found := Resolve(merged, def.Source.Field)
		if !found {
			continue
		}
		d.cache.set(def.Id, value)
		result.Updated = append(result.Updated, EntityValue{Def: def, Value: value})
	}
	return result
}

// deepMerge merges src into dst, recursing into nested objects so a sparse
// frame never wipes out sibling fields from earlier frames.
func deepMerge(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if cur, ok := dst[k].(map[string]any); ok {
				deepMerge(cur, sub)
				continue
			}
			copied := make(map[string]any, len(sub))
			deepMerge(copied, sub)
			dst[k] = copied
			continue
		}
		dst[k] = v
	}
}
