package domain

import "fmt"

type EntityUpdateEventMixIn struct {
	Id string
}

type EntityUpdateEvent interface {
	EntityUpdateEvent() string
	EntityId() string
}

func (e EntityUpdateEventMixIn) EntityUpdateEvent() string {
	return fmt.Sprintf("%T", e)
}

func (e EntityUpdateEventMixIn) EntityId() string {
	return e.Id
}

type FloatEntityUpdateEvent struct {
	EntityUpdateEventMixIn
	Value    float64
	Decimals uint
}

type TextEntityUpdateEvent struct {
	EntityUpdateEventMixIn
	Value string
}

type SwitchEntityUpdateEvent struct {
	EntityUpdateEventMixIn
	Value bool
}

type NumberEntityUpdateEvent struct {
	EntityUpdateEventMixIn
	Value    float64
	Decimals uint
}

type SelectEntityUpdateEvent struct {
	EntityUpdateEventMixIn
	Label string
}

type BridgeStateUpdateEvent struct {
	EntityUpdateEventMixIn
	Value bool
}

// EntitiesActivatedEvent is published when auto entities materialize after
// their namespace is first observed in telemetry, so discovery can be
// re-published incrementally for previously unknown slave packs.
type EntitiesActivatedEvent struct {
	Namespace string
	Entities  []*EntityDefinition
}
