package domain

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_DEVICE       = "device"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

// ApplyTelemetryFrame delivers one incoming partial telemetry update to the
// device actor. Fire and forget: frames are best-effort.
type ApplyTelemetryFrame struct {
	Frame TelemetryFrame
}

// EntityCommandRequest asks the device actor to set an entity to a value.
type EntityCommandRequest struct {
	ActorRequestMixIn
	EntityId string
	Value    any
}

type EntityCommandResponse struct {
	ActorResponseMixIn
	EntityId string
}

// GetEntitiesRequest returns the currently active entity definitions, in
// profile order, plus the device identity built from the profile.
type GetEntitiesRequest struct {
	ActorRequestMixIn
}

type GetEntitiesResponse struct {
	ActorResponseMixIn
	Manufacturer string
	Model        string
	DeviceName   string
	Entities     []*EntityDefinition
}

// PublishCommandRequest hands a built device command to the MQTT actor for
// delivery. The response closes the write serializer's handoff phase.
type PublishCommandRequest struct {
	ActorRequestMixIn
	Command OutgoingCommand
}

type PublishCommandResponse struct {
	ActorResponseMixIn
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors      []GenericSensor
	Switches     []GenericSwitch
	InputNumbers []GenericInputNumber
	Selects      []GenericSelect
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
