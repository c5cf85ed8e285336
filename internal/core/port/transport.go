package port

import (
	"context"

	"github.com/berfenger/ecoflow2mqtt/internal/core/domain"
)

// CommandTransport delivers a built command to the device. Implementations
// decide the wire (MQTT request topic, HTTP API) and their own retry
// policy; the caller treats any returned error as final.
type CommandTransport interface {
	SendCommand(ctx context.Context, cmd domain.OutgoingCommand) error
}
