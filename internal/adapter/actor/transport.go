package actor

import (
	"context"
	"time"

	"github.com/berfenger/ecoflow2mqtt/internal/core/domain"
	"github.com/berfenger/ecoflow2mqtt/internal/core/port"

	"github.com/asynkron/protoactor-go/actor"
)

// MQTTCommandTransport delivers built device commands through the MQTT
// actor. SendCommand blocks on the publish acknowledgement, which is what
// lets the engine's write serializer order racing writes.
type MQTTCommandTransport struct {
	root    *actor.RootContext
	mqttPID *actor.PID
	timeout time.Duration
}

var _ port.CommandTransport = (*MQTTCommandTransport)(nil)

func NewMQTTCommandTransport(root *actor.RootContext, mqttPID *actor.PID, timeout time.Duration) *MQTTCommandTransport {
	return &MQTTCommandTransport{
		root:    root,
		mqttPID: mqttPID,
		timeout: timeout,
	}
}

func (t *MQTTCommandTransport) SendCommand(ctx context.Context, cmd domain.OutgoingCommand) error {
	timeout := t.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}
	result, err := t.root.RequestFuture(t.mqttPID, domain.PublishCommandRequest{Command: cmd}, timeout).Result()
	if err != nil {
		return err
	}
	if resp, ok := result.(domain.PublishCommandResponse); ok && resp.HasResponseError() {
		return resp.GetResponseError()
	}
	return nil
}
