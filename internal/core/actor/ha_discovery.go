package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/ecoflow2mqtt/internal/config"
	"github.com/berfenger/ecoflow2mqtt/internal/core/domain"
	"github.com/berfenger/ecoflow2mqtt/internal/core/events"
	"github.com/berfenger/ecoflow2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

// HADiscoveryActor publishes the Home Assistant discovery documents once
// both the MQTT and device actors report healthy, then keeps discovery
// current by extending it whenever auto entities activate.
type HADiscoveryActor struct {
	config             *config.Config
	behavior           actor.Behavior
	stash              *actorutil.Stash
	deviceActor        *actor.PID
	mqttActor          *actor.PID
	deviceActorHealthy bool
	mqttActorHealthy   bool
	healthyRecv        int
	station            domain.Device
	eventStream        *eventstream.EventStream
	eventStreamSub     *eventstream.Subscription

	logger *zap.Logger
}

func NewHADiscoveryActor(config *config.Config, deviceActor *actor.PID, mqttActor *actor.PID,
	eventStream *eventstream.EventStream, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:      config,
		deviceActor: deviceActor,
		mqttActor:   mqttActor,
		eventStream: eventStream,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")

		// Check Device and MQTT actor healthy
		state.healthyRecv = 0
		state.deviceActorHealthy = false
		state.mqttActorHealthy = false
		// Device Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.deviceActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_DEVICE,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.healthyRecv++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_DEVICE:
				state.deviceActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.mqttActorHealthy = true
			}
		}
		if state.healthyRecv == 2 {

			if state.deviceActorHealthy && state.mqttActorHealthy {
				// Ask Device GetEntitiesRequest
				actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.deviceActor, domain.GetEntitiesRequest{}, 2*time.Second), func(err error) any {
					return domain.GetEntitiesResponse{
						ActorResponseMixIn: domain.ActorResponseMixIn{
							ResponseError: err,
						},
					}
				})
				state.behavior.Become(state.WaitingInfoReceive)
				state.stash.UnstashAll(ctx)
			} else {
				panic(errors.New("MQTT Actor or Device Actor are not healthy"))
			}
		}
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingInfoReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetEntitiesResponse:
		if msg.HasResponseError() {
			panic(msg.GetResponseError())
		}
		state.logger.Debug("hadiscovery@info: GetEntitiesResponse", zap.Int("entities", len(msg.Entities)))

		bridgeDevice := events.BridgeDevice(state.config.MQTT.BaseTopic)
		bridgeSensors := events.BridgeSensors(bridgeDevice)

		station := events.PowerStationDevice(msg.Manufacturer, msg.Model, msg.DeviceName, state.config.Device.SerialNumber)
		station.ViaDevice = bridgeDevice.Id
		state.station = station

		components := events.BuildDiscoveryComponents(station, msg.Entities)

		ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
			Sensors:      append(bridgeSensors, components.Sensors...),
			Switches:     components.Switches,
			InputNumbers: components.InputNumbers,
			Selects:      components.Selects,
		})

		// watch for auto entities waking up later (extra battery packs)
		self := ctx.Self()
		actorSystem := ctx.ActorSystem()
		state.eventStreamSub = state.eventStream.Subscribe(func(evt interface{}) {
			if activated, ok := evt.(domain.EntitiesActivatedEvent); ok {
				actorSystem.Root.Send(self, activated)
			}
		})

		state.behavior.Become(state.DefaultReceive)

	default:
		state.logger.Debug("hadiscovery@info: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *HADiscoveryActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.EntitiesActivatedEvent:
		state.logger.Info("hadiscovery@default entities activated", zap.String("namespace", msg.Namespace), zap.Int("entities", len(msg.Entities)))

		components := events.BuildDiscoveryComponents(state.station, msg.Entities)
		ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
			Sensors:      components.Sensors,
			Switches:     components.Switches,
			InputNumbers: components.InputNumbers,
			Selects:      components.Selects,
		})
	case *actor.Stopping:
		state.stop()
	case *actor.Restarting:
		state.stop()
	}
}

func (state *HADiscoveryActor) stop() {
	if state.eventStreamSub != nil {
		state.eventStream.Unsubscribe(state.eventStreamSub)
		state.eventStreamSub = nil
	}
}
