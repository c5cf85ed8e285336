package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/berfenger/ecoflow2mqtt/internal/config"
	"github.com/berfenger/ecoflow2mqtt/internal/core/domain"
	"github.com/berfenger/ecoflow2mqtt/internal/core/events"
	"github.com/berfenger/ecoflow2mqtt/internal/core/port"
	"github.com/berfenger/ecoflow2mqtt/internal/core/profile"
	"github.com/berfenger/ecoflow2mqtt/internal/core/service"
	. "github.com/berfenger/ecoflow2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// DeviceActor owns the engine: it merges telemetry frames into the live
// state, fans entity updates out on the event stream and executes entity
// writes through the command transport.
type DeviceActor struct {
	config    *config.Config
	behavior  actor.Behavior
	stash     *Stash
	scheduler *scheduler.TimerScheduler

	registry    *profile.Registry
	transport   port.CommandTransport
	engine      *service.Engine
	eventStream *eventstream.EventStream
	lastFrameAt time.Time

	logger *zap.Logger
}

type statusTick struct {
}

func NewDeviceActor(config *config.Config, registry *profile.Registry, transport port.CommandTransport,
	eventStream *eventstream.EventStream, logger *zap.Logger) *DeviceActor {
	act := &DeviceActor{
		config:      config,
		registry:    registry,
		transport:   transport,
		behavior:    actor.NewBehavior(),
		stash:       &Stash{},
		eventStream: eventStream,
		logger:      ActorLogger(domain.ACTOR_ID_DEVICE, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *DeviceActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *DeviceActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("device@starting started")

		state.engine = service.NewEngine(state.registry, state.transport,
			state.config.Device.SerialNumber, state.logger)

		if state.config.Device.StatusIntervalMillis > 0 {
			state.scheduler = scheduler.NewTimerScheduler(ctx)
			state.scheduler.RequestOnce(time.Duration(state.config.Device.StatusIntervalMillis)*time.Millisecond, ctx.Self(), statusTick{})
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.logger.Debug("device@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *DeviceActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("device@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_DEVICE,
			Healthy: true,
			State:   state.telemetryState(),
		})
	case domain.ApplyTelemetryFrame:
		state.applyFrame(msg.Frame)
	case domain.EntityCommandRequest:
		state.logger.Debug("device@default EntityCommandRequest",
			zap.String("entity", msg.EntityId), zap.Any("value", msg.Value))
		state.submitCommand(ctx, msg)
	case domain.GetEntitiesRequest:
		state.logger.Debug("device@default GetEntitiesRequest")
		info := state.registry.DeviceInfo()
		ForRequest(msg).Respond(ctx, domain.GetEntitiesResponse{
			Manufacturer: info.Manufacturer,
			Model:        info.Model,
			DeviceName:   info.Name,
			Entities:     state.registry.Active(),
		})
	case statusTick:
		if state.lastFrameAt.IsZero() || time.Since(state.lastFrameAt) > 2*time.Duration(state.config.Device.StatusIntervalMillis)*time.Millisecond {
			state.logger.Warn("device@default no recent telemetry", zap.Time("lastFrame", state.lastFrameAt))
		}
		// the age sensor only reports once telemetry has been seen
		if !state.lastFrameAt.IsZero() {
			state.eventStream.Publish(domain.FloatEntityUpdateEvent{
				EntityUpdateEventMixIn: domain.EntityUpdateEventMixIn{Id: events.SENSOR_ID_TELEMETRY_AGE},
				Value:                  time.Since(state.lastFrameAt).Seconds(),
			})
		}
		state.scheduler.RequestOnce(time.Duration(state.config.Device.StatusIntervalMillis)*time.Millisecond, ctx.Self(), statusTick{})
	default:
		state.logger.Debug("device@default ignored", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *DeviceActor) applyFrame(frame domain.TelemetryFrame) {
	state.lastFrameAt = time.Now()
	result := state.engine.ApplyFrame(frame)

	// newly woken entities are announced before their first values so
	// discovery can be extended ahead of the state publishes
	if len(result.Activated) > 0 {
		state.eventStream.Publish(domain.EntitiesActivatedEvent{
			Namespace: frame.Namespace,
			Entities:  result.Activated,
		})
	}
	for _, update := range result.Updated {
		if ev := events.EntityValueToUpdateEvent(update.Def, update.Value); ev != nil {
			state.eventStream.Publish(ev)
		}
	}
}

func (state *DeviceActor) submitCommand(ctx actor.Context, msg domain.EntityCommandRequest) {
	replyTo := ForRequest(msg).ReplyTo(ctx)
	engine := state.engine
	task := NewBackgroundTaskNoError(ctx, func() *domain.EntityCommandResponse {
		_, err := engine.Submit(context.Background(), domain.CommandRequest{
			EntityId: msg.EntityId,
			Value:    msg.Value,
		})
		return &domain.EntityCommandResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
			EntityId: msg.EntityId,
		}
	}).WithTimeout(15 * time.Second).Recover(func(err error) domain.EntityCommandResponse {
		return domain.EntityCommandResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
			EntityId: msg.EntityId,
		}
	})
	// writes must not block frame processing; per-field ordering is
	// enforced inside the engine
	if replyTo != nil {
		go task.PipeTo(replyTo)
	} else {
		task.OnSuccess(func(resp domain.EntityCommandResponse) {
			if resp.HasResponseError() {
				state.logger.Warn("device@command rejected",
					zap.String("entity", msg.EntityId), zap.Error(resp.GetResponseError()))
			}
		})
		go task.Run()
	}
}

func (state *DeviceActor) telemetryState() string {
	if state.lastFrameAt.IsZero() {
		return "no telemetry"
	}
	return fmt.Sprintf("last frame %s ago", time.Since(state.lastFrameAt).Round(time.Second))
}
