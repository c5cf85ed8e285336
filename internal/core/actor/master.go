package actor

import (
	"errors"
	"fmt"
	"log"
	"time"

	adactor "github.com/berfenger/ecoflow2mqtt/internal/adapter/actor"
	"github.com/berfenger/ecoflow2mqtt/internal/config"
	"github.com/berfenger/ecoflow2mqtt/internal/core/domain"
	"github.com/berfenger/ecoflow2mqtt/internal/core/profile"
	. "github.com/berfenger/ecoflow2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck healthCheckResult
	eventStream        *eventstream.EventStream
	registry           *profile.Registry
	mqttActor          *actor.PID
	deviceActor        *actor.PID
	mqttActorProvider  MQTTActorProvider
	logger             *zap.Logger
}

type healthCheckResult struct {
	mqttActorHealthy   bool
	deviceActorHealthy bool
	checksReceived     int
	respondTo          *actor.PID
}

func NewMasterOfPuppetsActor(config config.Config, registry *profile.Registry, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:            config,
		registry:          registry,
		behavior:          actor.NewBehavior(),
		stash:             &Stash{},
		logger:            ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:       &eventstream.EventStream{},
		mqttActorProvider: mqttActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset()

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// start Device child
		deviceActorPID, err := state.startDeviceActor(ctx)
		if err != nil {
			panic(err)
		}
		state.deviceActor = deviceActorPID

		// start HA Discovery
		if state.config.MQTT.HADiscoveryEnable {
			_, err := state.startHADiscoveryActor(ctx)
			if err != nil {
				panic(err)
			}
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		// MQTT Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		// Device Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.deviceActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_DEVICE,
				Healthy: false,
			}
		})

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case adactor.ParsedTelemetry:
		// route telemetry frame to the device actor
		ctx.Send(state.deviceActor, domain.ApplyTelemetryFrame{Frame: msg.Frame})
	case adactor.ParsedCommand:
		// redirect parsedCommand to the device actor
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command != nil {
			cmd, err := ParsedMQTTCommandToCommand(*msg.Command)
			if err == nil && cmd != nil {
				if pcmd, ok := cmd.(domain.EntityCommandRequest); ok {
					ctx.Send(state.deviceActor, pcmd)
				}
			}
		}
	case *actor.Terminated:
		// if some actor fails on boot, terminate
		if msg.Who.Id == fmt.Sprintf("%s/%s", domain.ACTOR_ID_MASTER, domain.ACTOR_ID_MQTT) {
			state.logger.Error("master@default mqtt error")
			panic(errors.New("mqtt terminated"))
		}
	default:
		state.logger.Debug("master@default stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy {
			if msg.Id == domain.ACTOR_ID_MQTT {
				state.currentHealthCheck.mqttActorHealthy = true
			} else if msg.Id == domain.ACTOR_ID_DEVICE {
				state.currentHealthCheck.deviceActorHealthy = true
			}
		}
		if state.currentHealthCheck.allReceived() {

			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *MasterOfPuppetsActor) startDeviceActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	transport := adactor.NewMQTTCommandTransport(ctx.ActorSystem().Root, state.mqttActor, 10*time.Second)

	deviceProps := actor.PropsFromProducer(func() actor.Actor {
		return NewDeviceActor(&state.config, state.registry, transport, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	deviceActorPID, err := ctx.SpawnNamed(deviceProps, domain.ACTOR_ID_DEVICE)
	if err != nil {
		return nil, err
	}

	return deviceActorPID, nil
}

func (state *MasterOfPuppetsActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.deviceActor, state.mqttActor, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	haDiscPID, err := ctx.SpawnNamed(haDiscProps, domain.ACTOR_ID_HA_DISCOVERY)
	if err != nil {
		return nil, err
	}

	return haDiscPID, nil
}

func (state *healthCheckResult) reset() {
	state.mqttActorHealthy = false
	state.deviceActorHealthy = false
	state.checksReceived = 0
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived == 2
}

func (state *healthCheckResult) allHealthy() bool {
	return state.mqttActorHealthy && state.deviceActorHealthy
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
