package service

import (
	"context"

	"github.com/berfenger/ecoflow2mqtt/internal/core/command"
	"github.com/berfenger/ecoflow2mqtt/internal/core/domain"
	"github.com/berfenger/ecoflow2mqtt/internal/core/port"
	"github.com/berfenger/ecoflow2mqtt/internal/core/profile"
	"github.com/berfenger/ecoflow2mqtt/internal/core/telemetry"

	"go.uber.org/zap"
)

// Engine ties the entity registry, telemetry dispatcher and write path
// together behind one facade. Reads come from the live value cache, writes
// go through validate, build and the per-field write serializer before
// reaching the transport. Accepted writes never touch the cache: the new
// state flows back through telemetry once the device applies it.
type Engine struct {
	registry   *profile.Registry
	cache      *telemetry.LiveValueCache
	dispatcher *telemetry.Dispatcher
	serializer *command.WriteSerializer
	transport  port.CommandTransport
	serial     string
	logger     *zap.Logger
}

func NewEngine(registry *profile.Registry, transport port.CommandTransport, serial string, logger *zap.Logger) *Engine {
	cache := telemetry.NewLiveValueCache()
	return &Engine{
		registry:   registry,
		cache:      cache,
		dispatcher: telemetry.NewDispatcher(registry, cache),
		serializer: command.NewWriteSerializer(),
		transport:  transport,
		serial:     serial,
		logger:     logger,
	}
}

func (e *Engine) Registry() *profile.Registry {
	return e.registry
}

// ApplyFrame merges one telemetry frame into the live state.
func (e *Engine) ApplyFrame(frame domain.TelemetryFrame) telemetry.ApplyResult {
	result := e.dispatcher.Apply(frame)
	if len(result.Activated) > 0 {
		ids := make([]string, 0, len(result.Activated))
		for _, def := range result.Activated {
			ids = append(ids, def.Id)
		}
		e.logger.Info("namespace activated entities",
			zap.String("namespace", frame.Namespace), zap.Strings("entities", ids))
	}
	return result
}

// Submit validates and executes one entity write. Writes aliasing the same
// physical field key are serialized against each other; the transport call
// happens while the field lock is held, so two racing writes to one field
// reach the device strictly one after the other.
func (e *Engine) Submit(ctx context.Context, req domain.CommandRequest) (domain.OutgoingCommand, error) {
	def, err := e.registry.Lookup(req.EntityId)
	if err != nil {
		return domain.OutgoingCommand{}, err
	}
	accepted, err := command.Validate(def, req.Value)
	if err != nil {
		return domain.OutgoingCommand{}, err
	}

	var cmd domain.OutgoingCommand
	err = e.serializer.Do(def.FieldKey, func() error {
		var buildErr error
		cmd, buildErr = command.Build(def, accepted, e.serial)
		if buildErr != nil {
			return buildErr
		}
		if sendErr := e.transport.SendCommand(ctx, cmd); sendErr != nil {
			return &domain.TransportError{EntityId: def.Id, Cause: sendErr}
		}
		return nil
	})
	if err != nil {
		return domain.OutgoingCommand{}, err
	}

	e.logger.Debug("command sent",
		zap.String("entity", def.Id),
		zap.String("operateType", cmd.OperateType),
		zap.Any("value", accepted))
	return cmd, nil
}

// Value returns the last telemetry value for an active entity.
func (e *Engine) Value(entityId string) (any, error) {
	def, err := e.registry.Lookup(entityId)
	if err != nil {
		return nil, err
	}
	v, ok := e.cache.Get(def.Id)
	if !ok {
		return nil, nil
	}
	return v, nil
}

// Values returns a snapshot of all cached entity values.
func (e *Engine) Values() map[string]any {
	return e.cache.Snapshot()
}
