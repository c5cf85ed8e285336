package actorutil

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/berfenger/ecoflow2mqtt/internal/core/domain"
	"github.com/berfenger/ecoflow2mqtt/internal/mqtt"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
	"go.uber.org/zap"
)

func PipeToSelfWithRecover(ctx actor.Context, future *actor.Future, mapFn func(error) any) {
	ctx.ReenterAfter(future, func(msg any, err error) {
		if err != nil {
			ctx.Send(ctx.Self(), mapFn(err))
			return
		}
		ctx.Send(ctx.Self(), msg)
	})
}

func NewActorSystemWithZapLogger(logger *zap.Logger) *actor.ActorSystem {
	stdOutLogger := zap.NewStdLog(logger)

	var slogLevel slog.Level = slog.LevelInfo

	switch logger.Level() {
	case zap.DebugLevel:
		slogLevel = slog.LevelDebug
	case zap.InfoLevel:
		slogLevel = slog.LevelInfo
	case zap.WarnLevel:
		slogLevel = slog.LevelWarn
	case zap.ErrorLevel:
		slogLevel = slog.LevelError
	case zap.PanicLevel:
		slogLevel = slog.LevelError
	}

	return actor.NewActorSystem(actor.WithLoggerFactory(func(system *actor.ActorSystem) *slog.Logger {

		// create a new logger
		return slog.New(tint.NewHandler(stdOutLogger.Writer(), &tint.Options{
			Level:      slogLevel,
			TimeFormat: time.DateTime,
		}))
	}))
}

func ActorLogger(actorName string, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String("actor", actorName))
}

// ParsedMQTTCommandToCommand maps an MQTT command to the entity write the
// device actor understands. The payload is converted per platform: switch
// payloads stay textual, number payloads become float64, select payloads
// are the option label.
func ParsedMQTTCommandToCommand(cmd mqtt.ParsedMQTTCommand) (domain.ActorRequest, error) {
	switch cmd.Command {
	case "switch":
		return domain.EntityCommandRequest{
			EntityId: cmd.EntityId,
			Value:    cmd.Payload,
		}, nil
	case "number":
		value, err := strconv.ParseFloat(cmd.Payload, 64)
		if err != nil {
			return nil, err
		}
		return domain.EntityCommandRequest{
			EntityId: cmd.EntityId,
			Value:    value,
		}, nil
	case "select":
		return domain.EntityCommandRequest{
			EntityId: cmd.EntityId,
			Value:    cmd.Payload,
		}, nil
	}
	return nil, errors.New("unknown command platform")
}
