package actor

import (
	"fmt"
	"testing"
	"time"

	adactor "github.com/berfenger/ecoflow2mqtt/internal/adapter/actor"
	"github.com/berfenger/ecoflow2mqtt/internal/core/domain"
	"github.com/berfenger/ecoflow2mqtt/internal/core/profile"
	"github.com/berfenger/ecoflow2mqtt/internal/mqtt"
	"github.com/berfenger/ecoflow2mqtt/internal/util"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMasterActor(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	doc, err := profile.Delta2()
	if err != nil {
		t.Fatal(err)
	}
	registry, err := profile.Load(doc)
	if err != nil {
		t.Fatal(err)
	}

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, registry, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}, logger)
	})
	pid, err := context.SpawnNamed(props, "master")
	if err != nil {
		t.Error(err)
		return
	}

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	fmt.Printf("Health response: %+v\n", healthResp)
	assert.NotNil(t, healthResp)

	assert.True(t, healthResp.Healthy, "healthy is true")

	// a command frame arriving from the MQTT side reaches the device actor
	context.Send(pid, adactor.ParsedTelemetry{
		Frame: domain.TelemetryFrame{
			Namespace: "pd",
			Fields:    map[string]any{"wattsOutSum": float64(120)},
		},
	})
	context.Send(pid, adactor.ParsedCommand{
		Command: &mqtt.ParsedMQTTCommand{
			EntityId: "beeper",
			Command:  "switch",
			Payload:  "on",
		},
	})

	time.Sleep(500 * time.Millisecond)

	res, err = context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	healthResp, ok = res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.True(t, healthResp.Healthy, "healthy after routing messages")

	context.Stop(pid)

	as.Shutdown()
}
