package actor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/berfenger/ecoflow2mqtt/internal/config"
	"github.com/berfenger/ecoflow2mqtt/internal/core/domain"
	evts "github.com/berfenger/ecoflow2mqtt/internal/core/events"
	"github.com/berfenger/ecoflow2mqtt/internal/core/profile"
	"github.com/berfenger/ecoflow2mqtt/internal/util"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeTransport struct {
	mu       sync.Mutex
	commands []domain.OutgoingCommand
}

func (f *fakeTransport) SendCommand(ctx context.Context, cmd domain.OutgoingCommand) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	return nil
}

func (f *fakeTransport) sent() []domain.OutgoingCommand {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.OutgoingCommand, len(f.commands))
	copy(out, f.commands)
	return out
}

func spawnTestDeviceActor(t *testing.T) (*actor.ActorSystem, *actor.PID, *fakeTransport, *eventstream.EventStream) {
	t.Helper()
	return spawnTestDeviceActorWithConfig(t, util.LoadTestConfig())
}

func spawnTestDeviceActorWithConfig(t *testing.T, cfg config.Config) (*actor.ActorSystem, *actor.PID, *fakeTransport, *eventstream.EventStream) {
	t.Helper()

	logger := zap.Must(zap.NewDevelopment())

	doc, err := profile.Delta2()
	if err != nil {
		t.Fatal(err)
	}
	registry, err := profile.Load(doc)
	if err != nil {
		t.Fatal(err)
	}

	transport := &fakeTransport{}
	es := &eventstream.EventStream{}

	as := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewDeviceActor(&cfg, registry, transport, es, logger)
	})
	pid := as.Root.Spawn(props)
	return as, pid, transport, es
}

func TestDeviceActorPublishesTelemetryUpdates(t *testing.T) {

	as, pid, _, es := spawnTestDeviceActor(t)
	defer as.Shutdown()

	var mu sync.Mutex
	var events []any
	sub := es.Subscribe(func(evt interface{}) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, evt)
	})
	defer es.Unsubscribe(sub)

	as.Root.Send(pid, domain.ApplyTelemetryFrame{
		Frame: domain.TelemetryFrame{
			Namespace: "pd",
			Fields: map[string]any{
				"wattsOutSum": float64(230),
				"beepMode":    float64(0),
			},
		},
	})

	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	var gotOutput *domain.FloatEntityUpdateEvent
	var gotBeeper *domain.SwitchEntityUpdateEvent
	for _, evt := range events {
		switch e := evt.(type) {
		case domain.FloatEntityUpdateEvent:
			if e.Id == "total_output_power" {
				ev := e
				gotOutput = &ev
			}
		case domain.SwitchEntityUpdateEvent:
			if e.Id == "beeper" {
				ev := e
				gotBeeper = &ev
			}
		}
	}
	if assert.NotNil(t, gotOutput, "output power update expected") {
		assert.Equal(t, float64(230), gotOutput.Value)
	}
	if assert.NotNil(t, gotBeeper, "beeper update expected") {
		assert.False(t, gotBeeper.Value)
	}
}

func TestDeviceActorPublishesTelemetryAge(t *testing.T) {

	cfg := util.LoadTestConfig()
	cfg.Device.StatusIntervalMillis = 200

	as, pid, _, es := spawnTestDeviceActorWithConfig(t, cfg)
	defer as.Shutdown()

	var mu sync.Mutex
	var ages []domain.FloatEntityUpdateEvent
	sub := es.Subscribe(func(evt interface{}) {
		if e, ok := evt.(domain.FloatEntityUpdateEvent); ok && e.Id == evts.SENSOR_ID_TELEMETRY_AGE {
			mu.Lock()
			defer mu.Unlock()
			ages = append(ages, e)
		}
	})
	defer es.Unsubscribe(sub)

	as.Root.Send(pid, domain.ApplyTelemetryFrame{
		Frame: domain.TelemetryFrame{
			Namespace: "pd",
			Fields:    map[string]any{"wattsOutSum": float64(120)},
		},
	})

	time.Sleep(1 * time.Second)

	mu.Lock()
	defer mu.Unlock()
	if assert.NotEmpty(t, ages, "age updates expected after the first frame") {
		last := ages[len(ages)-1]
		assert.GreaterOrEqual(t, last.Value, float64(0))
		assert.Less(t, last.Value, float64(5))
	}
}

func TestDeviceActorActivatesSlavePackEntities(t *testing.T) {

	as, pid, _, es := spawnTestDeviceActor(t)
	defer as.Shutdown()

	var mu sync.Mutex
	var activated []domain.EntitiesActivatedEvent
	sub := es.Subscribe(func(evt interface{}) {
		if e, ok := evt.(domain.EntitiesActivatedEvent); ok {
			mu.Lock()
			defer mu.Unlock()
			activated = append(activated, e)
		}
	})
	defer es.Unsubscribe(sub)

	as.Root.Send(pid, domain.ApplyTelemetryFrame{
		Frame: domain.TelemetryFrame{
			Namespace: "bms_slave_bmsSlaveStatus_1",
			Fields: map[string]any{
				"soc": float64(87),
			},
		},
	})

	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if assert.Len(t, activated, 1) {
		assert.Equal(t, "bms_slave_bmsSlaveStatus_1", activated[0].Namespace)
		ids := make([]string, 0, len(activated[0].Entities))
		for _, def := range activated[0].Entities {
			ids = append(ids, def.Id)
		}
		assert.Contains(t, ids, "slave_1_battery_level")
	}
}

func TestDeviceActorExecutesEntityCommand(t *testing.T) {

	as, pid, transport, _ := spawnTestDeviceActor(t)
	defer as.Shutdown()

	res, err := as.Root.RequestFuture(pid, domain.EntityCommandRequest{
		EntityId: "ac_charging_power",
		Value:    float64(800),
	}, 5*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp, ok := res.(domain.EntityCommandResponse)
	assert.True(t, ok)
	assert.False(t, resp.HasResponseError())
	assert.Equal(t, "ac_charging_power", resp.EntityId)

	sent := transport.sent()
	if assert.Len(t, sent, 1) {
		assert.Equal(t, 3, sent[0].ModuleType)
		assert.Equal(t, "acChgCfg", sent[0].OperateType)
		assert.Equal(t, int64(800), sent[0].Params["slowChgWatts"])
	}
}

func TestDeviceActorRejectsOutOfRangeCommand(t *testing.T) {

	as, pid, transport, _ := spawnTestDeviceActor(t)
	defer as.Shutdown()

	res, err := as.Root.RequestFuture(pid, domain.EntityCommandRequest{
		EntityId: "ac_charging_power",
		Value:    float64(5000),
	}, 5*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp, ok := res.(domain.EntityCommandResponse)
	assert.True(t, ok)
	assert.True(t, resp.HasResponseError())
	assert.Empty(t, transport.sent())
}

func TestDeviceActorReportsEntities(t *testing.T) {

	as, pid, _, _ := spawnTestDeviceActor(t)
	defer as.Shutdown()

	res, err := as.Root.RequestFuture(pid, domain.GetEntitiesRequest{}, 5*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp, ok := res.(domain.GetEntitiesResponse)
	assert.True(t, ok)
	assert.Equal(t, "EcoFlow", resp.Manufacturer)
	assert.Equal(t, "DELTA 2", resp.Model)
	assert.NotEmpty(t, resp.Entities)

	// pattern entities stay dormant until their namespace shows up
	for _, def := range resp.Entities {
		assert.NotContains(t, def.Id, "slave_")
	}
}
