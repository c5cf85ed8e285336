package events

import (
	"testing"

	"github.com/berfenger/ecoflow2mqtt/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensorValueToFloatEvent(t *testing.T) {
	def := &domain.EntityDefinition{
		Id:      "battery_level",
		Kind:    domain.KindSensor,
		Display: domain.Display{Decimals: 1},
	}

	ev := EntityValueToUpdateEvent(def, 87)
	fev, ok := ev.(domain.FloatEntityUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, "battery_level", fev.EntityId())
	assert.Equal(t, float64(87), fev.Value)
	assert.Equal(t, uint(1), fev.Decimals)
}

func TestSensorValueToTextEvent(t *testing.T) {
	def := &domain.EntityDefinition{Id: "charge_state", Kind: domain.KindSensor}

	ev := EntityValueToUpdateEvent(def, "bypass")
	tev, ok := ev.(domain.TextEntityUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, "bypass", tev.Value)
}

func TestSwitchValueNormalization(t *testing.T) {
	def := &domain.EntityDefinition{Id: "ac_enabled", Kind: domain.KindSwitch}

	for raw, expected := range map[any]bool{
		0: false, 1: true, 2: true, false: false, true: true, "0": false, "1": true,
	} {
		ev := EntityValueToUpdateEvent(def, raw)
		sev, ok := ev.(domain.SwitchEntityUpdateEvent)
		require.True(t, ok, "raw %v", raw)
		assert.Equal(t, expected, sev.Value, "raw %v", raw)
	}

	assert.Nil(t, EntityValueToUpdateEvent(def, "garbled"))
}

func TestSliderValueToNumberEvent(t *testing.T) {
	def := &domain.EntityDefinition{
		Id:    "max_charge_level",
		Kind:  domain.KindSlider,
		Range: &domain.NumericRange{Min: 50, Max: 100, Step: 1},
	}

	ev := EntityValueToUpdateEvent(def, int64(85))
	nev, ok := ev.(domain.NumberEntityUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, float64(85), nev.Value)
}

func TestSelectValueToLabel(t *testing.T) {
	def := &domain.EntityDefinition{
		Id:   "screen_timeout",
		Kind: domain.KindSelect,
		Options: []domain.SelectOption{
			{Label: "Never", Code: 0},
			{Label: "30 sec", Code: 30},
		},
	}

	ev := EntityValueToUpdateEvent(def, 30)
	sev, ok := ev.(domain.SelectEntityUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, "30 sec", sev.Label)

	// unmapped code produces no event
	assert.Nil(t, EntityValueToUpdateEvent(def, 45))
}

func TestBridgeSensorsIncludeTelemetryAge(t *testing.T) {
	bridge := BridgeDevice("ecoflow")
	sensors := BridgeSensors(bridge)

	var age *domain.GenericSensor
	for i := range sensors {
		if sensors[i].Id == SENSOR_ID_TELEMETRY_AGE {
			age = &sensors[i]
		}
	}
	require.NotNil(t, age, "telemetry age sensor expected")
	assert.Equal(t, SENSOR_TYPE_SENSOR, age.SensorType)
	assert.Equal(t, DEVICE_CLASS_DURATION, age.DeviceClass)
	assert.Equal(t, "s", age.UnitOfMeasurement)
	assert.Equal(t, ENTITY_CLASS_DIAGNOSTIC, age.EntityCategory)
	assert.Equal(t, bridge.Id, age.Device.Id)
}

func TestBuildDiscoveryComponentsTrimsRepeatedDeviceBlocks(t *testing.T) {
	station := PowerStationDevice("EcoFlow", "DELTA 2", "", "SN123")
	defs := []*domain.EntityDefinition{
		{Id: "battery_level", Name: "Battery Level", Kind: domain.KindSensor},
		{Id: "input_power", Name: "Input Power", Kind: domain.KindSensor},
		{Id: "slave_1_battery_level", Name: "Slave 1 Battery Level", Kind: domain.KindSensor,
			PackIndex: 1},
		{Id: "slave_1_input_power", Name: "Slave 1 Input Power", Kind: domain.KindSensor,
			PackIndex: 1},
	}

	components := BuildDiscoveryComponents(station, defs)
	require.Len(t, components.Sensors, 4)

	// first component per device carries the full block
	assert.Equal(t, station, components.Sensors[0].Device)
	assert.Equal(t, IdDevice(station), components.Sensors[1].Device)

	pack := components.Sensors[2].Device
	assert.Equal(t, station.Id, pack.ViaDevice)
	assert.Equal(t, IdDevice(pack), components.Sensors[3].Device)
}

func TestBuildDiscoveryComponents(t *testing.T) {
	station := PowerStationDevice("EcoFlow", "DELTA 2", "", "SN123")
	defs := []*domain.EntityDefinition{
		{Id: "battery_level", Name: "Battery Level", Kind: domain.KindSensor},
		{Id: "ac_enabled", Name: "AC Enabled", Kind: domain.KindSwitch},
		{Id: "max_charge_level", Name: "Max Charge Level", Kind: domain.KindSlider,
			Range: &domain.NumericRange{Min: 50, Max: 100, Step: 1}},
		{Id: "screen_timeout", Name: "Screen Timeout", Kind: domain.KindSelect,
			Options: []domain.SelectOption{{Label: "Never", Code: 0}}},
		{Id: "slave_1_battery_level", Name: "Slave 1 Battery Level", Kind: domain.KindSensor,
			PackIndex: 1},
	}

	components := BuildDiscoveryComponents(station, defs)

	require.Len(t, components.Sensors, 2)
	require.Len(t, components.Switches, 1)
	require.Len(t, components.InputNumbers, 1)
	require.Len(t, components.Selects, 1)

	// slave pack entities land on their own device, linked to the station
	pack := components.Sensors[1].Device
	assert.Equal(t, station.Id, pack.ViaDevice)
	assert.Contains(t, pack.Id, "pack1")

	assert.Equal(t, []string{"Never"}, components.Selects[0].Options)
}
