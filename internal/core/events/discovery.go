package events

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	. "github.com/berfenger/ecoflow2mqtt/internal/core/domain"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE  = "bridge"
	SENSOR_ID_TELEMETRY_AGE = "last_telemetry_age"

	SENSOR_TYPE_SENSOR = "sensor"
	SENSOR_TYPE_BINARY = "binary_sensor"

	DEVICE_CLASS_CONNECTIVITY = "connectivity"
	DEVICE_CLASS_DURATION     = "duration"

	STATE_CLASS_MEASUREMENT = "measurement"

	ENTITY_CLASS_DIAGNOSTIC = "diagnostic"

	INPUT_NUMBER_MODE_SLIDER = "slider"
)

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("ecoflow_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "Ecoflow2MQTT",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Ecoflow2MQTT %s", md5HashShort(baseTopic)),
	}
}

// PowerStationDevice identifies the main unit in discovery, built from the
// profile's device block plus the configured serial number.
func PowerStationDevice(manufacturer, model, name, serial string) Device {
	if name == "" {
		name = fmt.Sprintf("%s %s %s", manufacturer, model, md5HashShort(serial))
	}
	return Device{
		Id:           fmt.Sprintf("ef_station_%s", md5HashShort(serial)),
		Manufacturer: manufacturer,
		Model:        model,
		Name:         name,
	}
}

// SlavePackDevice identifies one extra battery pack. Packs hang off the
// main unit through ViaDevice.
func SlavePackDevice(station Device, packIndex int) Device {
	return Device{
		Id:           fmt.Sprintf("%s_pack%d", station.Id, packIndex),
		Manufacturer: station.Manufacturer,
		Model:        fmt.Sprintf("%s Extra Battery", station.Model),
		Name:         fmt.Sprintf("%s Pack %d", station.Name, packIndex),
		ViaDevice:    station.Id,
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {
	return []GenericSensor{
		{
			Device:         bridgeDevice,
			Id:             SENSOR_ID_BRIDGE_STATE,
			SensorType:     SENSOR_TYPE_BINARY,
			Name:           "Bridge state",
			DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
			EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
			UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
		},
		{
			Device:            IdDevice(bridgeDevice),
			Id:                SENSOR_ID_TELEMETRY_AGE,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              "Last telemetry age",
			DeviceClass:       DEVICE_CLASS_DURATION,
			StateClass:        STATE_CLASS_MEASUREMENT,
			UnitOfMeasurement: "s",
			EntityCategory:    ENTITY_CLASS_DIAGNOSTIC,
			UniqueId:          uniqueId(bridgeDevice.Id, SENSOR_ID_TELEMETRY_AGE),
		},
	}
}

// EntitySensor maps a sensor definition to its discovery component.
func EntitySensor(device Device, def *EntityDefinition) GenericSensor {
	sensor := GenericSensor{
		Device:            device,
		Id:                def.Id,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              def.Name,
		UniqueId:          uniqueId(device.Id, def.Id),
		UnitOfMeasurement: def.Display.Unit,
		StateClass:        def.Display.StateClass,
		DeviceClass:       def.Display.DeviceClass,
		EntityCategory:    def.Display.EntityCategory,
		Icon:              def.Display.Icon,
	}
	if def.Enabled == EnableOff {
		sensor.EnabledByDefault = optionalBool(false)
	}
	return sensor
}

func EntitySwitch(device Device, def *EntityDefinition) GenericSwitch {
	return GenericSwitch{
		Device:         device,
		Id:             def.Id,
		Name:           def.Name,
		UniqueId:       uniqueId(device.Id, def.Id),
		Icon:           def.Display.Icon,
		EntityCategory: def.Display.EntityCategory,
	}
}

func EntityInputNumber(device Device, def *EntityDefinition) GenericInputNumber {
	return GenericInputNumber{
		Device:            device,
		Id:                def.Id,
		Name:              def.Name,
		UniqueId:          uniqueId(device.Id, def.Id),
		Icon:              def.Display.Icon,
		Min:               def.Range.Min,
		Max:               def.Range.Max,
		Step:              def.Range.Step,
		Mode:              INPUT_NUMBER_MODE_SLIDER,
		EntityCategory:    def.Display.EntityCategory,
		UnitOfMeasurement: def.Display.Unit,
	}
}

func EntitySelect(device Device, def *EntityDefinition) GenericSelect {
	return GenericSelect{
		Device:         device,
		Id:             def.Id,
		Name:           def.Name,
		UniqueId:       uniqueId(device.Id, def.Id),
		Icon:           def.Display.Icon,
		Options:        def.OptionLabels(),
		EntityCategory: def.Display.EntityCategory,
	}
}

// DiscoveryComponents groups entity definitions into per-platform
// discovery lists. Slave pack entities land on their own pack device.
type DiscoveryComponents struct {
	Sensors      []GenericSensor
	Switches     []GenericSwitch
	InputNumbers []GenericInputNumber
	Selects      []GenericSelect
}

func BuildDiscoveryComponents(station Device, defs []*EntityDefinition) DiscoveryComponents {
	var out DiscoveryComponents
	// only the first component per device carries the full device block,
	// the rest reference it by id
	seen := map[string]bool{}
	for _, def := range defs {
		device := station
		if def.PackIndex > 0 {
			device = SlavePackDevice(station, def.PackIndex)
		}
		if seen[device.Id] {
			device = IdDevice(device)
		}
		seen[device.Id] = true
		switch def.Kind {
		case KindSwitch:
			out.Switches = append(out.Switches, EntitySwitch(device, def))
		case KindSlider:
			out.InputNumbers = append(out.InputNumbers, EntityInputNumber(device, def))
		case KindSelect:
			out.Selects = append(out.Selects, EntitySelect(device, def))
		default:
			out.Sensors = append(out.Sensors, EntitySensor(device, def))
		}
	}
	return out
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}

func optionalBool(value bool) *bool {
	return &value
}
