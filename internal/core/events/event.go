package events

import (
	"encoding/json"
	"fmt"

	. "github.com/berfenger/ecoflow2mqtt/internal/core/domain"
)

// EntityValueToUpdateEvent converts one telemetry value into the update
// event the MQTT actor knows how to publish. Returns nil when the value
// cannot be represented for the entity kind (for instance a select code
// the profile does not map).
func EntityValueToUpdateEvent(def *EntityDefinition, value any) any {
	switch def.Kind {
	case KindSwitch:
		on, ok := toBool(value)
		if !ok {
			return nil
		}
		return SwitchEntityUpdateEvent{
			EntityUpdateEventMixIn: EntityUpdateEventMixIn{Id: def.Id},
			Value:                  on,
		}
	case KindSlider:
		f, ok := toFloat(value)
		if !ok {
			return nil
		}
		return NumberEntityUpdateEvent{
			EntityUpdateEventMixIn: EntityUpdateEventMixIn{Id: def.Id},
			Value:                  f,
			Decimals:               def.Display.Decimals,
		}
	case KindSelect:
		f, ok := toFloat(value)
		if !ok {
			return nil
		}
		label, ok := def.LabelFor(int64(f))
		if !ok {
			return nil
		}
		return SelectEntityUpdateEvent{
			EntityUpdateEventMixIn: EntityUpdateEventMixIn{Id: def.Id},
			Label:                  label,
		}
	default:
		if f, ok := toFloat(value); ok {
			return FloatEntityUpdateEvent{
				EntityUpdateEventMixIn: EntityUpdateEventMixIn{Id: def.Id},
				Value:                  f,
				Decimals:               def.Display.Decimals,
			}
		}
		return TextEntityUpdateEvent{
			EntityUpdateEventMixIn: EntityUpdateEventMixIn{Id: def.Id},
			Value:                  fmt.Sprintf("%v", value),
		}
	}
}

// toBool normalizes device-side switch telemetry: 0 and false mean off,
// anything else that parses means on.
func toBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		switch v {
		case "0", "false", "off":
			return false, true
		case "1", "true", "on":
			return true, true
		}
		return false, false
	default:
		if f, ok := toFloat(value); ok {
			return f != 0, true
		}
		return false, false
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
