package command

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/berfenger/ecoflow2mqtt/internal/core/domain"
)

// Validate normalizes a raw caller value against the entity's constraint
// and returns the device-side value to substitute into the command
// template. Out-of-range and unmappable values are rejected, never clamped
// or coerced to a nearby valid value.
func Validate(def *domain.EntityDefinition, raw any) (any, error) {
	if !def.Writable() {
		return nil, &domain.ValidationError{
			EntityId:   def.Id,
			Value:      raw,
			Constraint: "a writable entity",
		}
	}
	switch def.Kind {
	case domain.KindSwitch:
		return validateSwitch(def, raw)
	case domain.KindSlider:
		return validateSlider(def, raw)
	case domain.KindSelect:
		return validateSelect(def, raw)
	default:
		return nil, &domain.ValidationError{
			EntityId:   def.Id,
			Value:      raw,
			Constraint: "a writable entity",
		}
	}
}

// validateSwitch maps the accepted on/off spellings to the 1/0 the device
// protocol expects.
func validateSwitch(def *domain.EntityDefinition, raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return boolToInt(v), nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "on", "true", "1":
			return 1, nil
		case "off", "false", "0":
			return 0, nil
		}
	default:
		if f, ok := toFloat(raw); ok {
			if f == 0 {
				return 0, nil
			}
			if f == 1 {
				return 1, nil
			}
		}
	}
	return nil, &domain.ValidationError{
		EntityId:   def.Id,
		Value:      raw,
		Constraint: "a boolean",
	}
}

func validateSlider(def *domain.EntityDefinition, raw any) (any, error) {
	reject := func() (any, error) {
		return nil, &domain.ValidationError{
			EntityId:   def.Id,
			Value:      raw,
			Constraint: fmt.Sprintf("range %s", def.Range),
		}
	}
	f, ok := toFloat(raw)
	if !ok {
		if s, isStr := raw.(string); isStr {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return reject()
			}
			f = parsed
		} else {
			return reject()
		}
	}
	if !def.Range.Contains(f) {
		return reject()
	}
	if f == math.Trunc(f) {
		return int64(f), nil
	}
	return f, nil
}

// validateSelect accepts either an option label or its device code and
// always returns the code.
func validateSelect(def *domain.EntityDefinition, raw any) (any, error) {
	if s, ok := raw.(string); ok {
		if code, found := def.CodeFor(strings.TrimSpace(s)); found {
			return code, nil
		}
	}
	if f, ok := toFloat(raw); ok && f == math.Trunc(f) {
		code := int64(f)
		if _, found := def.LabelFor(code); found {
			return code, nil
		}
	}
	return nil, &domain.ValidationError{
		EntityId:   def.Id,
		Value:      raw,
		Constraint: fmt.Sprintf("one of %v", def.OptionLabels()),
	}
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
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

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
