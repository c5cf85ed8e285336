package domain

import (
	"fmt"
	"strings"
)

type EntityKind uint8

const (
	KindSensor EntityKind = iota
	KindSwitch
	KindSlider
	KindSelect
)

func (k EntityKind) String() string {
	switch k {
	case KindSensor:
		return "sensor"
	case KindSwitch:
		return "switch"
	case KindSlider:
		return "slider"
	case KindSelect:
		return "select"
	default:
		return "unknown"
	}
}

type EnableMode uint8

const (
	EnableOn EnableMode = iota
	EnableOff
	EnableAuto
)

// SourcePath locates an entity value inside a telemetry frame: the frame
// namespace plus a dot-separated field path inside that namespace.
type SourcePath struct {
	Namespace string
	Field     string
}

func (p SourcePath) String() string {
	return fmt.Sprintf("%s.%s", p.Namespace, p.Field)
}

// ParseSourcePath splits "bms_bmsStatus.soc" into namespace "bms_bmsStatus"
// and field path "soc". The field path may itself contain dots.
func ParseSourcePath(source string) (SourcePath, error) {
	idx := strings.Index(source, ".")
	if idx <= 0 || idx == len(source)-1 {
		return SourcePath{}, fmt.Errorf("invalid source path %q: expected namespace.field", source)
	}
	return SourcePath{
		Namespace: source[:idx],
		Field:     source[idx+1:],
	}, nil
}

// NumericRange is the slider constraint. Bounds are inclusive.
type NumericRange struct {
	Min  float64
	Max  float64
	Step float64
}

func (r NumericRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

func (r NumericRange) String() string {
	return fmt.Sprintf("[%g,%g]", r.Min, r.Max)
}

// SelectOption maps a user-facing label to the device-side code.
// Order matters: it is the order options are presented in.
type SelectOption struct {
	Label string
	Code  int64
}

type EntityDefinition struct {
	Id      string
	Name    string
	Kind    EntityKind
	Source  SourcePath
	Enabled EnableMode

	// FieldKey identifies the physical device field this entity writes.
	// Entities sharing a FieldKey have their writes serialized against
	// each other. Defaults to Source.String() at profile load.
	FieldKey string

	// Command is present for switch/slider/select, nil for sensors.
	Command *CommandTemplate

	// Range is present for sliders, Options for selects.
	Range   *NumericRange
	Options []SelectOption

	// PackIndex is the slave battery pack index bound from a pattern
	// namespace at activation time. Zero for main-unit entities.
	PackIndex int

	Display Display
}

// Display carries presentation metadata used for MQTT discovery.
type Display struct {
	DeviceClass    string
	StateClass     string
	Unit           string
	Icon           string
	EntityCategory string
	Decimals       uint
}

// Writable reports whether the entity accepts value writes at all.
func (d *EntityDefinition) Writable() bool {
	return d.Kind != KindSensor
}

// LabelFor returns the select label for a device code.
func (d *EntityDefinition) LabelFor(code int64) (string, bool) {
	for _, opt := range d.Options {
		if opt.Code == code {
			return opt.Label, true
		}
	}
	return "", false
}

// CodeFor returns the device code for a select label.
func (d *EntityDefinition) CodeFor(label string) (int64, bool) {
	for _, opt := range d.Options {
		if opt.Label == label {
			return opt.Code, true
		}
	}
	return 0, false
}

func (d *EntityDefinition) OptionLabels() []string {
	labels := make([]string, 0, len(d.Options))
	for _, opt := range d.Options {
		labels = append(labels, opt.Label)
	}
	return labels
}
