package profile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/berfenger/ecoflow2mqtt/internal/core/domain"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var profileSchema string

// Document is the declarative device profile as authored in JSON. It is the
// single source of truth for which entities exist, where their values come
// from in telemetry, and how writes are shaped into device commands.
type Document struct {
	Device   DeviceInfo    `json:"device"`
	Entities []Declaration `json:"entities"`
}

type DeviceInfo struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Name         string `json:"name"`
}

// Declaration is one entity as declared in the profile. Ids, names and
// source namespaces may contain the "{n}" pattern marker; such entities are
// materialized lazily when a matching namespace shows up in telemetry.
type Declaration struct {
	Id       string       `json:"id"`
	Name     string       `json:"name"`
	Kind     string       `json:"kind"`
	Source   string       `json:"source"`
	Enabled  string       `json:"enabled,omitempty"` // "", "disabled" or "auto"
	FieldKey string       `json:"fieldKey,omitempty"`
	Command  *CommandSpec `json:"command,omitempty"`

	Min     *float64     `json:"min,omitempty"`
	Max     *float64     `json:"max,omitempty"`
	Step    *float64     `json:"step,omitempty"`
	Options []OptionSpec `json:"options,omitempty"`

	DeviceClass string `json:"deviceClass,omitempty"`
	StateClass  string `json:"stateClass,omitempty"`
	Unit        string `json:"unit,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Category    string `json:"category,omitempty"`
	Decimals    uint   `json:"decimals,omitempty"`
}

type CommandSpec struct {
	ModuleType  int            `json:"moduleType"`
	OperateType string         `json:"operateType"`
	ModuleSn    string         `json:"moduleSn,omitempty"`
	Params      map[string]any `json:"params"`
}

type OptionSpec struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// Parse decodes and validates a profile document. Structural validation is
// done against the embedded JSON schema, then the semantic rules the schema
// cannot express are checked. Any violation makes the profile unusable and
// must abort startup.
func Parse(data []byte) (*Document, error) {
	schema, err := jsonschema.CompileString("profile.schema.json", profileSchema)
	if err != nil {
		return nil, fmt.Errorf("profile schema: %w", err)
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("profile is not valid JSON: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("profile does not match schema: %w", err)
	}

	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	normalizeNumbers(&doc)

	if err := checkSemantics(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// normalizeNumbers converts json.Number command params to int64 when they
// are integral, so outgoing payloads carry "255", not "255.000000".
func normalizeNumbers(doc *Document) {
	for i := range doc.Entities {
		cmd := doc.Entities[i].Command
		if cmd == nil {
			continue
		}
		for k, v := range cmd.Params {
			num, ok := v.(json.Number)
			if !ok {
				continue
			}
			if iv, err := num.Int64(); err == nil {
				cmd.Params[k] = iv
			} else if fv, err := num.Float64(); err == nil {
				cmd.Params[k] = fv
			}
		}
	}
}

func checkSemantics(doc *Document) error {
	seen := make(map[string]struct{}, len(doc.Entities))
	for i := range doc.Entities {
		decl := &doc.Entities[i]
		if _, dup := seen[decl.Id]; dup {
			return fmt.Errorf("duplicate entity id %q", decl.Id)
		}
		seen[decl.Id] = struct{}{}

		if _, err := domain.ParseSourcePath(decl.Source); err != nil {
			return fmt.Errorf("entity %q: %w", decl.Id, err)
		}
		if isPattern(decl.Source) != isPattern(decl.Id) {
			return fmt.Errorf("entity %q: pattern marker must appear in both id and source", decl.Id)
		}
		if isPattern(decl.Id) && decl.Enabled != "auto" {
			return fmt.Errorf("entity %q: pattern entities must be declared auto", decl.Id)
		}

		switch decl.Kind {
		case "sensor":
			if decl.Command != nil {
				return fmt.Errorf("entity %q: sensors cannot declare a command", decl.Id)
			}
		case "switch":
			if err := checkCommand(decl); err != nil {
				return err
			}
		case "slider":
			if err := checkCommand(decl); err != nil {
				return err
			}
			if decl.Min == nil || decl.Max == nil {
				return fmt.Errorf("entity %q: slider requires min and max", decl.Id)
			}
			if *decl.Min >= *decl.Max {
				return fmt.Errorf("entity %q: slider min %g must be < max %g", decl.Id, *decl.Min, *decl.Max)
			}
			if decl.Step != nil && *decl.Step <= 0 {
				return fmt.Errorf("entity %q: slider step must be > 0", decl.Id)
			}
		case "select":
			if err := checkCommand(decl); err != nil {
				return err
			}
			if len(decl.Options) == 0 {
				return fmt.Errorf("entity %q: select requires options", decl.Id)
			}
			labels := make(map[string]struct{}, len(decl.Options))
			codes := make(map[int64]struct{}, len(decl.Options))
			for _, opt := range decl.Options {
				if _, dup := labels[opt.Label]; dup {
					return fmt.Errorf("entity %q: duplicate option label %q", decl.Id, opt.Label)
				}
				if _, dup := codes[opt.Value]; dup {
					return fmt.Errorf("entity %q: duplicate option code %d", decl.Id, opt.Value)
				}
				labels[opt.Label] = struct{}{}
				codes[opt.Value] = struct{}{}
			}
		default:
			return fmt.Errorf("entity %q: unknown kind %q", decl.Id, decl.Kind)
		}
	}
	return nil
}

func checkCommand(decl *Declaration) error {
	if decl.Command == nil {
		return fmt.Errorf("entity %q: %s requires a command template", decl.Id, decl.Kind)
	}
	n := 0
	for _, v := range decl.Command.Params {
		if s, ok := v.(string); ok && s == domain.Placeholder {
			n++
		}
	}
	if n == 0 {
		return fmt.Errorf("entity %q: command template declares no %q placeholder", decl.Id, domain.Placeholder)
	}
	return nil
}

func isPattern(s string) bool {
	return strings.Contains(s, patternMarker)
}
