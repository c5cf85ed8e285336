package domain

// Placeholder marks a template param that is filled with the validated
// user value at build time. A template may bind the same value to more
// than one param.
const Placeholder = "{value}"

// CommandTemplate is the declarative shape of a device write: fixed module
// routing fields plus a param map where some entries are literals and at
// least one is a Placeholder.
type CommandTemplate struct {
	ModuleType  int
	OperateType string
	ModuleSn    string
	Params      map[string]any
}

// PlaceholderCount returns how many params are bound to the user value.
func (t *CommandTemplate) PlaceholderCount() int {
	n := 0
	for _, v := range t.Params {
		if s, ok := v.(string); ok && s == Placeholder {
			n++
		}
	}
	return n
}

// OutgoingCommand is a fully-substituted device command, immutable once
// built, ready to hand over to the transport.
type OutgoingCommand struct {
	ModuleType  int            `json:"moduleType"`
	OperateType string         `json:"operateType"`
	ModuleSn    string         `json:"moduleSn,omitempty"`
	Params      map[string]any `json:"params"`
}

// CommandRequest is a caller's wish to set an entity to a value. The value
// is raw caller input (string from an MQTT payload, bool, number) and is
// normalized by the validator.
type CommandRequest struct {
	EntityId string
	Value    any
}
