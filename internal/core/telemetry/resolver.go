package telemetry

import "strings"

// Resolve walks a dotted field path through nested telemetry maps and
// returns the value it lands on. The second result is false when any
// intermediate segment is missing or is not a nested object; a stored nil
// is still a present value.
func Resolve(fields map[string]any, path string) (any, bool) {
	if fields == nil || path == "" {
		return nil, false
	}
	segments := strings.Split(path, ".")
	var current any = fields
	for _, seg := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
