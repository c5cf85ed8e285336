package domain

// TelemetryFrame is one incoming partial update for a namespace. Fields is
// a sparse nested structure: keys absent from a frame keep their previously
// reported values.
type TelemetryFrame struct {
	Namespace string         `json:"namespace"`
	Fields    map[string]any `json:"fields"`
}
