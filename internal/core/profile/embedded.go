package profile

import (
	_ "embed"
	"fmt"
	"os"
)

//go:embed profiles/delta2.json
var delta2Profile []byte

// Delta2 returns the built-in DELTA 2 profile.
func Delta2() (*Document, error) {
	return Parse(delta2Profile)
}

// LoadFile parses a profile document from a JSON file on disk.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile file: %w", err)
	}
	return Parse(data)
}
