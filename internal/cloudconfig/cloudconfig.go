// Package cloudconfig renders resolved networks as an orchestrator
// cloud-config document.
package cloudconfig

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/martinsuchenak/netgen/internal/model"
)

// Document is the emitted top-level structure.
type Document struct {
	Networks []model.ResolvedNetwork `yaml:"networks"`
}

// Render serializes networks with two-space indentation and stable key
// order. An empty input still renders a networks key.
func Render(networks []model.ResolvedNetwork) ([]byte, error) {
	if networks == nil {
		networks = []model.ResolvedNetwork{}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Document{Networks: networks}); err != nil {
		return nil, fmt.Errorf("encoding cloud config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding cloud config: %w", err)
	}
	return buf.Bytes(), nil
}
