// Package planner runs the full manifest-to-cloud-config pipeline:
// parse, resolve, allocate, render, record.
package planner

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/martinsuchenak/netgen/internal/cloudconfig"
	"github.com/martinsuchenak/netgen/internal/log"
	"github.com/martinsuchenak/netgen/internal/manifest"
	"github.com/martinsuchenak/netgen/internal/model"
	"github.com/martinsuchenak/netgen/internal/netspace"
)

// Summary reports what a manifest would produce without producing it.
type Summary struct {
	Networks int `json:"networks"`
	Subnets  int `json:"subnets"`
}

// Generate runs the pipeline over raw manifest bytes and returns the
// plan record, ready to persist. Source labels where the manifest came
// from (a file path, "api" or "mcp").
func Generate(raw []byte, source string) (*model.Plan, error) {
	m, err := manifest.Parse(raw)
	if err != nil {
		return nil, err
	}
	networks, subnetCount, err := allocate(m)
	if err != nil {
		return nil, err
	}
	output, err := cloudconfig.Render(networks)
	if err != nil {
		return nil, err
	}

	digest := blake2b.Sum256(raw)
	return &model.Plan{
		ID:        newPlanID(),
		CreatedAt: time.Now().UTC(),
		Source:    source,
		Digest:    hex.EncodeToString(digest[:]),
		Networks:  len(networks),
		Subnets:   subnetCount,
		Manifest:  string(raw),
		Output:    string(output),
	}, nil
}

// Validate runs parse and allocation without rendering or recording
// anything.
func Validate(raw []byte) (*Summary, error) {
	m, err := manifest.Parse(raw)
	if err != nil {
		return nil, err
	}
	networks, subnetCount, err := allocate(m)
	if err != nil {
		return nil, err
	}
	return &Summary{Networks: len(networks), Subnets: subnetCount}, nil
}

func allocate(m *manifest.Manifest) ([]model.ResolvedNetwork, int, error) {
	specs, requests, err := m.Resolve()
	if err != nil {
		return nil, 0, err
	}

	log.Debug("Preparing subnets", "count", len(specs))
	spaces := make([]*netspace.Space, 0, len(specs))
	for _, spec := range specs {
		space, err := netspace.NewSpace(spec)
		if err != nil {
			return nil, 0, err
		}
		log.Debug("Prepared subnet",
			"range", spec.CIDR.String(),
			"gateway", space.Gateway().String(),
			"available", space.Remaining())
		spaces = append(spaces, space)
	}

	networks, err := netspace.NewAllocator(spaces).Run(requests)
	if err != nil {
		return nil, 0, err
	}
	for _, n := range networks {
		log.Debug("Resolved network", "name", n.Name)
	}
	return networks, len(specs), nil
}

// newPlanID prefers time-ordered IDs so plan listings sort naturally.
func newPlanID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
