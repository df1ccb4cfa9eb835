// Package manifest loads and validates input manifests. It owns all
// string-level validation; the allocation engine only ever sees typed
// records.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/martinsuchenak/netgen/internal/ipaddr"
	"github.com/martinsuchenak/netgen/internal/model"
	"github.com/martinsuchenak/netgen/internal/netspace"
)

// Subnet is the raw YAML shape of one subnet definition.
type Subnet struct {
	Range           string                 `yaml:"range"`
	Gateway         string                 `yaml:"gateway,omitempty"`
	Reserved        []string               `yaml:"reserved,omitempty"`
	AZs             []string               `yaml:"azs,omitempty"`
	DNS             []string               `yaml:"dns,omitempty"`
	CloudProperties map[string]interface{} `yaml:"cloud_properties,omitempty"`
}

// Network is the raw YAML shape of one network request.
type Network struct {
	Name   string `yaml:"name"`
	Size   int    `yaml:"size"`
	Static int    `yaml:"static,omitempty"`
	Type   string `yaml:"type,omitempty"`
}

// Manifest is the parsed input document.
type Manifest struct {
	Subnets  []Subnet  `yaml:"subnets"`
	Networks []Network `yaml:"networks"`
}

// ErrManifest marks failures to read or decode the document itself, as
// opposed to allocation errors caused by its contents.
var ErrManifest = errors.New("bad manifest")

// Parse decodes manifest bytes, rejecting unknown keys.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: manifest is empty", ErrManifest)
		}
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	return &m, nil
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	return Parse(data)
}

// Resolve converts the raw records into typed ones. Every address string
// is parsed here; shape errors carry the engine's error kinds so callers
// handle one taxonomy.
func (m *Manifest) Resolve() ([]model.SubnetSpec, []model.NetworkRequest, error) {
	if len(m.Subnets) == 0 {
		return nil, nil, fmt.Errorf("%w: manifest defines no subnets", netspace.ErrInvalidSubnet)
	}

	subnets := make([]model.SubnetSpec, 0, len(m.Subnets))
	for i, s := range m.Subnets {
		spec, err := s.resolve()
		if err != nil {
			return nil, nil, fmt.Errorf("subnet %d: %w", i+1, err)
		}
		subnets = append(subnets, spec)
	}

	requests := make([]model.NetworkRequest, 0, len(m.Networks))
	for _, n := range m.Networks {
		requests = append(requests, model.NetworkRequest{
			Name:   n.Name,
			Size:   n.Size,
			Static: n.Static,
			Type:   n.Type,
		})
	}
	return subnets, requests, nil
}

func (s Subnet) resolve() (model.SubnetSpec, error) {
	if s.Range == "" {
		return model.SubnetSpec{}, fmt.Errorf("%w: range is required", netspace.ErrInvalidSubnet)
	}
	cidr, err := ipaddr.ParseCIDR(s.Range)
	if err != nil {
		return model.SubnetSpec{}, fmt.Errorf("%w: %v", netspace.ErrInvalidSubnet, err)
	}

	spec := model.SubnetSpec{
		CIDR:            cidr,
		AZs:             s.AZs,
		DNS:             s.DNS,
		CloudProperties: s.CloudProperties,
	}
	if s.Gateway != "" {
		gw, err := ipaddr.ParseAddr(s.Gateway)
		if err != nil {
			return model.SubnetSpec{}, fmt.Errorf("%w: gateway: %v", netspace.ErrInvalidSubnet, err)
		}
		spec.Gateway = &gw
	}
	for _, raw := range s.Reserved {
		r, err := ipaddr.ParseRange(raw)
		if err != nil {
			return model.SubnetSpec{}, fmt.Errorf("%w: reserved: %v", netspace.ErrInvalidSubnet, err)
		}
		spec.Reserved = append(spec.Reserved, r)
	}
	for _, d := range s.DNS {
		if _, err := ipaddr.ParseAddr(d); err != nil {
			return model.SubnetSpec{}, fmt.Errorf("%w: dns: %v", netspace.ErrInvalidSubnet, err)
		}
	}
	return spec, nil
}
