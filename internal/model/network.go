package model

// NetworkRequest asks for a contiguous block of addresses for one named
// network.
type NetworkRequest struct {
	Name   string
	Size   int    // total addresses, must be > 0
	Static int    // leading addresses published as static, 0 <= Static <= Size
	Type   string // network type for the output, empty means "manual"
}

// SubnetConfig is one fully expanded subnet entry of a resolved network.
// All address data is string-formatted for the orchestrator.
type SubnetConfig struct {
	AZs             []string               `yaml:"azs,omitempty" json:"azs,omitempty"`
	CloudProperties map[string]interface{} `yaml:"cloud_properties,omitempty" json:"cloud_properties,omitempty"`
	DNS             []string               `yaml:"dns,omitempty" json:"dns,omitempty"`
	Gateway         string                 `yaml:"gateway" json:"gateway"`
	Range           string                 `yaml:"range" json:"range"`
	Reserved        []string               `yaml:"reserved,omitempty" json:"reserved,omitempty"`
	Static          []string               `yaml:"static,omitempty" json:"static,omitempty"`
}

// ResolvedNetwork is the output record for one network request.
type ResolvedNetwork struct {
	Name    string         `yaml:"name" json:"name"`
	Subnets []SubnetConfig `yaml:"subnets" json:"subnets"`
	Type    string         `yaml:"type" json:"type"`
}
