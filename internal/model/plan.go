package model

import "time"

// Plan is one recorded generation run: the manifest that went in, the
// cloud config that came out and enough metadata to find it again.
type Plan struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Source    string    `json:"source,omitempty"` // file path, "api" or "mcp"
	Digest    string    `json:"digest"`           // BLAKE2b-256 of the manifest bytes
	Networks  int       `json:"networks"`
	Subnets   int       `json:"subnets"`
	Manifest  string    `json:"manifest,omitempty"`
	Output    string    `json:"output,omitempty"`
}

// PlanFilter holds filter criteria for listing plans
type PlanFilter struct {
	Source string // Filter by source (exact match)
	Limit  int    // Maximum number of plans returned, 0 means all
}
