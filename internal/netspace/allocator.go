package netspace

import (
	"fmt"

	"github.com/martinsuchenak/netgen/internal/ipaddr"
	"github.com/martinsuchenak/netgen/internal/model"
)

// DefaultNetworkType is used when a request does not name a type.
const DefaultNetworkType = "manual"

// Allocator binds network requests to address blocks in request order.
// Spaces are consumed strictly in order: once the allocator moves past a
// space it never returns to it, even if a later, smaller request would
// still fit there.
type Allocator struct {
	spaces  []*Space
	current int
}

// NewAllocator builds an allocator over spaces in the given order.
func NewAllocator(spaces []*Space) *Allocator {
	return &Allocator{spaces: spaces}
}

// Run resolves every request into a fully expanded network. Any error
// aborts the whole run; callers never see partial output.
func (a *Allocator) Run(requests []model.NetworkRequest) ([]model.ResolvedNetwork, error) {
	if len(a.spaces) == 0 {
		return nil, fmt.Errorf("%w: no subnets defined", ErrInvalidSubnet)
	}

	seen := make(map[string]struct{}, len(requests))
	networks := make([]model.ResolvedNetwork, 0, len(requests))
	for _, req := range requests {
		if err := validateRequest(req, seen); err != nil {
			return nil, err
		}
		seen[req.Name] = struct{}{}

		space, err := a.advance(req)
		if err != nil {
			return nil, err
		}
		block, err := space.Allocate(req.Size)
		if err != nil {
			return nil, fmt.Errorf("network %q: %w", req.Name, err)
		}
		networks = append(networks, resolve(req, space, block))
	}
	return networks, nil
}

// validateRequest is checked before any allocation is attempted for the
// request, so a bad request never consumes addresses.
func validateRequest(req model.NetworkRequest, seen map[string]struct{}) error {
	if req.Name == "" {
		return fmt.Errorf("%w: network name is required", ErrInvalidRequest)
	}
	if _, dup := seen[req.Name]; dup {
		return fmt.Errorf("%w: duplicate network name %q", ErrInvalidRequest, req.Name)
	}
	if req.Size <= 0 {
		return fmt.Errorf("%w: network %q: size must be positive, got %d", ErrInvalidRequest, req.Name, req.Size)
	}
	if req.Static < 0 {
		return fmt.Errorf("%w: network %q: static count must not be negative, got %d", ErrInvalidRequest, req.Name, req.Static)
	}
	if req.Static > req.Size {
		return fmt.Errorf("%w: network %q: static count %d exceeds size %d", ErrInvalidRequest, req.Name, req.Static, req.Size)
	}
	return nil
}

// advance returns the first space, from the current one onward, with
// room for the request. Each step forward is permanent.
func (a *Allocator) advance(req model.NetworkRequest) (*Space, error) {
	for a.current < len(a.spaces) {
		if a.spaces[a.current].Remaining() >= req.Size {
			return a.spaces[a.current], nil
		}
		a.current++
	}
	return nil, fmt.Errorf("%w: network %q needs %d addresses, no subnet has room left",
		ErrCapacityExceeded, req.Name, req.Size)
}

// resolve expands one allocated block into its output record. The block
// minus the static head is the dynamic remainder, which stays implicit:
// the orchestrator infers it from range, reserved and static.
func resolve(req model.NetworkRequest, space *Space, block ipaddr.Range) model.ResolvedNetwork {
	spec := space.Spec()

	subnet := model.SubnetConfig{
		AZs:             spec.AZs,
		CloudProperties: spec.CloudProperties,
		DNS:             spec.DNS,
		Gateway:         space.Gateway().String(),
		Range:           spec.CIDR.String(),
		Reserved:        formatRanges(reservedFor(space, block)),
	}
	if req.Static > 0 {
		static := ipaddr.Range{First: block.First, Last: block.First.Add(uint32(req.Static) - 1)}
		subnet.Static = []string{static.String()}
	}

	netType := req.Type
	if netType == "" {
		netType = DefaultNetworkType
	}
	return model.ResolvedNetwork{
		Name:    req.Name,
		Subnets: []model.SubnetConfig{subnet},
		Type:    netType,
	}
}

// reservedFor merges the block's complement within the subnet with the
// space's pre-reserved runs. Explicit reserved ranges above the cursor
// are not skipped during allocation, so they can overlap a block; they
// still render as reserved here.
func reservedFor(space *Space, block ipaddr.Range) []ipaddr.Range {
	subnet := space.Block()
	runs := space.Reserved()
	if block.First > subnet.First {
		runs = append(runs, ipaddr.Range{First: subnet.First, Last: block.First - 1})
	}
	if block.Last < subnet.Last {
		runs = append(runs, ipaddr.Range{First: block.Last + 1, Last: subnet.Last})
	}
	return ipaddr.Merge(runs)
}

func formatRanges(ranges []ipaddr.Range) []string {
	if len(ranges) == 0 {
		return nil
	}
	out := make([]string, len(ranges))
	for i, r := range ranges {
		out[i] = r.String()
	}
	return out
}
