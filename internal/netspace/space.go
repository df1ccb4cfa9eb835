// Package netspace carves contiguous address blocks out of declared
// subnets. A Space tracks a single subnet with a forward-only cursor;
// the Allocator binds an ordered list of network requests to blocks
// across an ordered list of spaces.
package netspace

import (
	"errors"
	"fmt"

	"github.com/martinsuchenak/netgen/internal/ipaddr"
	"github.com/martinsuchenak/netgen/internal/model"
)

var (
	// ErrInvalidSubnet marks a subnet definition the engine cannot use.
	ErrInvalidSubnet = errors.New("invalid subnet")
	// ErrInvalidRequest marks a malformed network request.
	ErrInvalidRequest = errors.New("invalid network request")
	// ErrCapacityExceeded marks a request that no remaining space can satisfy.
	ErrCapacityExceeded = errors.New("capacity exceeded")
)

// minSubnetSize is the smallest block the engine accepts: network
// address, gateway, at least one allocatable address and the excluded
// top address.
const minSubnetSize = 4

// Space hands out addresses from a single subnet. Addresses below the
// cursor are spoken for; addresses from the cursor up to the last usable
// address are free. The cursor never moves backward.
type Space struct {
	spec       model.SubnetSpec
	block      ipaddr.Range
	gateway    ipaddr.Addr
	reserved   []ipaddr.Range // merged pre-reserved runs
	cursor     uint64         // uint64 so an exhausted space cannot wrap
	lastUsable ipaddr.Addr
}

// NewSpace validates spec and prepares its address space. The network
// address, the gateway and any explicit reserved ranges are marked
// reserved up front, and the cursor starts just past the reserved run
// that begins at the bottom of the block. The block's top address is
// never handed out.
func NewSpace(spec model.SubnetSpec) (*Space, error) {
	if spec.CIDR.Size() < minSubnetSize {
		return nil, fmt.Errorf("%w: %s holds %d addresses, need at least %d",
			ErrInvalidSubnet, spec.CIDR, spec.CIDR.Size(), minSubnetSize)
	}
	block := spec.CIDR.Range()

	gateway := block.First.Add(1)
	if spec.Gateway != nil {
		gateway = *spec.Gateway
		if !block.Contains(gateway) {
			return nil, fmt.Errorf("%w: gateway %s outside %s", ErrInvalidSubnet, gateway, spec.CIDR)
		}
	}

	runs := []ipaddr.Range{
		{First: block.First, Last: block.First},
		{First: gateway, Last: gateway},
	}
	for _, r := range spec.Reserved {
		if !block.Contains(r.First) || !block.Contains(r.Last) {
			return nil, fmt.Errorf("%w: reserved range %s outside %s", ErrInvalidSubnet, r, spec.CIDR)
		}
		runs = append(runs, r)
	}
	reserved := ipaddr.Merge(runs)

	// The first merged run starts at the network address by construction,
	// so the cursor lands on the first address it does not cover.
	return &Space{
		spec:       spec,
		block:      block,
		gateway:    gateway,
		reserved:   reserved,
		cursor:     uint64(reserved[0].Last) + 1,
		lastUsable: block.Last - 1,
	}, nil
}

// Allocate reserves the next count addresses as one contiguous block and
// advances the cursor past it. A block is never split across the end of
// the space.
func (s *Space) Allocate(count int) (ipaddr.Range, error) {
	if count <= 0 {
		return ipaddr.Range{}, fmt.Errorf("%w: size must be positive, got %d", ErrInvalidRequest, count)
	}
	end := s.cursor + uint64(count) - 1
	if end > uint64(s.lastUsable) {
		return ipaddr.Range{}, fmt.Errorf("%w: %d addresses requested, %d available in %s",
			ErrCapacityExceeded, count, s.Remaining(), s.spec.CIDR)
	}
	block := ipaddr.Range{First: ipaddr.Addr(s.cursor), Last: ipaddr.Addr(end)}
	s.cursor = end + 1
	return block, nil
}

// Remaining returns how many addresses are still allocatable. It is
// advisory; Allocate re-checks the bounds itself.
func (s *Space) Remaining() int {
	if s.cursor > uint64(s.lastUsable) {
		return 0
	}
	return int(uint64(s.lastUsable) - s.cursor + 1)
}

// Block returns the subnet bounds.
func (s *Space) Block() ipaddr.Range {
	return s.block
}

// Gateway returns the explicit or derived gateway address.
func (s *Space) Gateway() ipaddr.Addr {
	return s.gateway
}

// Reserved returns a copy of the merged pre-reserved runs.
func (s *Space) Reserved() []ipaddr.Range {
	out := make([]ipaddr.Range, len(s.reserved))
	copy(out, s.reserved)
	return out
}

// Cursor returns the next free address. Only meaningful while Remaining
// is positive.
func (s *Space) Cursor() ipaddr.Addr {
	return ipaddr.Addr(s.cursor)
}

// Spec returns the subnet definition this space was built from.
func (s *Space) Spec() model.SubnetSpec {
	return s.spec
}
