// Package ipaddr provides IPv4 address, range and CIDR arithmetic.
package ipaddr

import (
	"encoding/binary"
	"fmt"
	"net"
	"sort"
	"strings"
)

// Addr is an IPv4 address held as a 32-bit unsigned integer, so ordering
// and offset math work with native operators.
type Addr uint32

// ParseAddr parses a dotted-quad IPv4 address.
func ParseAddr(s string) (Addr, error) {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return 0, fmt.Errorf("invalid IPv4 address %q", s)
	}
	v4 := ip.To4()
	if v4 == nil {
		return 0, fmt.Errorf("not an IPv4 address %q", s)
	}
	return Addr(binary.BigEndian.Uint32(v4)), nil
}

// String returns the dotted-quad form.
func (a Addr) String() string {
	ip := make(net.IP, net.IPv4len)
	binary.BigEndian.PutUint32(ip, uint32(a))
	return ip.String()
}

// Add returns the address offset by n.
func (a Addr) Add(n uint32) Addr {
	return a + Addr(n)
}

// Range is an inclusive span of IPv4 addresses.
type Range struct {
	First Addr
	Last  Addr
}

// NewRange builds a Range, swapping the bounds if given out of order.
func NewRange(first, last Addr) Range {
	if last < first {
		first, last = last, first
	}
	return Range{First: first, Last: last}
}

// ParseRange parses a single address, a "first-last" pair (spaces around
// the dash allowed) or CIDR notation into a Range.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		c, err := ParseCIDR(s)
		if err != nil {
			return Range{}, err
		}
		return c.Range(), nil
	}
	if i := strings.Index(s, "-"); i >= 0 {
		first, err := ParseAddr(s[:i])
		if err != nil {
			return Range{}, fmt.Errorf("invalid range %q: %w", s, err)
		}
		last, err := ParseAddr(s[i+1:])
		if err != nil {
			return Range{}, fmt.Errorf("invalid range %q: %w", s, err)
		}
		if last < first {
			return Range{}, fmt.Errorf("invalid range %q: bounds out of order", s)
		}
		return Range{First: first, Last: last}, nil
	}
	a, err := ParseAddr(s)
	if err != nil {
		return Range{}, err
	}
	return Range{First: a, Last: a}, nil
}

// Len returns the number of addresses in the range.
func (r Range) Len() uint64 {
	return uint64(r.Last) - uint64(r.First) + 1
}

// Contains reports whether a falls inside the range.
func (r Range) Contains(a Addr) bool {
	return a >= r.First && a <= r.Last
}

// Overlaps reports whether the two ranges share at least one address.
func (r Range) Overlaps(o Range) bool {
	return r.First <= o.Last && o.First <= r.Last
}

// String renders a single-address range as the bare address and anything
// wider as "first - last". Out-of-order bounds are rendered swapped.
func (r Range) String() string {
	first, last := r.First, r.Last
	if last < first {
		first, last = last, first
	}
	if first == last {
		return first.String()
	}
	return first.String() + " - " + last.String()
}

// CIDR is an IPv4 network in prefix notation.
type CIDR struct {
	base Addr
	bits int
}

// ParseCIDR parses IPv4 prefix notation. Host bits are masked off, so
// "10.0.0.5/24" yields the 10.0.0.0/24 block.
func ParseCIDR(s string) (CIDR, error) {
	ip, ipnet, err := net.ParseCIDR(strings.TrimSpace(s))
	if err != nil {
		return CIDR{}, fmt.Errorf("invalid CIDR %q", s)
	}
	if ip.To4() == nil {
		return CIDR{}, fmt.Errorf("not an IPv4 CIDR %q", s)
	}
	bits, _ := ipnet.Mask.Size()
	return CIDR{base: Addr(binary.BigEndian.Uint32(ipnet.IP.To4())), bits: bits}, nil
}

// First returns the network address.
func (c CIDR) First() Addr {
	return c.base
}

// Last returns the highest address in the block.
func (c CIDR) Last() Addr {
	return Addr(uint64(c.base) + c.Size() - 1)
}

// Size returns the number of addresses in the block.
func (c CIDR) Size() uint64 {
	return 1 << (32 - c.bits)
}

// Bits returns the prefix length.
func (c CIDR) Bits() int {
	return c.bits
}

// Range returns the block as an inclusive Range.
func (c CIDR) Range() Range {
	return Range{First: c.First(), Last: c.Last()}
}

// String returns prefix notation.
func (c CIDR) String() string {
	return fmt.Sprintf("%s/%d", c.base.String(), c.bits)
}

// Merge sorts ranges by first address and coalesces entries that overlap
// or sit directly adjacent. The result is sorted, disjoint and
// non-adjacent; the input slice is left untouched.
func Merge(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].First == sorted[j].First {
			return sorted[i].Last < sorted[j].Last
		}
		return sorted[i].First < sorted[j].First
	})

	merged := sorted[:1]
	for _, r := range sorted[1:] {
		prev := &merged[len(merged)-1]
		// prev.Last+1 wraps at the top of the address space; the overlap
		// clause already covers that case.
		if r.First <= prev.Last || r.First == prev.Last+1 {
			if r.Last > prev.Last {
				prev.Last = r.Last
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}
