package ipaddr

import (
	"testing"

	"pgregory.net/rapid"
)

func mustAddr(t *testing.T, s string) Addr {
	t.Helper()
	a, err := ParseAddr(s)
	if err != nil {
		t.Fatalf("ParseAddr(%q) failed: %v", s, err)
	}
	return a
}

func TestParseAddr(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "simple", input: "192.168.123.1", want: "192.168.123.1"},
		{name: "zero", input: "0.0.0.0", want: "0.0.0.0"},
		{name: "broadcast", input: "255.255.255.255", want: "255.255.255.255"},
		{name: "surrounding whitespace", input: " 10.0.0.1 ", want: "10.0.0.1"},
		{name: "not an address", input: "bogus", wantErr: true},
		{name: "ipv6 rejected", input: "fe80::1", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAddr(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q, got %v", tt.input, a)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAddr(%q) failed: %v", tt.input, err)
			}
			if a.String() != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, a.String())
			}
		})
	}
}

func TestAddrOrdering(t *testing.T) {
	low := mustAddr(t, "192.168.123.1")
	high := mustAddr(t, "192.168.123.200")

	if low >= high {
		t.Errorf("Expected %v < %v", low, high)
	}
	if got := low.Add(199); got != high {
		t.Errorf("Expected %v, got %v", high, got)
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantFirst string
		wantLast  string
		wantErr   bool
	}{
		{name: "single address", input: "192.168.123.7", wantFirst: "192.168.123.7", wantLast: "192.168.123.7"},
		{name: "dashed pair", input: "192.168.123.1-192.168.123.5", wantFirst: "192.168.123.1", wantLast: "192.168.123.5"},
		{name: "spaced dash", input: "192.168.123.1 - 192.168.123.5", wantFirst: "192.168.123.1", wantLast: "192.168.123.5"},
		{name: "cidr", input: "10.1.2.0/30", wantFirst: "10.1.2.0", wantLast: "10.1.2.3"},
		{name: "bounds out of order", input: "192.168.123.5 - 192.168.123.1", wantErr: true},
		{name: "bad first", input: "x - 192.168.123.5", wantErr: true},
		{name: "bad last", input: "192.168.123.1 - y", wantErr: true},
		{name: "bad cidr", input: "10.1.2.0/99", wantErr: true},
		{name: "garbage", input: "not-a-range", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRange(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q, got %v", tt.input, r)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRange(%q) failed: %v", tt.input, err)
			}
			if r.First.String() != tt.wantFirst || r.Last.String() != tt.wantLast {
				t.Errorf("Expected [%s, %s], got [%s, %s]", tt.wantFirst, tt.wantLast, r.First, r.Last)
			}
		})
	}
}

func TestRangeString(t *testing.T) {
	tests := []struct {
		name string
		r    Range
		want string
	}{
		{
			name: "single address has no dash",
			r:    Range{First: mustAddr(t, "192.168.123.2"), Last: mustAddr(t, "192.168.123.2")},
			want: "192.168.123.2",
		},
		{
			name: "pair uses spaced dash",
			r:    Range{First: mustAddr(t, "192.168.123.4"), Last: mustAddr(t, "192.168.123.6")},
			want: "192.168.123.4 - 192.168.123.6",
		},
		{
			name: "reversed bounds render swapped",
			r:    Range{First: mustAddr(t, "192.168.123.6"), Last: mustAddr(t, "192.168.123.4")},
			want: "192.168.123.4 - 192.168.123.6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.String(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRangeContains(t *testing.T) {
	r := Range{First: mustAddr(t, "10.0.0.4"), Last: mustAddr(t, "10.0.0.8")}

	for _, s := range []string{"10.0.0.4", "10.0.0.6", "10.0.0.8"} {
		if !r.Contains(mustAddr(t, s)) {
			t.Errorf("Expected %s to contain %s", r, s)
		}
	}
	for _, s := range []string{"10.0.0.3", "10.0.0.9"} {
		if r.Contains(mustAddr(t, s)) {
			t.Errorf("Expected %s not to contain %s", r, s)
		}
	}
}

func TestRangeOverlaps(t *testing.T) {
	base := Range{First: mustAddr(t, "10.0.0.4"), Last: mustAddr(t, "10.0.0.8")}

	tests := []struct {
		name  string
		other Range
		want  bool
	}{
		{name: "identical", other: base, want: true},
		{name: "partial overlap", other: Range{First: mustAddr(t, "10.0.0.7"), Last: mustAddr(t, "10.0.0.12")}, want: true},
		{name: "contained", other: Range{First: mustAddr(t, "10.0.0.5"), Last: mustAddr(t, "10.0.0.6")}, want: true},
		{name: "adjacent below", other: Range{First: mustAddr(t, "10.0.0.1"), Last: mustAddr(t, "10.0.0.3")}, want: false},
		{name: "disjoint above", other: Range{First: mustAddr(t, "10.0.0.20"), Last: mustAddr(t, "10.0.0.30")}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Overlaps(tt.other); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParseCIDR(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantFrst string
		wantLast string
		wantSize uint64
		wantErr  bool
	}{
		{name: "slash24", input: "192.168.123.0/24", wantFrst: "192.168.123.0", wantLast: "192.168.123.255", wantSize: 256},
		{name: "slash30", input: "10.0.0.0/30", wantFrst: "10.0.0.0", wantLast: "10.0.0.3", wantSize: 4},
		{name: "host bits masked", input: "192.168.123.77/24", wantFrst: "192.168.123.0", wantLast: "192.168.123.255", wantSize: 256},
		{name: "slash32", input: "10.0.0.1/32", wantFrst: "10.0.0.1", wantLast: "10.0.0.1", wantSize: 1},
		{name: "ipv6 rejected", input: "fe80::/64", wantErr: true},
		{name: "missing prefix", input: "192.168.123.0", wantErr: true},
		{name: "garbage", input: "nope/24", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseCIDR(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q, got %v", tt.input, c)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCIDR(%q) failed: %v", tt.input, err)
			}
			if c.First().String() != tt.wantFrst {
				t.Errorf("Expected first %s, got %s", tt.wantFrst, c.First())
			}
			if c.Last().String() != tt.wantLast {
				t.Errorf("Expected last %s, got %s", tt.wantLast, c.Last())
			}
			if c.Size() != tt.wantSize {
				t.Errorf("Expected size %d, got %d", tt.wantSize, c.Size())
			}
		})
	}
}

func TestMerge(t *testing.T) {
	mk := func(first, last string) Range {
		return Range{First: mustAddr(t, first), Last: mustAddr(t, last)}
	}

	tests := []struct {
		name  string
		input []Range
		want  []Range
	}{
		{
			name:  "empty",
			input: nil,
			want:  nil,
		},
		{
			name:  "single",
			input: []Range{mk("10.0.0.1", "10.0.0.5")},
			want:  []Range{mk("10.0.0.1", "10.0.0.5")},
		},
		{
			name:  "disjoint stay separate",
			input: []Range{mk("10.0.0.1", "10.0.0.3"), mk("10.0.0.8", "10.0.0.9")},
			want:  []Range{mk("10.0.0.1", "10.0.0.3"), mk("10.0.0.8", "10.0.0.9")},
		},
		{
			name:  "overlapping coalesce",
			input: []Range{mk("10.0.0.1", "10.0.0.5"), mk("10.0.0.4", "10.0.0.9")},
			want:  []Range{mk("10.0.0.1", "10.0.0.9")},
		},
		{
			name:  "adjacent coalesce",
			input: []Range{mk("10.0.0.1", "10.0.0.4"), mk("10.0.0.5", "10.0.0.9")},
			want:  []Range{mk("10.0.0.1", "10.0.0.9")},
		},
		{
			name:  "contained absorbed",
			input: []Range{mk("10.0.0.1", "10.0.0.9"), mk("10.0.0.3", "10.0.0.4")},
			want:  []Range{mk("10.0.0.1", "10.0.0.9")},
		},
		{
			name:  "unsorted input",
			input: []Range{mk("10.0.0.8", "10.0.0.9"), mk("10.0.0.1", "10.0.0.3"), mk("10.0.0.4", "10.0.0.6")},
			want:  []Range{mk("10.0.0.1", "10.0.0.6"), mk("10.0.0.8", "10.0.0.9")},
		},
		{
			name:  "network plus reserved run",
			input: []Range{mk("192.168.123.0", "192.168.123.0"), mk("192.168.123.1", "192.168.123.5")},
			want:  []Range{mk("192.168.123.0", "192.168.123.5")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d ranges, got %d: %v", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Range %d: expected %v, got %v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestMergeLeavesInputUntouched(t *testing.T) {
	input := []Range{
		{First: mustAddr(t, "10.0.0.8"), Last: mustAddr(t, "10.0.0.9")},
		{First: mustAddr(t, "10.0.0.1"), Last: mustAddr(t, "10.0.0.3")},
	}
	orig := make([]Range, len(input))
	copy(orig, input)

	Merge(input)

	for i := range input {
		if input[i] != orig[i] {
			t.Fatalf("Input slot %d changed: expected %v, got %v", i, orig[i], input[i])
		}
	}
}

func TestMergeProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(t, "count")
		input := make([]Range, n)
		for i := range input {
			first := rapid.IntRange(0, 2000).Draw(t, "first")
			span := rapid.IntRange(0, 100).Draw(t, "span")
			input[i] = Range{First: Addr(first), Last: Addr(first + span)}
		}

		merged := Merge(input)

		// Sorted, disjoint and non-adjacent.
		for i := 1; i < len(merged); i++ {
			if merged[i].First <= merged[i-1].Last+1 {
				t.Fatalf("Ranges %v and %v touch or overlap", merged[i-1], merged[i])
			}
		}

		// Membership is preserved in both directions.
		covered := func(ranges []Range, a Addr) bool {
			for _, r := range ranges {
				if r.Contains(a) {
					return true
				}
			}
			return false
		}
		for _, r := range input {
			for a := r.First; ; a++ {
				if !covered(merged, a) {
					t.Fatalf("Address %s lost by merge", a)
				}
				if a == r.Last {
					break
				}
			}
		}
		for _, r := range merged {
			for a := r.First; ; a++ {
				if !covered(input, a) {
					t.Fatalf("Address %s invented by merge", a)
				}
				if a == r.Last {
					break
				}
			}
		}

		// Merging again changes nothing.
		again := Merge(merged)
		if len(again) != len(merged) {
			t.Fatalf("Merge not idempotent: %v vs %v", merged, again)
		}
		for i := range again {
			if again[i] != merged[i] {
				t.Fatalf("Merge not idempotent at %d: %v vs %v", i, merged[i], again[i])
			}
		}
	})
}
