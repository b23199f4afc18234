// Package ranges implements the exclusion range set: inclusive IPv4 intervals
// parsed from CIDR or dash notation, with a membership query that is safe for
// unsynchronized concurrent reads once built.
package ranges

import (
	"encoding/binary"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
)

// Range is an inclusive IPv4 interval with Start <= End.
type Range struct {
	Start uint32
	End   uint32
}

// ParseError describes one malformed exclusion line. Parse errors are
// collected, never thrown: a bad line is skipped and the build continues.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// RangeSet answers IPv4 membership queries against a fixed set of ranges.
// Ranges may overlap and are not merged. The set is immutable after Build.
type RangeSet struct {
	// ranges sorted by Start; maxEnd[i] is the running maximum of End over
	// ranges[0..i], which makes Contains a single binary search even when
	// ranges overlap.
	ranges []Range
	maxEnd []uint32
}

// Build parses textual range specs into a RangeSet.
//
// Accepted forms, one per line:
//
//	a.b.c.d/n      CIDR block, 0 <= n <= 32
//	a.b.c.d-e.f.g.h   inclusive dash range, start <= end
//
// Leading/trailing whitespace is trimmed and anything after the address token
// is ignored as a comment. Blank lines and lines starting with '#' are
// skipped silently.
func Build(lines []string) (*RangeSet, []ParseError) {
	var parsed []Range
	var errs []ParseError

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Trailing comment text: only the first token carries the range.
		if idx := strings.IndexAny(line, " \t"); idx >= 0 {
			line = line[:idx]
		}

		r, err := parseRange(line)
		if err != nil {
			errs = append(errs, ParseError{Line: i + 1, Text: line, Reason: err.Error()})
			continue
		}
		parsed = append(parsed, r)
	}

	sort.Slice(parsed, func(i, j int) bool { return parsed[i].Start < parsed[j].Start })

	maxEnd := make([]uint32, len(parsed))
	var running uint32
	for i, r := range parsed {
		if i == 0 || r.End > running {
			running = r.End
		}
		maxEnd[i] = running
	}

	return &RangeSet{ranges: parsed, maxEnd: maxEnd}, errs
}

func parseRange(spec string) (Range, error) {
	switch {
	case strings.Contains(spec, "/"):
		return parseCIDR(spec)
	case strings.Contains(spec, "-"):
		return parseDash(spec)
	default:
		// A bare address is the degenerate single-address range.
		v, err := ipv4ToUint(spec)
		if err != nil {
			return Range{}, err
		}
		return Range{Start: v, End: v}, nil
	}
}

func parseCIDR(spec string) (Range, error) {
	parts := strings.SplitN(spec, "/", 2)
	base, err := ipv4ToUint(parts[0])
	if err != nil {
		return Range{}, err
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil || n < 0 || n > 32 {
		return Range{}, fmt.Errorf("invalid prefix length %q", parts[1])
	}
	var mask uint32
	if n > 0 {
		mask = ^uint32(0) << (32 - n)
	}
	return Range{Start: base & mask, End: base | ^mask}, nil
}

func parseDash(spec string) (Range, error) {
	parts := strings.SplitN(spec, "-", 2)
	start, err := ipv4ToUint(parts[0])
	if err != nil {
		return Range{}, err
	}
	end, err := ipv4ToUint(parts[1])
	if err != nil {
		return Range{}, err
	}
	if start > end {
		return Range{}, fmt.Errorf("range start exceeds end")
	}
	return Range{Start: start, End: end}, nil
}

func ipv4ToUint(s string) (uint32, error) {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return 0, fmt.Errorf("invalid IPv4 address %q", s)
	}
	v4 := ip.To4()
	if v4 == nil {
		return 0, fmt.Errorf("not an IPv4 address %q", s)
	}
	return binary.BigEndian.Uint32(v4), nil
}

// Contains reports whether ip lies within at least one stored range,
// inclusive on both bounds. Non-IPv4 input is never contained.
// Side-effect free; callable from any number of goroutines without locking.
func (s *RangeSet) Contains(ip net.IP) bool {
	v4 := ip.To4()
	if v4 == nil || len(s.ranges) == 0 {
		return false
	}
	v := binary.BigEndian.Uint32(v4)

	// First range starting beyond v; every candidate lies before it.
	idx := sort.Search(len(s.ranges), func(i int) bool {
		return s.ranges[i].Start > v
	})
	if idx == 0 {
		return false
	}
	return s.maxEnd[idx-1] >= v
}

// ContainsAddr is Contains for a textual host. Hosts that do not parse as an
// IP address are not excludable and report false.
func (s *RangeSet) ContainsAddr(host string) bool {
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return s.Contains(ip)
}

// Len returns the number of stored ranges.
func (s *RangeSet) Len() int {
	return len(s.ranges)
}
