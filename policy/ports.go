package policy

import (
	"fmt"
	"sort"
)

// PortRange is an inclusive range of transport ports. A single port is the
// range (p, p).
type PortRange struct {
	Lo uint16
	Hi uint16
}

// NewPortRange builds a range, validating low <= high.
func NewPortRange(lo, hi uint16) (PortRange, error) {
	if lo > hi {
		return PortRange{}, fmt.Errorf("invalid port range %d-%d", lo, hi)
	}
	return PortRange{Lo: lo, Hi: hi}, nil
}

// Single reports whether the range covers exactly one port.
func (r PortRange) Single() bool {
	return r.Lo == r.Hi
}

func (r PortRange) String() string {
	if r.Single() {
		return fmt.Sprintf("%d", r.Lo)
	}
	return fmt.Sprintf("%d-%d", r.Lo, r.Hi)
}

// units is the consolidation cost of a range: a lone port costs one unit,
// a true range costs two (most target syntaxes spend two tokens on it).
func (r PortRange) units() int {
	if r.Single() {
		return 1
	}
	return 2
}

// MergePorts collapses the list into the minimal sorted set of ranges
// matching exactly the same ports. Overlapping and immediately adjacent
// ranges are fused.
func MergePorts(ports []PortRange) []PortRange {
	if len(ports) == 0 {
		return nil
	}
	sorted := make([]PortRange, len(ports))
	copy(sorted, ports)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Lo != sorted[j].Lo {
			return sorted[i].Lo < sorted[j].Lo
		}
		return sorted[i].Hi < sorted[j].Hi
	})

	out := []PortRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if r.Lo <= last.Hi || (last.Hi < 65535 && r.Lo == last.Hi+1) {
			if r.Hi > last.Hi {
				last.Hi = r.Hi
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// ConsolidateForBudget buckets ranges into groups whose total unit cost never
// exceeds the budget. Targets that bound how many ports one match clause may
// enumerate (iptables multiport caps at 15 slots, so callers pass 14 to keep
// a trailing range from tipping over) emit one clause per group. The union of
// ports across all groups always equals the union of the input.
func ConsolidateForBudget(ports []PortRange, unitBudget int) [][]PortRange {
	if len(ports) == 0 {
		return nil
	}
	if unitBudget < 2 {
		unitBudget = 2
	}
	var groups [][]PortRange
	var current []PortRange
	used := 0
	for _, r := range ports {
		cost := r.units()
		if used+cost > unitBudget && len(current) > 0 {
			groups = append(groups, current)
			current = nil
			used = 0
		}
		current = append(current, r)
		used += cost
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}
