package cidr

import (
	"grimm.is/aclforge/policy"
)

// Flow tags which IP versions appear on the source and destination sides of
// a term. Filter-type policy (inet, inet6, mixed) consults these tags to
// decide whether a term renders unmodified, renders with one family elided,
// or is skipped.
type Flow string

const (
	Flow4        Flow = "4-4"
	Flow6        Flow = "6-6"
	Flow4SrcOnly Flow = "4-src-only"
	Flow4DstOnly Flow = "4-dst-only"
	Flow6SrcOnly Flow = "6-src-only"
	Flow6DstOnly Flow = "6-dst-only"
)

// FlowSet is the set of flow tags present on a term.
type FlowSet map[Flow]bool

// Has reports whether the tag is present.
func (s FlowSet) Has(f Flow) bool { return s[f] }

// CanMatch reports whether any traffic of the given IP version can match:
// both sides must carry that version (a wildcard side carries every version).
func (s FlowSet) CanMatch(version int) bool {
	if version == 6 {
		return s[Flow6]
	}
	return s[Flow4]
}

// ClassifyFlows determines, per IP version, whether source and destination
// both carry addresses of that version, only one side does, or neither. An
// empty address list is a wildcard and counts as carrying both versions.
func ClassifyFlows(src, dst []policy.Address) FlowSet {
	out := make(FlowSet)
	for _, v := range []int{4, 6} {
		srcHas := len(src) == 0 || len(policy.OfVersion(src, v)) > 0
		dstHas := len(dst) == 0 || len(policy.OfVersion(dst, v)) > 0
		switch {
		case srcHas && dstHas:
			if v == 4 {
				out[Flow4] = true
			} else {
				out[Flow6] = true
			}
		case srcHas:
			if v == 4 {
				out[Flow4SrcOnly] = true
			} else {
				out[Flow6SrcOnly] = true
			}
		case dstHas:
			if v == 4 {
				out[Flow4DstOnly] = true
			} else {
				out[Flow6DstOnly] = true
			}
		}
	}
	return out
}
