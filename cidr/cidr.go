// Package cidr implements the prefix arithmetic shared by every renderer:
// collapsing address lists, computing CIDR set-differences for targets with
// no native exclude syntax, minimizing include/exclude pairs for targets
// with one, and classifying which IP versions flow through a term.
package cidr

import (
	"net/netip"
	"sort"
	"strings"

	"grimm.is/aclforge/policy"
)

// Contains reports strict CIDR containment: every address of inner lies
// within outer. Equal prefixes contain each other.
func Contains(outer, inner netip.Prefix) bool {
	return outer.Bits() <= inner.Bits() && outer.Contains(inner.Addr())
}

// samePrefix is exact equality: same network address and same length.
func samePrefix(a, b netip.Prefix) bool {
	return a.Bits() == b.Bits() && a.Addr() == b.Addr()
}

// sortKey orders prefixes by version, then network address, then length,
// which places supernets immediately before their subnets.
func less(a, b policy.Address) bool {
	av, bv := a.Version(), b.Version()
	if av != bv {
		return av < bv
	}
	if c := a.Prefix.Addr().Compare(b.Prefix.Addr()); c != 0 {
		return c < 0
	}
	return a.Prefix.Bits() < b.Prefix.Bits()
}

// mergeAnnotation folds the subsumed address's annotation into the survivor
// so collapsing never loses authored context.
func mergeAnnotation(dst *policy.Address, src policy.Address) {
	if src.Annotation == "" || strings.Contains(dst.Annotation, src.Annotation) {
		return
	}
	if dst.Annotation == "" {
		dst.Annotation = src.Annotation
		return
	}
	dst.Annotation += ", " + src.Annotation
}

// next returns the prefix numerically following p at the same length, and
// false when p is the last prefix of its family.
func next(p netip.Prefix) (netip.Prefix, bool) {
	addr := lastAddr(p).Next()
	if !addr.IsValid() {
		return netip.Prefix{}, false
	}
	return netip.PrefixFrom(addr, p.Bits()), true
}

// lastAddr returns the highest address covered by p.
func lastAddr(p netip.Prefix) netip.Addr {
	a := p.Addr().As16()
	bits := p.Bits()
	if p.Addr().Is4() {
		bits += 96
	}
	for i := bits; i < 128; i++ {
		a[i/8] |= 0x80 >> (i % 8)
	}
	addr := netip.AddrFrom16(a)
	if p.Addr().Is4() {
		addr = addr.Unmap()
	}
	return addr
}

// supernet returns the prefix one bit shorter that covers p.
func supernet(p netip.Prefix) netip.Prefix {
	return netip.PrefixFrom(p.Addr(), p.Bits()-1).Masked()
}

// Collapse sorts the list and repeatedly merges contained prefixes and
// aligned adjacent siblings until no further merge applies, returning the
// minimal list covering exactly the same addresses. Annotations of merged
// entries are folded into the survivor.
func Collapse(addrs []policy.Address) []policy.Address {
	if len(addrs) == 0 {
		return nil
	}
	work := make([]policy.Address, len(addrs))
	copy(work, addrs)
	sort.SliceStable(work, func(i, j int) bool { return less(work[i], work[j]) })

	for {
		out := work[:0:0]
		merged := false
		for _, cur := range work {
			if len(out) == 0 {
				out = append(out, cur)
				continue
			}
			last := &out[len(out)-1]
			switch {
			case last.Version() == cur.Version() && Contains(last.Prefix, cur.Prefix):
				mergeAnnotation(last, cur)
				merged = true
			case canJoin(*last, cur):
				joined := *last
				joined.Prefix = supernet(last.Prefix)
				mergeAnnotation(&joined, cur)
				out[len(out)-1] = joined
				merged = true
			default:
				out = append(out, cur)
			}
		}
		work = out
		if !merged {
			return work
		}
	}
}

// canJoin reports whether a and b are sibling halves of one supernet.
func canJoin(a, b policy.Address) bool {
	if a.Version() != b.Version() || a.Prefix.Bits() != b.Prefix.Bits() || a.Prefix.Bits() == 0 {
		return false
	}
	n, ok := next(a.Prefix)
	if !ok || n.Addr() != b.Prefix.Addr() {
		return false
	}
	// The pair only joins when a is the low half: the supernet of a must
	// start at a itself.
	return supernet(a.Prefix).Addr() == a.Prefix.Addr()
}

// remove subtracts one prefix from a prefix, returning the covering set of
// what is left. Disjoint prefixes come back unchanged; full containment
// returns nothing; partial overlap splits into remaining sub-prefixes.
func remove(from policy.Address, ex netip.Prefix) []policy.Address {
	if from.Version() != versionOf(ex) || !from.Prefix.Overlaps(ex) {
		return []policy.Address{from}
	}
	if Contains(ex, from.Prefix) {
		return nil
	}
	// ex is strictly inside from: bisect from until we reach ex, keeping
	// the halves that do not contain it.
	var out []policy.Address
	cur := from.Prefix
	for cur.Bits() < ex.Bits() {
		low := netip.PrefixFrom(cur.Addr(), cur.Bits()+1)
		high, _ := next(low)
		if low.Contains(ex.Addr()) {
			out = append(out, policy.Address{Prefix: high, Token: from.Token, Annotation: from.Annotation})
			cur = low
		} else {
			out = append(out, policy.Address{Prefix: low, Token: from.Token, Annotation: from.Annotation})
			cur = high
		}
	}
	return out
}

func versionOf(p netip.Prefix) int {
	if p.Addr().Is4() {
		return 4
	}
	return 6
}

// Exclude computes the CIDR set-difference include minus exclude as a
// minimal set of covering prefixes. Both inputs are collapsed first and the
// result is collapsed, so the output is canonical regardless of input order.
func Exclude(include, exclude []policy.Address) []policy.Address {
	result := Collapse(include)
	for _, ex := range Collapse(exclude) {
		var kept []policy.Address
		for _, in := range result {
			kept = append(kept, remove(in, ex.Prefix)...)
		}
		result = kept
	}
	return Collapse(result)
}

// Minimize reduces an include/exclude pair for targets with native "except"
// syntax. An include with an exact match in the excludes cancels out and is
// dropped; an exclude not contained in any surviving include is implied by
// the target's default-deny of unlisted space and is dropped as redundant.
// The relative order of both input lists is preserved.
func Minimize(include, exclude []policy.Address) (inc, exc []policy.Address) {
	for _, in := range include {
		cancelled := false
		for _, ex := range exclude {
			if in.Version() == ex.Version() && samePrefix(in.Prefix, ex.Prefix) {
				cancelled = true
				break
			}
		}
		if !cancelled {
			inc = append(inc, in)
		}
	}
	for _, ex := range exclude {
		for _, in := range inc {
			if in.Version() == ex.Version() && Contains(in.Prefix, ex.Prefix) {
				exc = append(exc, ex)
				break
			}
		}
	}
	return inc, exc
}
