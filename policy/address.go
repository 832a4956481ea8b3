package policy

import (
	"fmt"
	"net/netip"
)

// Address is a CIDR prefix with the symbolic token it was expanded from and
// an optional free-text annotation, both carried through address arithmetic
// so rendered output can explain where a prefix came from.
type Address struct {
	Prefix netip.Prefix

	// Token names the symbolic group the naming service expanded this
	// prefix from, if any.
	Token string

	// Annotation is free text attached by the policy author.
	Annotation string
}

// ParseAddress parses a CIDR string into an Address. A bare IP is accepted
// and treated as a host prefix.
func ParseAddress(s, token, annotation string) (Address, error) {
	p, err := netip.ParsePrefix(s)
	if err != nil {
		addr, aerr := netip.ParseAddr(s)
		if aerr != nil {
			return Address{}, fmt.Errorf("parse address %q: %w", s, err)
		}
		p = netip.PrefixFrom(addr, addr.BitLen())
	}
	return Address{Prefix: p.Masked(), Token: token, Annotation: annotation}, nil
}

// Version returns 4 or 6.
func (a Address) Version() int {
	if a.Prefix.Addr().Is4() {
		return 4
	}
	return 6
}

// IsAll reports whether the address covers its entire family
// (0.0.0.0/0 or ::/0).
func (a Address) IsAll() bool {
	return a.Prefix.Bits() == 0
}

func (a Address) String() string {
	return a.Prefix.String()
}

// AllIPs returns the whole-family wildcard for the given IP version.
func AllIPs(version int) Address {
	if version == 6 {
		return Address{Prefix: netip.PrefixFrom(netip.IPv6Unspecified(), 0)}
	}
	return Address{Prefix: netip.PrefixFrom(netip.IPv4Unspecified(), 0)}
}

// OfVersion returns the addresses of the given IP version, preserving order.
func OfVersion(addrs []Address, version int) []Address {
	var out []Address
	for _, a := range addrs {
		if a.Version() == version {
			out = append(out, a)
		}
	}
	return out
}
