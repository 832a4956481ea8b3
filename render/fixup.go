package render

import (
	"grimm.is/aclforge/policy"
)

// FixHighPorts widens the destination ports of a term carrying the
// "established" or "tcp-established" option. Reply traffic for tcp/udp
// arrives on ephemeral ports, so stateless matching needs 1024-65535 added
// to the destination set. When the term's protocols include anything beyond
// tcp/udp the approximation is meaningless: that is fatal unless the target
// treats every protocol statefully.
//
// The input term is never mutated; the returned term is a shallow copy with
// its own destination-port slice.
func FixHighPorts(t policy.Term, platform string, allProtocolsStateful bool) (policy.Term, error) {
	established := false
	for _, opt := range t.Options {
		if opt == "established" || opt == "tcp-established" {
			established = true
			break
		}
	}
	if !established {
		return t, nil
	}

	statefulOnly := true
	for _, proto := range t.Protocol {
		if proto != "tcp" && proto != "udp" {
			statefulOnly = false
			break
		}
	}
	if len(t.Protocol) == 0 {
		statefulOnly = false
	}

	if statefulOnly {
		ports := make([]policy.PortRange, 0, len(t.DestinationPort)+1)
		ports = append(ports, t.DestinationPort...)
		ports = append(ports, policy.PortRange{Lo: 1024, Hi: 65535})
		t.DestinationPort = policy.MergePorts(ports)
		return t, nil
	}
	if !allProtocolsStateful {
		return policy.Term{}, &UnsupportedFeatureError{
			Platform: platform,
			Feature:  "established option",
			Detail:   "requires tcp or udp protocols in term " + t.Name,
		}
	}
	return t, nil
}
