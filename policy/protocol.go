package policy

import (
	"fmt"
	"strconv"
	"strings"
)

// ProtocolNumbers maps the symbolic protocol names accepted in policies to
// their IANA protocol numbers.
var ProtocolNumbers = map[string]int{
	"hopopt": 0,
	"icmp":   1,
	"igmp":   2,
	"ggp":    3,
	"ipip":   4,
	"tcp":    6,
	"egp":    8,
	"igp":    9,
	"udp":    17,
	"rdp":    27,
	"ipv6":   41,
	"rsvp":   46,
	"gre":    47,
	"esp":    50,
	"ah":     51,
	"icmpv6": 58,
	"ospf":   89,
	"ipip6":  97,
	"pim":    103,
	"vrrp":   112,
	"l2tp":   115,
	"sctp":   132,
}

// KnownProtocol reports whether the name (or decimal number) is a protocol
// this compiler recognizes.
func KnownProtocol(name string) bool {
	if _, ok := ProtocolNumbers[strings.ToLower(name)]; ok {
		return true
	}
	_, err := strconv.Atoi(name)
	return err == nil
}

// ProtocolToken returns the representation of a protocol for a target:
// the IANA number when numeric is set and the name is known, otherwise the
// lowercased name. Decimal strings pass through unchanged. Unknown names
// also pass through; targets that enforce an allow-list reject them before
// calling this.
func ProtocolToken(name string, numeric bool) string {
	lower := strings.ToLower(name)
	if numeric {
		if n, ok := ProtocolNumbers[lower]; ok {
			return strconv.Itoa(n)
		}
	}
	return lower
}

// ICMPTypes maps symbolic ICMP type names to type numbers, keyed by IP
// version. The two tables are disjoint vocabularies: a name valid for one
// family is an error under the other unless it appears in both.
var ICMPTypes = map[int]map[string]int{
	4: {
		"echo-reply":           0,
		"unreachable":          3,
		"source-quench":        4,
		"redirect":             5,
		"alternate-address":    6,
		"echo-request":         8,
		"router-advertisement": 9,
		"router-solicitation":  10,
		"time-exceeded":        11,
		"parameter-problem":    12,
		"timestamp-request":    13,
		"timestamp-reply":      14,
		"information-request":  15,
		"information-reply":    16,
		"mask-request":         17,
		"mask-reply":           18,
		"conversion-error":     31,
		"mobile-redirect":      32,
	},
	6: {
		"destination-unreachable":                  1,
		"packet-too-big":                           2,
		"time-exceeded":                            3,
		"parameter-problem":                        4,
		"echo-request":                             128,
		"echo-reply":                               129,
		"multicast-listener-query":                 130,
		"multicast-listener-report":                131,
		"multicast-listener-done":                  132,
		"router-solicit":                           133,
		"router-advertisement":                     134,
		"neighbor-solicit":                         135,
		"neighbor-advertisement":                   136,
		"redirect-message":                         137,
		"router-renumbering":                       138,
		"icmp-node-information-query":              139,
		"icmp-node-information-response":           140,
		"inverse-neighbor-discovery-solicitation":  141,
		"inverse-neighbor-discovery-advertisement": 142,
		"version-2-multicast-listener-report":      143,
		"home-agent-address-discovery-request":     144,
		"home-agent-address-discovery-reply":       145,
		"mobile-prefix-solicitation":               146,
		"mobile-prefix-advertisement":              147,
		"certification-path-solicitation":          148,
		"certification-path-advertisement":         149,
		"multicast-router-advertisement":           151,
		"multicast-router-solicitation":            152,
		"multicast-router-termination":             153,
	},
}

// NormalizeICMPTypes maps symbolic ICMP type names to numbers using the
// version-specific table. A nil result with no error means no type names
// were given and any ICMP type matches. Naming ICMP types without the ICMP
// protocol for this version, or naming a type absent from the version's
// table, is an error.
func NormalizeICMPTypes(names, protocols []string, version int) ([]int, error) {
	if len(names) == 0 {
		return nil, nil
	}
	want := "icmp"
	if version == 6 {
		want = "icmpv6"
	}
	if !contains(protocols, want) {
		return nil, fmt.Errorf("icmp-type specified without %s in protocols %v", want, protocols)
	}
	table, ok := ICMPTypes[version]
	if !ok {
		return nil, fmt.Errorf("no icmp-type table for IP version %d", version)
	}
	out := make([]int, 0, len(names))
	for _, name := range names {
		n, ok := table[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("unknown icmp-type %q for IP version %d", name, version)
		}
		out = append(out, n)
	}
	return out, nil
}
