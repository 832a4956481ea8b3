package policy

import (
	"time"
)

// Action is what happens to traffic matching a term.
type Action string

const (
	ActionAccept       Action = "accept"
	ActionDeny         Action = "deny"
	ActionReject       Action = "reject"
	ActionRejectTCPRST Action = "reject-with-tcp-rst"
	ActionNext         Action = "next"
)

// Policy is an ordered sequence of filters. Filter order is preserved in
// rendered output; there are no cross-filter invariants beyond that.
type Policy struct {
	Filters []Filter
}

// Filter pairs a header with its ordered terms. Term order is semantically
// significant: real devices evaluate first-match-wins.
type Filter struct {
	Header Header
	Terms  []Term
}

// Target names one platform a header applies to, the filter name on that
// platform, and any free-form options (address family, filter type, zone
// names) the platform's renderer interprets.
type Target struct {
	Platform string
	Name     string
	Options  []string
}

// Header carries the per-platform targets and comment lines of a filter.
// It is a read-only lookup facade for renderers.
type Header struct {
	Targets []Target
	Comment []string
}

// Platforms returns the platform names this header targets, in declared order.
func (h Header) Platforms() []string {
	names := make([]string, 0, len(h.Targets))
	for _, t := range h.Targets {
		names = append(names, t.Platform)
	}
	return names
}

// HasPlatform reports whether the header targets the named platform.
func (h Header) HasPlatform(platform string) bool {
	for _, t := range h.Targets {
		if t.Platform == platform {
			return true
		}
	}
	return false
}

// FilterName returns the filter name declared for the platform, or "".
func (h Header) FilterName(platform string) string {
	for _, t := range h.Targets {
		if t.Platform == platform {
			return t.Name
		}
	}
	return ""
}

// FilterOptions returns the options declared for the platform, in order.
// The returned slice must not be modified.
func (h Header) FilterOptions(platform string) []string {
	for _, t := range h.Targets {
		if t.Platform == platform {
			return t.Options
		}
	}
	return nil
}

// Term is a single match/action rule. A zero field means "not specified";
// an unspecified match field matches everything.
type Term struct {
	Name    string
	Comment []string
	Owner   string

	Action   Action
	Protocol []string

	SourceAddress      []Address
	SourceExclude      []Address
	DestinationAddress []Address
	DestinationExclude []Address

	SourcePort      []PortRange
	DestinationPort []PortRange

	// SourcePrefix and DestinationPrefix name router prefix-lists resolved
	// on the device, not expanded by the compiler.
	SourcePrefix      []string
	DestinationPrefix []string

	ICMPType []string
	Options  []string

	// Logging targets; "local" renders as device-local logging, anything
	// else as syslog where the platform distinguishes.
	Logging []string

	Counter         string
	Policer         string
	QoS             string
	LossPriority    string
	RoutingInstance string

	// Expiration is zero when the term never expires.
	Expiration time.Time

	// Platform and PlatformExclude override the header's applicability
	// for this term only.
	Platform        []string
	PlatformExclude []string

	// Verbatim maps a platform name to raw output emitted in place of any
	// translation for that platform.
	Verbatim map[string]string
}

// AppliesTo reports whether the term should be rendered for the platform,
// honoring the term-level platform and platform_exclude overrides.
func (t Term) AppliesTo(platform string) bool {
	if len(t.Platform) > 0 {
		found := false
		for _, p := range t.Platform {
			if p == platform {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, p := range t.PlatformExclude {
		if p == platform {
			return false
		}
	}
	return true
}

// HasOption reports whether the named platform-agnostic flag is set.
func (t Term) HasOption(name string) bool {
	return contains(t.Options, name)
}

// HasMatchCriteria reports whether the term constrains traffic at all. A term
// with no criteria is an unconditional default term; the Juniper renderer
// omits its "from" block entirely.
func (t Term) HasMatchCriteria() bool {
	return len(t.Protocol) > 0 ||
		len(t.SourceAddress) > 0 || len(t.DestinationAddress) > 0 ||
		len(t.SourcePort) > 0 || len(t.DestinationPort) > 0 ||
		len(t.SourcePrefix) > 0 || len(t.DestinationPrefix) > 0 ||
		len(t.ICMPType) > 0 || len(t.Options) > 0
}

// FieldNames returns the keyword name of every non-empty field, in a fixed
// order. Renderers check these against their supported-keyword set so that a
// field the target cannot express fails translation loudly instead of being
// dropped.
func (t Term) FieldNames() []string {
	var names []string
	add := func(set bool, name string) {
		if set {
			names = append(names, name)
		}
	}
	add(len(t.Comment) > 0, "comment")
	add(t.Owner != "", "owner")
	add(t.Action != "", "action")
	add(len(t.Protocol) > 0, "protocol")
	add(len(t.SourceAddress) > 0, "source_address")
	add(len(t.SourceExclude) > 0, "source_address_exclude")
	add(len(t.DestinationAddress) > 0, "destination_address")
	add(len(t.DestinationExclude) > 0, "destination_address_exclude")
	add(len(t.SourcePort) > 0, "source_port")
	add(len(t.DestinationPort) > 0, "destination_port")
	add(len(t.SourcePrefix) > 0, "source_prefix")
	add(len(t.DestinationPrefix) > 0, "destination_prefix")
	add(len(t.ICMPType) > 0, "icmp_type")
	add(len(t.Options) > 0, "option")
	add(len(t.Logging) > 0, "logging")
	add(t.Counter != "", "counter")
	add(t.Policer != "", "policer")
	add(t.QoS != "", "qos")
	add(t.LossPriority != "", "loss_priority")
	add(t.RoutingInstance != "", "routing_instance")
	add(!t.Expiration.IsZero(), "expiration")
	add(len(t.Platform) > 0, "platform")
	add(len(t.PlatformExclude) > 0, "platform_exclude")
	add(len(t.Verbatim) > 0, "verbatim")
	return names
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
