package iptables

import (
	"fmt"
	"strings"

	"grimm.is/aclforge/cidr"
	"grimm.is/aclforge/policy"
	"grimm.is/aclforge/render"
)

// multiport slots are capped at 15 by the kernel module; budgeting 14 keeps
// a trailing range from tipping a group over the limit.
const portUnitBudget = 14

var protoFlags = map[string]string{
	"icmpv6": "-p icmpv6",
	"icmp":   "-p icmp",
	"tcp":    "-p tcp",
	"udp":    "-p udp",
	"all":    "-p all",
	"esp":    "-p esp",
	"ah":     "-p ah",
	"gre":    "-p gre",
}

var tcpFlagNames = []struct {
	option string
	flag   string
}{
	{"syn", "SYN"},
	{"ack", "ACK"},
	{"fin", "FIN"},
	{"rst", "RST"},
	{"urg", "URG"},
	{"psh", "PSH"},
	{"all", "ALL"},
	{"none", "NONE"},
}

var optionMatchers = map[string]string{
	// "! -f" would also match non-fragmented packets, hence the u32 match.
	"first-fragment": "-m u32 --u32 4&0x3FFF=0x2000",
	"initial":        "--syn",
	"tcp-initial":    "--syn",
	"sample":         "",
}

// term is one translated rule, owned by a single renderer instance.
type term struct {
	t          policy.Term
	verbatim   string
	chain      string
	filter     string
	family     string
	trackstate bool
	icmpTypes  []int
}

// trackFlags is one (check, set) TCP-flag tuple emitted when stateless
// establishment matching replaces conntrack.
type trackFlags struct {
	check []string
	set   []string
}

func (tm *term) version() int {
	if tm.family == "inet6" {
		return 6
	}
	return 4
}

func (tm *term) action() string {
	act := tm.t.Action
	if act == "" {
		act = policy.ActionDeny
	}
	switch act {
	case policy.ActionAccept:
		return "-j ACCEPT"
	case policy.ActionDeny:
		return "-j DROP"
	case policy.ActionReject:
		if tm.family == "inet6" {
			return "-j REJECT --reject-with adm-prohibited"
		}
		return "-j REJECT --reject-with icmp-host-prohibited"
	case policy.ActionRejectTCPRST:
		return "-j REJECT --reject-with tcp-reset"
	case policy.ActionNext:
		return "-j RETURN"
	}
	return "-j DROP"
}

// render emits the chain for one term. All fatal conditions were resolved
// during translation; this is pure assembly.
func (tm *term) render() []string {
	if tm.verbatim != "" {
		return strings.Split(strings.TrimRight(tm.verbatim, "\n"), "\n")
	}

	lines := []string{
		"-N " + tm.chain,
		fmt.Sprintf("-A %s -j %s", tm.filter, tm.chain),
	}

	// Individual iptables comments may be 256 chars, but long lines render
	// poorly; wrap to leave room for the static comment arguments.
	commentWidth := 92 - len(tm.chain)
	if commentWidth < 40 {
		commentWidth = 40
	}
	for _, c := range render.WrapWords(tm.t.Comment, commentWidth) {
		lines = append(lines, fmt.Sprintf("-A %s -m comment --comment \"%s\"", tm.chain, c))
	}

	srcList, dstList, srcBailout, dstBailout := tm.chooseExclusionStrategy()

	options, tcpFlags, tracking := tm.buildOptions()

	// Bailout jumps leave the chain early for excluded prefixes, ahead of
	// the match rules. Only one strategy ever applies per term.
	for _, a := range srcBailout {
		lines = append(lines, tm.formatPart("", a, policy.Address{}, nil, nil, "", nil, nil, trackFlags{}, false, "-j RETURN")...)
	}
	for _, a := range dstBailout {
		lines = append(lines, tm.formatPart("", policy.Address{}, a, nil, nil, "", nil, nil, trackFlags{}, false, "-j RETURN")...)
	}

	var icmpArgs []string
	for _, n := range tm.icmpTypes {
		icmpArgs = append(icmpArgs, fmt.Sprintf("%d", n))
	}
	if len(icmpArgs) == 0 {
		// Single empty sentinel: match all ICMP rather than specific types.
		icmpArgs = []string{""}
	}

	tuples := []trackFlags{{}}
	if len(tracking) > 0 {
		tuples = tracking
	}

	logHits := len(tm.t.Logging) > 0
	action := tm.action()

	for _, saddr := range srcList {
		for _, daddr := range dstList {
			for _, icmp := range icmpArgs {
				for _, proto := range protocolsOf(tm.t) {
					for _, track := range tuples {
						lines = append(lines, tm.formatPart(
							proto, saddr, daddr,
							tm.t.SourcePort, tm.t.DestinationPort,
							icmp, options, tcpFlags, track, logHits, action)...)
					}
				}
			}
		}
	}
	return lines
}

// chooseExclusionStrategy picks between bailout jumps (one early RETURN per
// excluded prefix, includes untouched) and full expansion (includes replaced
// by the CIDR set-difference). The cheaper strategy in estimated lines wins;
// a tie goes to full expansion, which is easier to reason about downstream.
func (tm *term) chooseExclusionStrategy() (srcList, dstList, srcBailout, dstBailout []policy.Address) {
	srcList = tm.t.SourceAddress
	if len(srcList) == 0 {
		srcList = []policy.Address{policy.AllIPs(tm.version())}
	}
	dstList = tm.t.DestinationAddress
	if len(dstList) == 0 {
		dstList = []policy.Address{policy.AllIPs(tm.version())}
	}

	srcExcl := tm.t.SourceExclude
	dstExcl := tm.t.DestinationExclude
	if len(srcExcl) == 0 && len(dstExcl) == 0 {
		return srcList, dstList, nil, nil
	}

	srcExpanded := srcList
	if len(srcExcl) > 0 {
		srcExpanded = cidr.Exclude(srcList, srcExcl)
	}
	dstExpanded := dstList
	if len(dstExcl) > 0 {
		dstExpanded = cidr.Exclude(dstList, dstExcl)
	}

	bailoutCost := len(srcExcl) + len(dstExcl)
	fullCost := len(srcExpanded) * len(dstExpanded)
	if fullCost <= bailoutCost {
		return srcExpanded, dstExpanded, nil, nil
	}
	return srcList, dstList, srcExcl, dstExcl
}

// buildOptions translates the term's option flags into iptables match
// arguments, TCP flag names, and stateless-establishment tracking tuples.
func (tm *term) buildOptions() (options, tcpFlags []string, tracking []trackFlags) {
	stateful := false
	for _, opt := range tm.t.Options {
		if (strings.HasPrefix(opt, "established") || strings.HasPrefix(opt, "tcp-established")) && !stateful {
			stateful = true
			if tm.trackstate {
				options = append(options, "-m state --state ESTABLISHED,RELATED")
			} else if sameProtocols(tm.t.Protocol, "tcp") {
				// Stateless established approximation: ACK set, or RST
				// alone with every flag checked.
				tracking = []trackFlags{
					{check: []string{"ACK"}, set: []string{"ACK"}},
					{check: []string{"SYN", "FIN", "ACK", "RST"}, set: []string{"RST"}},
				}
			}
			continue
		}
		for _, f := range tcpFlagNames {
			if strings.HasPrefix(opt, f.option) {
				tcpFlags = append(tcpFlags, f.flag)
			}
		}
		if m, ok := optionMatchers[opt]; ok && m != "" {
			options = append(options, m)
		}
	}
	return options, tcpFlags, tracking
}

// formatPart assembles the rule lines for one (proto, saddr, daddr, icmp,
// tracking) combination. A side whose address belongs to the other family
// skips just this clause, not the whole term.
func (tm *term) formatPart(proto string, saddr, daddr policy.Address, sports, dports []policy.PortRange, icmpType string, options, tcpFlags []string, track trackFlags, logHits bool, action string) []string {
	version := tm.version()
	src := ""
	if saddr.Prefix.IsValid() {
		if saddr.Version() != version {
			return nil
		}
		if !saddr.IsAll() {
			src = "-s " + saddr.String()
		}
	}
	dst := ""
	if daddr.Prefix.IsValid() {
		if daddr.Version() != version {
			return nil
		}
		if !daddr.IsAll() {
			dst = "-d " + daddr.String()
		}
	}

	protoArg := ""
	if proto != "" {
		protoArg = protoFlags[proto]
		if protoArg == "" {
			// Unrecognized protocols pass through rather than being dropped.
			protoArg = "-p " + policy.ProtocolToken(proto, false)
		}
	}

	opts := append([]string(nil), options...)
	if tm.trackstate && strings.Contains(action, "ACCEPT") && !anyContains(opts, "state") {
		// Permit new flows statefully; a policy may lack a blanket
		// established/related accept of its own.
		opts = append(opts, "-m state --state NEW,ESTABLISHED,RELATED")
	}

	flagArg := ""
	if len(tcpFlags) > 0 || len(track.check) > 0 {
		check := uniqueJoin(tcpFlags, track.check)
		set := uniqueJoin(tcpFlags, track.set)
		flagArg = fmt.Sprintf("--tcp-flags %s %s", check, set)
	}

	icmpArg := ""
	if icmpType != "" {
		if proto == "icmpv6" {
			icmpArg = "--icmpv6-type " + icmpType
		} else {
			icmpArg = "--icmp-type " + icmpType
		}
	}

	sportArgs := portStatements(sports, "s")
	dportArgs := portStatements(dports, "d")

	var lines []string
	for _, sport := range sportArgs {
		for _, dport := range dportArgs {
			// The multiport module consumes a following bare --dport, so
			// single-port clauses must precede multiport clauses.
			first, second := sport, dport
			if strings.Contains(first, "multiport") && !strings.Contains(second, "multiport") {
				first, second = second, first
			}
			parts := []string{"-A " + tm.chain}
			for _, v := range []string{protoArg, flagArg, first, second, icmpArg, src, dst, strings.Join(opts, " ")} {
				if v != "" {
					parts = append(parts, v)
				}
			}
			if logHits {
				lines = append(lines, strings.Join(parts, " ")+" -j LOG --log-prefix "+tm.t.Name)
			}
			lines = append(lines, strings.Join(parts, " ")+" "+action)
		}
	}
	return lines
}

// portStatements renders the port clauses for one direction, one clause per
// consolidated group. The empty string stands for "no port constraint" so
// callers can cross-product unconditionally.
func portStatements(ports []policy.PortRange, direction string) []string {
	if len(ports) == 0 {
		return []string{""}
	}
	var out []string
	for _, group := range policy.ConsolidateForBudget(ports, portUnitBudget) {
		if len(group) == 1 {
			r := group[0]
			if r.Single() {
				out = append(out, fmt.Sprintf("--%sport %d", direction, r.Lo))
			} else {
				out = append(out, fmt.Sprintf("--%sport %d:%d", direction, r.Lo, r.Hi))
			}
			continue
		}
		var specs []string
		for _, r := range group {
			if r.Single() {
				specs = append(specs, fmt.Sprintf("%d", r.Lo))
			} else {
				specs = append(specs, fmt.Sprintf("%d:%d", r.Lo, r.Hi))
			}
		}
		out = append(out, fmt.Sprintf("-m multiport --%sports %s", direction, strings.Join(specs, ",")))
	}
	return out
}

// uniqueJoin joins two flag lists comma-separated, keeping first occurrence
// order so output is deterministic.
func uniqueJoin(a, b []string) string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range append(append([]string(nil), a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return strings.Join(out, ",")
}

func anyContains(ss []string, sub string) bool {
	for _, s := range ss {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
