package juniper

import (
	"fmt"
	"strings"

	"grimm.is/aclforge/cidr"
	"grimm.is/aclforge/policy"
	"grimm.is/aclforge/render"
)

// fromOptions maps term options onto their from-clause syntax. Options
// absent here either shape the then clause or pass through verbatim.
var fromOptions = map[string]string{
	"established":     "tcp-established;",
	"tcp-established": "tcp-established;",
	"rst":             "tcp-flags rst;",
	"initial":         "tcp-initial;",
	"tcp-initial":     "tcp-initial;",
	"first-fragment":  "first-fragment;",
	"is-fragment":     "is-fragment;",
}

// term is one translated filter term with its family-resolved ICMP types.
type term struct {
	t         policy.Term
	verbatim  string
	name      string
	family    string
	icmpTypes []int
}

func (tm *term) version() int {
	if tm.family == "inet6" {
		return 6
	}
	return 4
}

// emit appends the term's configuration to the output block.
func (tm *term) emit(b *block) {
	if tm.verbatim != "" {
		for _, line := range strings.Split(strings.TrimRight(tm.verbatim, "\n"), "\n") {
			b.AppendRaw(line)
		}
		return
	}

	comments := render.WrapWords(tm.t.Comment, 72)
	if tm.t.Owner != "" {
		comments = append(comments, "Owner: "+tm.t.Owner)
	}
	if len(comments) > 0 {
		b.Append("/*")
		for _, c := range comments {
			b.Append("** " + c)
		}
		b.Append("*/")
	}

	b.Append("term " + tm.name + " {")

	from := tm.fromLines()
	if len(from) > 0 {
		b.Append("from {")
		for _, line := range from {
			b.Append(line)
		}
		b.Append("}")
	}

	then := tm.thenLines()
	if len(then) == 1 {
		b.Append("then " + then[0])
	} else {
		b.Append("then {")
		for _, line := range then {
			b.Append(line)
		}
		b.Append("}")
	}

	b.Append("}")
}

// fromLines builds the match clause. An empty result means the term matches
// everything and the from block is omitted entirely.
func (tm *term) fromLines() []string {
	var lines []string

	lines = append(lines, tm.addressLines("source-address", tm.t.SourceAddress, tm.t.SourceExclude)...)
	lines = append(lines, tm.addressLines("destination-address", tm.t.DestinationAddress, tm.t.DestinationExclude)...)
	lines = append(lines, prefixListLines("source-prefix-list", tm.t.SourcePrefix)...)
	lines = append(lines, prefixListLines("destination-prefix-list", tm.t.DestinationPrefix)...)

	if len(tm.t.Protocol) > 0 {
		keyword := "protocol"
		if tm.family == "inet6" {
			keyword = "next-header"
		}
		lines = append(lines, group(keyword, tm.t.Protocol))
	}

	lines = append(lines, portLines("source-port", tm.t.SourcePort)...)
	lines = append(lines, portLines("destination-port", tm.t.DestinationPort)...)

	if len(tm.icmpTypes) > 0 {
		var vals []string
		for _, n := range tm.icmpTypes {
			vals = append(vals, fmt.Sprintf("%d", n))
		}
		lines = append(lines, group("icmp-type", vals))
	}

	for _, opt := range tm.t.Options {
		if clause, ok := fromOptions[opt]; ok {
			lines = append(lines, clause)
		} else if opt != "sample" {
			// Unrecognized options are trusted to be literal JunOS match
			// conditions rather than silently dropped.
			lines = append(lines, opt+";")
		}
	}
	return lines
}

// addressLines renders one side's address block, minimized against its
// excludes so only load-bearing except entries survive.
func (tm *term) addressLines(keyword string, include, exclude []policy.Address) []string {
	include = policy.OfVersion(include, tm.version())
	exclude = policy.OfVersion(exclude, tm.version())
	if len(include) == 0 && len(exclude) == 0 {
		return nil
	}
	if len(exclude) > 0 {
		if len(include) == 0 {
			include = []policy.Address{policy.AllIPs(tm.version())}
		}
		include, exclude = cidr.Minimize(include, exclude)
	}
	lines := []string{keyword + " {"}
	for _, a := range include {
		if a.Annotation != "" {
			lines = append(lines, "/* "+a.Annotation+" */")
		}
		lines = append(lines, a.String()+";")
	}
	for _, a := range exclude {
		if a.Annotation != "" {
			lines = append(lines, "/* "+a.Annotation+" */")
		}
		lines = append(lines, a.String()+" except;")
	}
	return append(lines, "}")
}

func prefixListLines(keyword string, names []string) []string {
	if len(names) == 0 {
		return nil
	}
	lines := []string{keyword + " {"}
	for _, n := range names {
		lines = append(lines, n+";")
	}
	return append(lines, "}")
}

func portLines(keyword string, ports []policy.PortRange) []string {
	if len(ports) == 0 {
		return nil
	}
	var vals []string
	for _, r := range policy.MergePorts(ports) {
		vals = append(vals, r.String())
	}
	return []string{group(keyword, vals)}
}

// thenLines builds the action clause. The terminal action always comes
// last, after logging and counting, matching how operators read filters.
func (tm *term) thenLines() []string {
	var lines []string
	seen := make(map[string]bool)
	for _, l := range tm.t.Logging {
		clause := "syslog;"
		if l == "local" {
			clause = "log;"
		}
		if !seen[clause] {
			seen[clause] = true
			lines = append(lines, clause)
		}
	}
	if tm.t.HasOption("sample") {
		lines = append(lines, "sample;")
	}
	if tm.t.Counter != "" {
		lines = append(lines, "count "+tm.t.Counter+";")
	}
	if tm.t.Policer != "" {
		lines = append(lines, "policer "+tm.t.Policer+";")
	}
	if tm.t.QoS != "" {
		lines = append(lines, "forwarding-class "+tm.t.QoS+";")
	}
	if tm.t.LossPriority != "" {
		lines = append(lines, "loss-priority "+tm.t.LossPriority+";")
	}
	if tm.t.RoutingInstance != "" {
		lines = append(lines, "routing-instance "+tm.t.RoutingInstance+";")
	}

	act := tm.t.Action
	if act == "" {
		act = policy.ActionDeny
	}
	switch act {
	case policy.ActionAccept:
		lines = append(lines, "accept;")
	case policy.ActionDeny:
		lines = append(lines, "discard;")
	case policy.ActionReject:
		lines = append(lines, "reject;")
	case policy.ActionRejectTCPRST:
		lines = append(lines, "reject tcp-reset;")
	case policy.ActionNext:
		lines = append(lines, "next term;")
	default:
		lines = append(lines, "discard;")
	}
	return lines
}

// group renders a JunOS value list: single values bare, multiple values
// bracketed.
func group(keyword string, values []string) string {
	if len(values) == 1 {
		return keyword + " " + values[0] + ";"
	}
	return keyword + " [ " + strings.Join(values, " ") + " ];"
}
