// Package iptables renders policies as iptables-restore style rule text.
// Each term becomes its own chain jumped to from the filter chain, with
// address excludes realized either as early bailout jumps or as a full
// CIDR set-difference expansion, whichever costs fewer lines.
package iptables

import (
	"fmt"
	"strings"

	"grimm.is/aclforge/cidr"
	"grimm.is/aclforge/internal/logging"
	"grimm.is/aclforge/internal/metrics"
	"grimm.is/aclforge/policy"
	"grimm.is/aclforge/render"
)

// Platform is the target name this renderer answers to in policy headers.
const Platform = "iptables"

var (
	builtinChains  = map[string]bool{"INPUT": true, "OUTPUT": true, "FORWARD": true}
	defaultActions = map[string]bool{"ACCEPT": true, "DROP": true}
	families       = map[string]bool{"inet": true, "inet6": true}
)

// Renderer implements render.Renderer for iptables output.
type Renderer struct {
	render.Phase

	log     *logging.Logger
	rec     *metrics.Recorder
	filters []*filterBlock
}

type filterBlock struct {
	name          string
	family        string
	defaultAction string
	comment       []string
	terms         []*term
}

// New returns a renderer ready for one Translate/Render cycle.
func New() *Renderer {
	return &Renderer{}
}

// Translate builds the internal rule model from the policy. A fatal term
// failure aborts the whole call; an inapplicable term is logged and skipped
// without affecting its siblings.
func (r *Renderer) Translate(pol *policy.Policy, opts render.Options) error {
	if err := r.BeginTranslate(); err != nil {
		return err
	}
	opts = opts.Normalize()
	r.log = opts.Logger.WithComponent(Platform)
	r.rec = opts.Metrics

	capability, err := render.TargetCapability(Platform)
	if err != nil {
		return err
	}

	for _, f := range pol.Filters {
		if !f.Header.HasPlatform(Platform) {
			continue
		}
		fb, err := r.translateFilter(f, capability, opts)
		if err != nil {
			return err
		}
		r.filters = append(r.filters, fb)
		r.rec.FiltersRendered.WithLabelValues(Platform).Inc()
	}
	return nil
}

func (r *Renderer) translateFilter(f policy.Filter, capability *render.Capability, opts render.Options) (*filterBlock, error) {
	name := f.Header.FilterName(Platform)
	// Chain names derive from the filter name, so a header without one
	// cannot produce a usable ruleset.
	if name == "" {
		return nil, &render.UnsupportedFeatureError{
			Platform: Platform,
			Feature:  "filter header",
			Detail:   "no filter name declared for this platform",
		}
	}
	options := f.Header.FilterOptions(Platform)

	family := ""
	trackstate := true
	truncate := false
	defaultAction := ""
	for _, opt := range options {
		switch {
		case families[opt]:
			if family != "" {
				return nil, &render.UnsupportedFeatureError{
					Platform: Platform,
					Feature:  "filter options",
					Detail:   fmt.Sprintf("more than one address family in %v", options),
				}
			}
			family = opt
		case defaultActions[opt]:
			defaultAction = opt
		case opt == "nostate":
			trackstate = false
		case opt == "truncatenames":
			truncate = true
		default:
			return nil, &render.UnsupportedFeatureError{
				Platform: Platform,
				Feature:  "filter option",
				Detail:   opt,
			}
		}
	}
	if family == "" {
		family = "inet"
	}
	if name == "FORWARD" && defaultAction == "" {
		defaultAction = "DROP"
	}
	if !builtinChains[name] {
		r.log.Warn("filter generates a non-standard chain; it will not see "+
			"traffic unless linked from INPUT, OUTPUT or FORWARD",
			"filter", name)
	}

	if err := render.CheckDuplicateNames(f.Terms, name); err != nil {
		return nil, err
	}

	fb := &filterBlock{
		name:          name,
		family:        family,
		defaultAction: defaultAction,
		comment:       f.Header.Comment,
	}

	for _, t := range f.Terms {
		tm, skip, err := r.translateTerm(t, fb, capability, trackstate, truncate, opts)
		if err != nil {
			return nil, err
		}
		if skip != "" {
			r.rec.TermsSkipped.WithLabelValues(Platform, skip).Inc()
			continue
		}
		fb.terms = append(fb.terms, tm)
		r.rec.TermsTranslated.WithLabelValues(Platform).Inc()
	}
	return fb, nil
}

// translateTerm applies the per-term checks. A non-empty skip reason means
// the term is inapplicable (already logged); a non-nil error is fatal.
func (r *Renderer) translateTerm(t policy.Term, fb *filterBlock, capability *render.Capability, trackstate, truncate bool, opts render.Options) (*term, string, error) {
	if !t.AppliesTo(Platform) {
		r.log.Warn("term skipped: platform mismatch", "term", t.Name, "filter", fb.name)
		return nil, "platform", nil
	}

	if len(t.Verbatim) > 0 {
		text, ok := t.Verbatim[Platform]
		if !ok {
			r.log.Warn("term skipped: verbatim for other platforms only",
				"term", t.Name, "filter", fb.name)
			return nil, "verbatim", nil
		}
		return &term{t: t, verbatim: text}, "", nil
	}

	if err := render.CheckSupportedKeywords(t, capability.Keywords(), Platform); err != nil {
		return nil, "", err
	}

	switch render.CheckExpiration(t, opts.Clock.Now(), opts.ExpiryWarn) {
	case render.ExpirySkip:
		r.log.Warn("term skipped: expired", "term", t.Name, "filter", fb.name)
		return nil, "expired", nil
	case render.ExpiryWarn:
		r.log.Info("term expires soon", "term", t.Name, "filter", fb.name,
			"expiration", t.Expiration.Format("2006-01-02"))
	}

	t, err := render.FixHighPorts(t, Platform, trackstate)
	if err != nil {
		return nil, "", err
	}

	// ICMP protocol of the wrong family can never match under this filter.
	version := 4
	if fb.family == "inet6" {
		version = 6
	}
	if (version == 6 && contains(t.Protocol, "icmp")) ||
		(version == 4 && contains(t.Protocol, "icmpv6")) {
		r.log.Warn("term skipped: protocol and address family mismatch",
			"term", t.Name, "filter", fb.name, "family", fb.family)
		return nil, "af-mismatch", nil
	}

	flows := cidr.ClassifyFlows(t.SourceAddress, t.DestinationAddress)
	if !flows.CanMatch(version) {
		r.log.Warn("term skipped: no addresses of the filter's address family",
			"term", t.Name, "filter", fb.name, "family", fb.family)
		return nil, "af-mismatch", nil
	}

	// Router prefix-lists have no iptables equivalent. Permitting terms can
	// be skipped without opening a hole; anything else must fail loudly.
	if len(t.SourcePrefix) > 0 || len(t.DestinationPrefix) > 0 {
		if t.Action == policy.ActionAccept || t.Action == policy.ActionNext {
			r.log.Warn("term skipped: source or destination prefix-list",
				"term", t.Name, "filter", fb.name)
			return nil, "prefix-list", nil
		}
		return nil, "", &render.UnsupportedFeatureError{
			Platform: Platform,
			Feature:  "prefix-list with action " + string(t.Action),
			Detail:   "in term " + t.Name,
		}
	}

	if t.HasOption("tcp-established") && !sameProtocols(t.Protocol, "tcp") {
		return nil, "", &render.UnsupportedFeatureError{
			Platform: Platform,
			Feature:  "tcp-established option",
			Detail:   "requires protocol tcp only in term " + t.Name,
		}
	}

	icmpTypes, err := policy.NormalizeICMPTypes(t.ICMPType, protocolsOf(t), version)
	if err != nil {
		return nil, "", &render.UnsupportedFeatureError{Platform: Platform, Feature: "icmp-type", Detail: err.Error()}
	}

	fitted, err := render.FitIdentifier(t.Name, capability.MaxTermName,
		capability.AllowAbbreviations && truncate, capability.Abbreviations)
	if err != nil {
		return nil, "", err
	}

	return &term{
		t:          t,
		chain:      fb.name[:1] + "_" + fitted,
		filter:     fb.name,
		family:     fb.family,
		trackstate: trackstate,
		icmpTypes:  icmpTypes,
	}, "", nil
}

// Render emits the accumulated model. It is a pure function of that model:
// repeated calls return byte-identical output.
func (r *Renderer) Render() (string, error) {
	if err := r.RequireTranslated(); err != nil {
		return "", err
	}
	var lines []string
	for _, fb := range r.filters {
		lines = append(lines, fmt.Sprintf("# Iptables %s Policy", fb.name))
		for _, c := range render.WrapWords(fb.comment, 70) {
			lines = append(lines, "# "+c)
		}
		if len(fb.comment) > 0 {
			lines = append(lines, "#")
		}
		lines = append(lines, "# "+fb.family)
		if fb.defaultAction != "" {
			lines = append(lines, fmt.Sprintf("-P %s %s", fb.name, fb.defaultAction))
		}
		for _, t := range fb.terms {
			lines = append(lines, t.render()...)
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n"), nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func sameProtocols(protocols []string, only string) bool {
	return len(protocols) == 1 && protocols[0] == only
}

func protocolsOf(t policy.Term) []string {
	if len(t.Protocol) == 0 {
		return []string{"all"}
	}
	return t.Protocol
}
