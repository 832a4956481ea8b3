// Package juniper renders policies as JunOS firewall filter configuration.
// Output is built through a brace-tracking block emitter so the nested
// firewall/family/filter/term tree is structurally sound before it is
// returned as text.
package juniper

import (
	"fmt"

	"grimm.is/aclforge/cidr"
	"grimm.is/aclforge/internal/logging"
	"grimm.is/aclforge/internal/metrics"
	"grimm.is/aclforge/policy"
	"grimm.is/aclforge/render"
)

// Platform is the target name this renderer answers to in policy headers.
const Platform = "juniper"

var families = map[string]bool{"inet": true, "inet6": true, "bridge": true}

// Renderer implements render.Renderer for JunOS output.
type Renderer struct {
	render.Phase

	log     *logging.Logger
	rec     *metrics.Recorder
	filters []*filterBlock
}

type filterBlock struct {
	name              string
	family            string
	comment           []string
	interfaceSpecific bool
	terms             []*term
}

// New returns a renderer ready for one Translate/Render cycle.
func New() *Renderer {
	return &Renderer{}
}

// Translate builds the internal filter model from the policy. A fatal term
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
	fb := &filterBlock{
		name:              f.Header.FilterName(Platform),
		comment:           f.Header.Comment,
		interfaceSpecific: true,
	}
	options := f.Header.FilterOptions(Platform)
	for _, opt := range options {
		switch {
		case families[opt]:
			if fb.family != "" {
				return nil, &render.UnsupportedFeatureError{
					Platform: Platform,
					Feature:  "filter options",
					Detail:   fmt.Sprintf("more than one address family in %v", options),
				}
			}
			fb.family = opt
		case opt == "not-interface-specific":
			fb.interfaceSpecific = false
		default:
			return nil, &render.UnsupportedFeatureError{
				Platform: Platform,
				Feature:  "filter option",
				Detail:   opt,
			}
		}
	}
	if fb.family == "" {
		fb.family = "inet"
	}

	if err := render.CheckDuplicateNames(f.Terms, fb.name); err != nil {
		return nil, err
	}

	for _, t := range f.Terms {
		tm, skip, err := r.translateTerm(t, fb, capability, opts)
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
func (r *Renderer) translateTerm(t policy.Term, fb *filterBlock, capability *render.Capability, opts render.Options) (*term, string, error) {
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

	t, err := render.FixHighPorts(t, Platform, true)
	if err != nil {
		return nil, "", err
	}

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

	icmpTypes, err := policy.NormalizeICMPTypes(t.ICMPType, t.Protocol, version)
	if err != nil {
		return nil, "", &render.UnsupportedFeatureError{Platform: Platform, Feature: "icmp-type", Detail: err.Error()}
	}

	name, err := capability.FitName(t.Name)
	if err != nil {
		return nil, "", err
	}

	return &term{
		t:         t,
		name:      name,
		family:    fb.family,
		icmpTypes: icmpTypes,
	}, "", nil
}

// Render emits the accumulated model. It is a pure function of that model:
// repeated calls return byte-identical output.
func (r *Renderer) Render() (string, error) {
	if err := r.RequireTranslated(); err != nil {
		return "", err
	}
	b := &block{}
	b.Append("firewall {")
	for _, fb := range r.filters {
		b.Append("family " + fb.family + " {")
		b.Append("replace:")
		if len(fb.comment) > 0 {
			b.Append("/*")
			for _, c := range render.WrapWords(fb.comment, 72) {
				b.Append("** " + c)
			}
			b.Append("*/")
		}
		b.Append("filter " + fb.name + " {")
		if fb.interfaceSpecific {
			b.Append("interface-specific;")
		}
		for _, tm := range fb.terms {
			tm.emit(b)
		}
		b.Append("}")
		b.Append("}")
	}
	b.Append("}")
	return b.String()
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
