// Package metrics counts translation outcomes on a Prometheus registry.
// Every Recorder is built against an injected Registerer so that repeated or
// concurrent renders never share process-wide state.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the counters one renderer run reports into.
type Recorder struct {
	TermsTranslated *prometheus.CounterVec
	TermsSkipped    *prometheus.CounterVec
	FiltersRendered *prometheus.CounterVec
}

// NewRecorder creates a Recorder registered on reg. Pass a fresh
// prometheus.NewRegistry() per run, or a shared registry the caller owns.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := newRecorder()
	if reg != nil {
		reg.MustRegister(r.TermsTranslated, r.TermsSkipped, r.FiltersRendered)
	}
	return r
}

// Nop returns a Recorder whose counters are live but unregistered, for
// callers that do not care about metrics.
func Nop() *Recorder {
	return newRecorder()
}

func newRecorder() *Recorder {
	return &Recorder{
		TermsTranslated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aclforge_terms_translated_total",
			Help: "Terms successfully translated, by target platform.",
		}, []string{"platform"}),
		TermsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aclforge_terms_skipped_total",
			Help: "Terms skipped during translation, by platform and reason.",
		}, []string{"platform", "reason"}),
		FiltersRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aclforge_filters_rendered_total",
			Help: "Filters included in rendered output, by target platform.",
		}, []string{"platform"}),
	}
}
