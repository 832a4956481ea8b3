package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	rec := NewRecorder(prometheus.NewRegistry())

	rec.TermsTranslated.WithLabelValues("iptables").Inc()
	rec.TermsTranslated.WithLabelValues("iptables").Inc()
	rec.TermsSkipped.WithLabelValues("iptables", "expired").Inc()
	rec.FiltersRendered.WithLabelValues("juniper").Inc()

	assert.Equal(t, 2.0, promtest.ToFloat64(rec.TermsTranslated.WithLabelValues("iptables")))
	assert.Equal(t, 1.0, promtest.ToFloat64(rec.TermsSkipped.WithLabelValues("iptables", "expired")))
	assert.Equal(t, 1.0, promtest.ToFloat64(rec.FiltersRendered.WithLabelValues("juniper")))
}

func TestNopRecorderIsUsable(t *testing.T) {
	rec := Nop()
	assert.NotPanics(t, func() {
		rec.TermsTranslated.WithLabelValues("iptables").Inc()
		rec.TermsSkipped.WithLabelValues("iptables", "platform").Inc()
		rec.FiltersRendered.WithLabelValues("iptables").Inc()
	})
}
