package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHeaderLookups(t *testing.T) {
	h := Header{
		Targets: []Target{
			{Platform: "iptables", Name: "INPUT", Options: []string{"inet", "ACCEPT"}},
			{Platform: "juniper", Name: "edge-filter", Options: []string{"inet6"}},
		},
		Comment: []string{"edge ingress policy"},
	}

	assert.Equal(t, []string{"iptables", "juniper"}, h.Platforms())
	assert.True(t, h.HasPlatform("juniper"))
	assert.False(t, h.HasPlatform("cisco"))
	assert.Equal(t, "INPUT", h.FilterName("iptables"))
	assert.Equal(t, "", h.FilterName("cisco"))
	assert.Equal(t, []string{"inet6"}, h.FilterOptions("juniper"))
	assert.Nil(t, h.FilterOptions("cisco"))
}

func TestTermAppliesTo(t *testing.T) {
	assert.True(t, Term{}.AppliesTo("iptables"))
	assert.True(t, Term{Platform: []string{"iptables"}}.AppliesTo("iptables"))
	assert.False(t, Term{Platform: []string{"juniper"}}.AppliesTo("iptables"))
	assert.False(t, Term{PlatformExclude: []string{"iptables"}}.AppliesTo("iptables"))
	assert.True(t, Term{PlatformExclude: []string{"juniper"}}.AppliesTo("iptables"))
}

func TestTermFieldNames(t *testing.T) {
	assert.Empty(t, Term{Name: "bare"}.FieldNames())

	tm := Term{
		Name:            "web",
		Action:          ActionAccept,
		Protocol:        []string{"tcp"},
		DestinationPort: []PortRange{{Lo: 80, Hi: 80}},
		Counter:         "web-hits",
		Expiration:      time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t,
		[]string{"action", "protocol", "destination_port", "counter", "expiration"},
		tm.FieldNames())
}

func TestTermHasMatchCriteria(t *testing.T) {
	assert.False(t, Term{Name: "default-deny", Action: ActionDeny}.HasMatchCriteria())
	assert.True(t, Term{Protocol: []string{"tcp"}}.HasMatchCriteria())
	assert.True(t, Term{Options: []string{"established"}}.HasMatchCriteria())
}
