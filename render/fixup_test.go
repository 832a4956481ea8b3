package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/aclforge/policy"
)

func TestFixHighPorts(t *testing.T) {
	t.Run("no established option is a no-op", func(t *testing.T) {
		in := policy.Term{Name: "web", Protocol: []string{"tcp"}}
		got, err := FixHighPorts(in, "iptables", false)
		require.NoError(t, err)
		assert.Equal(t, in, got)
	})

	t.Run("established widens destination ports", func(t *testing.T) {
		in := policy.Term{
			Name:            "replies",
			Protocol:        []string{"tcp", "udp"},
			Options:         []string{"established"},
			DestinationPort: []policy.PortRange{{Lo: 53, Hi: 53}},
		}
		got, err := FixHighPorts(in, "iptables", false)
		require.NoError(t, err)
		assert.Equal(t, []policy.PortRange{{Lo: 53, Hi: 53}, {Lo: 1024, Hi: 65535}},
			got.DestinationPort)
		// The input term is untouched.
		assert.Equal(t, []policy.PortRange{{Lo: 53, Hi: 53}}, in.DestinationPort)
	})

	t.Run("adjacent ports fuse with the high range", func(t *testing.T) {
		in := policy.Term{
			Name:            "replies",
			Protocol:        []string{"tcp"},
			Options:         []string{"tcp-established"},
			DestinationPort: []policy.PortRange{{Lo: 1023, Hi: 1023}},
		}
		got, err := FixHighPorts(in, "iptables", false)
		require.NoError(t, err)
		assert.Equal(t, []policy.PortRange{{Lo: 1023, Hi: 65535}}, got.DestinationPort)
	})

	t.Run("non-stateful protocol fails stateless targets", func(t *testing.T) {
		in := policy.Term{
			Name:     "bad",
			Protocol: []string{"tcp", "gre"},
			Options:  []string{"established"},
		}
		_, err := FixHighPorts(in, "iptables", false)
		require.Error(t, err)
		var unsup *UnsupportedFeatureError
		assert.ErrorAs(t, err, &unsup)
	})

	t.Run("non-stateful protocol passes stateful targets", func(t *testing.T) {
		in := policy.Term{
			Name:     "tunneled",
			Protocol: []string{"gre"},
			Options:  []string{"established"},
		}
		got, err := FixHighPorts(in, "juniper", true)
		require.NoError(t, err)
		assert.Equal(t, in, got)
	})
}
