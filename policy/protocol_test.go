package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtocolToken(t *testing.T) {
	assert.Equal(t, "tcp", ProtocolToken("tcp", false))
	assert.Equal(t, "6", ProtocolToken("tcp", true))
	assert.Equal(t, "58", ProtocolToken("icmpv6", true))
	// Unknown names pass through unchanged in either mode.
	assert.Equal(t, "mystery", ProtocolToken("mystery", true))
}

func TestKnownProtocol(t *testing.T) {
	assert.True(t, KnownProtocol("udp"))
	assert.True(t, KnownProtocol("gre"))
	assert.False(t, KnownProtocol("quic"))
}

func TestNormalizeICMPTypes(t *testing.T) {
	t.Run("no names is a no-op", func(t *testing.T) {
		got, err := NormalizeICMPTypes(nil, []string{"tcp"}, 4)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("v4 names", func(t *testing.T) {
		got, err := NormalizeICMPTypes([]string{"echo-request", "echo-reply"}, []string{"icmp"}, 4)
		require.NoError(t, err)
		assert.Equal(t, []int{8, 0}, got)
	})

	t.Run("v6 names", func(t *testing.T) {
		got, err := NormalizeICMPTypes([]string{"echo-request", "router-solicit"}, []string{"icmpv6"}, 6)
		require.NoError(t, err)
		assert.Equal(t, []int{128, 133}, got)
	})

	t.Run("missing icmp protocol", func(t *testing.T) {
		_, err := NormalizeICMPTypes([]string{"echo-request"}, []string{"tcp"}, 4)
		assert.Error(t, err)
	})

	t.Run("wrong family protocol", func(t *testing.T) {
		_, err := NormalizeICMPTypes([]string{"echo-request"}, []string{"icmp"}, 6)
		assert.Error(t, err)
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := NormalizeICMPTypes([]string{"no-such-type"}, []string{"icmp"}, 4)
		assert.Error(t, err)
	})
}
