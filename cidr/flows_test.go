package cidr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyFlows(t *testing.T) {
	v4 := addrs(t, "10.0.0.0/8")
	v6 := addrs(t, "2001:db8::/32")
	mixed := addrs(t, "10.0.0.0/8", "2001:db8::/32")

	t.Run("both wildcards carry both versions", func(t *testing.T) {
		s := ClassifyFlows(nil, nil)
		assert.True(t, s.Has(Flow4))
		assert.True(t, s.Has(Flow6))
		assert.True(t, s.CanMatch(4))
		assert.True(t, s.CanMatch(6))
	})

	t.Run("v4 both sides", func(t *testing.T) {
		s := ClassifyFlows(v4, v4)
		assert.True(t, s.Has(Flow4))
		assert.False(t, s.Has(Flow6))
		assert.True(t, s.CanMatch(4))
		assert.False(t, s.CanMatch(6))
	})

	t.Run("v4 source against v6 destination", func(t *testing.T) {
		s := ClassifyFlows(v4, v6)
		assert.True(t, s.Has(Flow4SrcOnly))
		assert.True(t, s.Has(Flow6DstOnly))
		assert.False(t, s.CanMatch(4))
		assert.False(t, s.CanMatch(6))
	})

	t.Run("mixed source, v6 destination", func(t *testing.T) {
		s := ClassifyFlows(mixed, v6)
		assert.True(t, s.Has(Flow6))
		assert.True(t, s.Has(Flow4SrcOnly))
		assert.False(t, s.CanMatch(4))
		assert.True(t, s.CanMatch(6))
	})

	t.Run("wildcard source, v4 destination", func(t *testing.T) {
		s := ClassifyFlows(nil, v4)
		assert.True(t, s.Has(Flow4))
		assert.True(t, s.Has(Flow6SrcOnly))
		assert.True(t, s.CanMatch(4))
		assert.False(t, s.CanMatch(6))
	})
}
