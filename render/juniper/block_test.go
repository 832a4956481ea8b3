package juniper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/aclforge/render"
)

func TestBlockIndentTracking(t *testing.T) {
	b := &block{}
	b.Append("firewall {")
	b.Append("family inet {")
	b.Append("replace:")
	b.Append("}")
	b.Append("}")
	out, err := b.String()
	require.NoError(t, err)
	assert.Equal(t, "firewall {\n    family inet {\n        replace:\n    }\n}\n", out)
}

func TestBlockUnderflowIsStructural(t *testing.T) {
	b := &block{}
	b.Append("}")
	_, err := b.String()
	var structural *render.StructuralError
	require.ErrorAs(t, err, &structural)
}

func TestBlockUnclosedIsStructural(t *testing.T) {
	b := &block{}
	b.Append("firewall {")
	_, err := b.String()
	var structural *render.StructuralError
	require.ErrorAs(t, err, &structural)
}

// Once poisoned, a block stays poisoned no matter what follows.
func TestBlockErrorIsSticky(t *testing.T) {
	b := &block{}
	b.Append("}")
	b.Append("balanced {")
	b.Append("}")
	_, err := b.String()
	assert.Error(t, err)
}

func TestBlockAppendRawSkipsIndent(t *testing.T) {
	b := &block{}
	b.Append("outer {")
	b.AppendRaw("raw line")
	b.Append("}")
	out, err := b.String()
	require.NoError(t, err)
	assert.Equal(t, "outer {\nraw line\n}\n", out)
}
