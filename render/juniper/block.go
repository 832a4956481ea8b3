package juniper

import (
	"strings"

	"grimm.is/aclforge/render"
)

const tabstop = 4

// block accumulates configuration lines while tracking brace depth, so the
// emitted tree is well-formed by construction instead of by careful manual
// indenting. A close below depth zero poisons the block; the error surfaces
// from String so emission code stays unconditional.
type block struct {
	lines  []string
	indent int
	err    error
}

// Append adds one logical line. A leading "}" dedents before the line is
// written, a trailing "{" indents after.
func (b *block) Append(line string) {
	if b.err != nil {
		return
	}
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "}") {
		b.indent -= tabstop
		if b.indent < 0 {
			b.err = &render.StructuralError{Detail: "close brace without matching open: " + line}
			return
		}
	}
	if line == "" {
		b.lines = append(b.lines, "")
	} else {
		b.lines = append(b.lines, strings.Repeat(" ", b.indent)+line)
	}
	if strings.HasSuffix(line, "{") {
		b.indent += tabstop
	}
}

// AppendRaw adds a line untouched by indent tracking, for verbatim content
// that must survive byte for byte.
func (b *block) AppendRaw(line string) {
	if b.err != nil {
		return
	}
	b.lines = append(b.lines, line)
}

// String serializes the tree, failing if any block was left open.
func (b *block) String() (string, error) {
	if b.err != nil {
		return "", b.err
	}
	if b.indent != 0 {
		return "", &render.StructuralError{Detail: "unclosed block at end of output"}
	}
	return strings.Join(b.lines, "\n") + "\n", nil
}
