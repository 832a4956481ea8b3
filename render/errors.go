package render

import (
	"fmt"
	"strings"
)

// Fatal errors abort the whole Translate call for a (policy, target) pair:
// a firewall configuration is only valid all-or-nothing, so no partial
// artifact is ever returned. Conditions that merely make one term
// inapplicable (expired, wrong family, platform mismatch) are not errors at
// all; they are logged and the term is skipped.

// ValidationError reports a term using fields the target cannot express.
type ValidationError struct {
	Platform string
	Term     string
	Fields   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("term %s uses fields unsupported by %s: %s",
		e.Term, e.Platform, strings.Join(e.Fields, ", "))
}

// UnsupportedFeatureError reports a protocol, filter type, option, or action
// the target cannot express.
type UnsupportedFeatureError struct {
	Platform string
	Feature  string
	Detail   string
}

func (e *UnsupportedFeatureError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s does not support %s", e.Platform, e.Feature)
	}
	return fmt.Sprintf("%s does not support %s: %s", e.Platform, e.Feature, e.Detail)
}

// DuplicateNameError reports two terms sharing a name within one filter.
type DuplicateNameError struct {
	Filter string
	Term   string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("filter %s has multiple terms named %s", e.Filter, e.Term)
}

// NameTooLongError reports an identifier that exceeds the target's length
// limit even after abbreviation.
type NameTooLongError struct {
	Original    string
	Abbreviated string
	Limit       int
}

func (e *NameTooLongError) Error() string {
	if e.Original == e.Abbreviated {
		return fmt.Sprintf("name %q exceeds %d character limit", e.Original, e.Limit)
	}
	return fmt.Sprintf("name %q (abbreviated from %q) still exceeds %d character limit",
		e.Abbreviated, e.Original, e.Limit)
}

// StructuralError reports a violated internal invariant, such as unbalanced
// blocks in an emitter or Render called before Translate. It indicates a bug
// in renderer logic, never bad user input.
type StructuralError struct {
	Detail string
}

func (e *StructuralError) Error() string {
	return "structural error: " + e.Detail
}
