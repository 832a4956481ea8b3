// Package testutil holds shared test helpers.
package testutil

import (
	"testing"

	"github.com/pmezard/go-difflib/difflib"
)

// AssertTextEqual compares two multi-line strings and fails the test with a
// unified diff when they differ. Far easier to read than two full dumps when
// a renderer drifts by one line.
func AssertTextEqual(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		t.Fatalf("diff failed: %v", err)
	}
	t.Errorf("output mismatch:\n%s", text)
}
