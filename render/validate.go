package render

import (
	"strings"
	"time"

	"grimm.is/aclforge/policy"
)

// CheckDuplicateNames verifies that term names are pairwise distinct within
// a filter. The first duplicate fails the whole filter's translation.
func CheckDuplicateNames(terms []policy.Term, filterName string) error {
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		if seen[t.Name] {
			return &DuplicateNameError{Filter: filterName, Term: t.Name}
		}
		seen[t.Name] = true
	}
	return nil
}

// ExpiryStatus classifies a term against the current date.
type ExpiryStatus int

const (
	// ExpiryOK means the term renders normally.
	ExpiryOK ExpiryStatus = iota
	// ExpiryWarn means the term renders but expires within the warning
	// window; callers log an informational note.
	ExpiryWarn
	// ExpirySkip means the term has expired and is dropped with a logged
	// warning. Sibling terms are unaffected.
	ExpirySkip
)

// CheckExpiration classifies the term's expiration against now and the
// warning window. Terms without an expiration are always OK.
func CheckExpiration(t policy.Term, now time.Time, warnWindow time.Duration) ExpiryStatus {
	if t.Expiration.IsZero() {
		return ExpiryOK
	}
	if !t.Expiration.After(now) {
		return ExpirySkip
	}
	if !t.Expiration.After(now.Add(warnWindow)) {
		return ExpiryWarn
	}
	return ExpiryOK
}

// CheckSupportedKeywords verifies every non-empty field of the term belongs
// to the target's supported set. Silently dropping a field would
// misrepresent the author's intent, so an unsupported field is fatal for the
// whole filter.
func CheckSupportedKeywords(t policy.Term, supported map[string]bool, platform string) error {
	var bad []string
	for _, field := range t.FieldNames() {
		if !supported[field] {
			bad = append(bad, field)
		}
	}
	if len(bad) > 0 {
		return &ValidationError{Platform: platform, Term: t.Name, Fields: bad}
	}
	return nil
}

// Abbreviation is one literal-substring substitution used to shorten
// identifiers. Table order is significant: earlier entries are preferred.
type Abbreviation struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// FitIdentifier shortens name to at most maxLen characters. If abbreviation
// is allowed, the table's substitutions are applied one at a time in order,
// re-checking the length after each, until the name fits or the table is
// exhausted. A name that still does not fit is a fatal error carrying both
// the original and the partially-abbreviated form.
func FitIdentifier(name string, maxLen int, allowAbbrev bool, table []Abbreviation) (string, error) {
	fitted := name
	if allowAbbrev {
		for _, ab := range table {
			if len(fitted) <= maxLen {
				return fitted, nil
			}
			fitted = strings.ReplaceAll(fitted, ab.From, ab.To)
		}
	}
	if len(fitted) <= maxLen {
		return fitted, nil
	}
	return "", &NameTooLongError{Original: name, Abbreviated: fitted, Limit: maxLen}
}
