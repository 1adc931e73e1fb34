// Package refs extracts goal and review references from notification
// text so the inbox can offer jump-to-item navigation.
package refs

import (
	"regexp"
	"strings"
)

// Ref kinds.
const (
	KindGoal   = "goal"
	KindReview = "review"
)

// Ref is a single goal or review mention found in text.
type Ref struct {
	Kind string
	ID   string
}

// refPattern matches goal and review identifiers (e.g., G-123, R-45).
var refPattern = regexp.MustCompile(`\b([GR]-\d+)\b`)

// Extract returns all goal and review references in text.
// Returns a deduplicated list preserving the order of first occurrence.
func Extract(text string) []Ref {
	matches := refPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var result []Ref
	for _, m := range matches {
		if seen[m] {
			continue
		}
		seen[m] = true

		kind := KindReview
		if strings.HasPrefix(m, "G-") {
			kind = KindGoal
		}
		result = append(result, Ref{Kind: kind, ID: m})
	}
	return result
}

// KnownOnly filters refs to those whose ID appears in the known set,
// so navigation is only offered for items that are actually loaded.
// A nil or empty set returns refs unchanged.
func KnownOnly(fs []Ref, known map[string]bool) []Ref {
	if len(known) == 0 {
		return fs
	}

	var filtered []Ref
	for _, r := range fs {
		if known[r.ID] {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
