package roundtypes

import "strings"

// Normalize is the single shared string-normalisation routine spec.md §9
// requires every caller of draft updates, submissions, and SHARED_10 key
// building to share: trim, collapse interior whitespace runs to one space,
// truncate to 48 runes.
func Normalize(s string) string {
	fields := strings.Fields(s)
	joined := strings.Join(fields, " ")
	r := []rune(joined)
	if len(r) > 48 {
		r = r[:48]
	}
	return string(r)
}

// NormalizeForCompare additionally lowercases, the extra step SHARED_10
// scoring and duplicate-name detection apply on top of Normalize.
func NormalizeForCompare(s string) string {
	return strings.ToLower(Normalize(s))
}
