package checklist

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// TitleThreshold is the minimum similarity ratio, in percent, for a line to
// count as a title match.
const TitleThreshold = 85

// similar reports whether 1 - dist/max(len(a), len(b)) >= TitleThreshold/100.
// Integer arithmetic keeps a ratio of exactly 0.85 on the matching side.
func similar(a, b string) bool {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return false
	}
	dist := levenshtein.ComputeDistance(a, b)
	return (longest-dist)*100 >= TitleThreshold*longest
}
