package checklist

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// collapse lowercases s and folds every run of whitespace, newlines included,
// into a single space.
func collapse(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// normalizeTitle prepares a line or keyword for title comparison. NFKC folds
// the ligatures and full-width forms OCR sometimes produces.
func normalizeTitle(s string) string {
	return collapse(norm.NFKC.String(s))
}
