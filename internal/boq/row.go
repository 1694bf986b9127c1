// Package boq finds the bill-of-quantity table in an acceptance-test document
// and reads (designator, quantity) rows out of its scanned image.
package boq

import (
	"fmt"
	"strconv"
	"strings"
)

// Row is one line of a bill of quantity
type Row struct {
	Designator string `json:"designator" yaml:"designator"`
	Quantity   int    `json:"quantity" yaml:"quantity"`
}

func (r Row) String() string {
	return fmt.Sprintf("%s=%d", r.Designator, r.Quantity)
}

// ParseRow reads a row written as DESIGNATOR=QUANTITY. The designator may
// itself contain '=' only before the last one.
func ParseRow(s string) (Row, error) {
	i := strings.LastIndex(s, "=")
	if i <= 0 {
		return Row{}, fmt.Errorf("row %q: expected DESIGNATOR=QUANTITY", s)
	}
	designator := strings.TrimSpace(s[:i])
	if designator == "" {
		return Row{}, fmt.Errorf("row %q: empty designator", s)
	}
	qty, err := strconv.Atoi(strings.TrimSpace(s[i+1:]))
	if err != nil {
		return Row{}, fmt.Errorf("row %q: invalid quantity: %w", s, err)
	}
	if qty < 0 {
		return Row{}, fmt.Errorf("row %q: quantity must not be negative", s)
	}
	return Row{Designator: designator, Quantity: qty}, nil
}

// DedupePairs drops rows whose (designator, quantity) pair already appeared
func DedupePairs(rows []Row) []Row {
	seen := make(map[Row]bool, len(rows))
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// DedupeDesignators keeps the first row of each designator
func DedupeDesignators(rows []Row) []Row {
	seen := make(map[string]bool, len(rows))
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if seen[r.Designator] {
			continue
		}
		seen[r.Designator] = true
		out = append(out, r)
	}
	return out
}

// Designators returns the designator of every row in order
func Designators(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Designator
	}
	return out
}
