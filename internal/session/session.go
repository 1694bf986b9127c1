// Package session tracks one person's review of an analyzed document: enter
// the verified BOQ, judge the collected evidence, then read the report.
package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/a3tai/mcp-doc-verifier/internal/boq"
	"github.com/a3tai/mcp-doc-verifier/internal/evidence"
	"github.com/a3tai/mcp-doc-verifier/internal/verifier"
)

// Stage is a step of the review
type Stage string

const (
	StageInputBOQ       Stage = "input_boq"
	StageVerifyEvidence Stage = "verify_evidence"
	StageShowReport     Stage = "show_report"
)

// Verdict is the reviewer's judgement of one BOQ row against its evidence
type Verdict string

const (
	VerdictSesuai         Verdict = "sesuai"          // matches
	VerdictTidakSesuai    Verdict = "tidak_sesuai"    // does not match
	VerdictPerluDiperiksa Verdict = "perlu_diperiksa" // needs checking
)

var (
	// ErrInvalidTransition is returned when an operation is not allowed in the current stage
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrNotFound is returned for unknown session IDs
	ErrNotFound = errors.New("session not found")
)

// ParseVerdict accepts the verdict names case-insensitively, with spaces or underscores
func ParseVerdict(s string) (Verdict, error) {
	v := Verdict(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_"))
	switch v {
	case VerdictSesuai, VerdictTidakSesuai, VerdictPerluDiperiksa:
		return v, nil
	default:
		return "", fmt.Errorf("unknown verdict %q (want sesuai, tidak_sesuai or perlu_diperiksa)", s)
	}
}

// Review is a verdict with the reviewer's notes
type Review struct {
	Verdict Verdict `json:"verdict"`
	Notes   string  `json:"notes,omitempty"`
}

// ReportRow is one line of the final report
type ReportRow struct {
	Designator    string  `json:"designator"`
	Quantity      int     `json:"quantity"`
	EvidencePages []int   `json:"evidence_pages"`
	Verdict       Verdict `json:"verdict"`
	Notes         string  `json:"notes,omitempty"`
}

// Session is safe for concurrent use
type Session struct {
	mu        sync.Mutex
	id        string
	createdAt time.Time
	updatedAt time.Time
	analysis  *verifier.Analysis
	stage     Stage
	rows      []boq.Row
	gallery   evidence.Gallery
	reviews   map[string]Review
}

func newSession(id string, a *verifier.Analysis, now time.Time) *Session {
	return &Session{
		id:        id,
		createdAt: now,
		updatedAt: now,
		analysis:  a,
		stage:     StageInputBOQ,
	}
}

func (s *Session) ID() string                   { return s.id }
func (s *Session) Analysis() *verifier.Analysis { return s.analysis }
func (s *Session) CreatedAt() time.Time         { return s.createdAt }

// UpdatedAt returns the time of the last transition
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Stage returns the current stage
func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Rows returns the verified rows
func (s *Session) Rows() []boq.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]boq.Row(nil), s.rows...)
}

// Gallery returns the attached evidence
func (s *Session) Gallery() evidence.Gallery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gallery
}

// SubmitBOQ stores the reviewer's corrected rows and moves to evidence
// verification. Rows are deduplicated by designator, the first one winning.
func (s *Session) SubmitBOQ(rows []boq.Row) ([]boq.Row, error) {
	cleaned := make([]boq.Row, 0, len(rows))
	for i, r := range rows {
		r.Designator = strings.TrimSpace(r.Designator)
		if r.Designator == "" {
			return nil, fmt.Errorf("row %d: designator cannot be empty", i+1)
		}
		if r.Quantity < 0 {
			return nil, fmt.Errorf("row %d (%s): quantity must not be negative", i+1, r.Designator)
		}
		cleaned = append(cleaned, r)
	}
	cleaned = boq.DedupeDesignators(cleaned)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageInputBOQ {
		return nil, fmt.Errorf("%w: cannot submit BOQ in stage %s", ErrInvalidTransition, s.stage)
	}
	s.rows = cleaned
	s.stage = StageVerifyEvidence
	s.touch()
	return append([]boq.Row(nil), cleaned...), nil
}

// AttachEvidence records the gallery collected for the submitted rows
func (s *Session) AttachEvidence(g evidence.Gallery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageVerifyEvidence {
		return fmt.Errorf("%w: cannot attach evidence in stage %s", ErrInvalidTransition, s.stage)
	}
	s.gallery = g
	s.touch()
	return nil
}

// RecordVerdicts stores a review per designator and moves to the report.
// Rows without a review are marked perlu_diperiksa.
func (s *Session) RecordVerdicts(reviews map[string]Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageVerifyEvidence {
		return fmt.Errorf("%w: cannot record verdicts in stage %s", ErrInvalidTransition, s.stage)
	}

	known := make(map[string]bool, len(s.rows))
	for _, r := range s.rows {
		known[r.Designator] = true
	}

	names := make([]string, 0, len(reviews))
	for d := range reviews {
		names = append(names, d)
	}
	sort.Strings(names)

	stored := make(map[string]Review, len(s.rows))
	for _, d := range names {
		if !known[d] {
			return fmt.Errorf("verdict for unknown designator %q", d)
		}
		r := reviews[d]
		v, err := ParseVerdict(string(r.Verdict))
		if err != nil {
			return fmt.Errorf("designator %q: %w", d, err)
		}
		stored[d] = Review{Verdict: v, Notes: strings.TrimSpace(r.Notes)}
	}
	for _, r := range s.rows {
		if _, ok := stored[r.Designator]; !ok {
			stored[r.Designator] = Review{Verdict: VerdictPerluDiperiksa}
		}
	}

	s.reviews = stored
	s.stage = StageShowReport
	s.touch()
	return nil
}

// Report returns one row per verified designator in submission order
func (s *Session) Report() ([]ReportRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageShowReport {
		return nil, fmt.Errorf("%w: report is not available in stage %s", ErrInvalidTransition, s.stage)
	}

	report := make([]ReportRow, 0, len(s.rows))
	for _, r := range s.rows {
		review := s.reviews[r.Designator]
		pages := []int{}
		if s.gallery != nil {
			pages = s.gallery.PageNumbers(r.Designator)
		}
		report = append(report, ReportRow{
			Designator:    r.Designator,
			Quantity:      r.Quantity,
			EvidencePages: pages,
			Verdict:       review.Verdict,
			Notes:         review.Notes,
		})
	}
	return report, nil
}

// Reset discards rows, evidence and verdicts and returns to BOQ input
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage = StageInputBOQ
	s.rows = nil
	s.gallery = nil
	s.reviews = nil
	s.touch()
}

func (s *Session) touch() {
	s.updatedAt = time.Now()
}
