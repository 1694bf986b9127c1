package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the categories of failures the document pipeline distinguishes
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeInvalidDocument
	ErrorTypeRasterization
	ErrorTypePageCountMismatch
	ErrorTypeTextLayer
	ErrorTypeOCR
	ErrorTypeTimeout
)

// ErrPageCountMismatch is wrapped by an ExtractionError when the text layer, the
// structural page count and the rendered images disagree on the number of pages.
var ErrPageCountMismatch = errors.New("page count mismatch")

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeInvalidDocument:
		return "INVALID_DOCUMENT"
	case ErrorTypeRasterization:
		return "RASTERIZATION"
	case ErrorTypePageCountMismatch:
		return "PAGE_COUNT_MISMATCH"
	case ErrorTypeTextLayer:
		return "TEXT_LAYER"
	case ErrorTypeOCR:
		return "OCR"
	case ErrorTypeTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// IsRecoverable reports whether processing of the document may continue after an
// error of this type. Only per-page failures are recoverable.
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeTextLayer, ErrorTypeOCR, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// ExtractionError is fatal for a document: it could not be opened, rendered, or the
// page sequences disagree. No partial document accompanies it.
type ExtractionError struct {
	Type      ErrorType `json:"type"`
	Op        string    `json:"op"`
	Err       error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExtractionError creates a new ExtractionError for the given operation
func NewExtractionError(errorType ErrorType, op string, err error) *ExtractionError {
	return &ExtractionError{
		Type:      errorType,
		Op:        op,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface
func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] extraction failed during %s", e.Type, e.Op)
	}
	return fmt.Sprintf("[%s] extraction failed during %s: %v", e.Type, e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// PageProcessingError records a recoverable failure on a single page. The page's
// text degrades to the empty string and processing continues.
type PageProcessingError struct {
	Type       ErrorType `json:"type"`
	PageNumber int       `json:"page_number"`
	Err        error     `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewPageProcessingError creates a new PageProcessingError for a 1-based page number
func NewPageProcessingError(errorType ErrorType, pageNumber int, err error) *PageProcessingError {
	return &PageProcessingError{
		Type:       errorType,
		PageNumber: pageNumber,
		Err:        err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *PageProcessingError) Error() string {
	return fmt.Sprintf("[%s] page %d: %v", e.Type, e.PageNumber, e.Err)
}

// Unwrap returns the underlying error
func (e *PageProcessingError) Unwrap() error {
	return e.Err
}

// IsExtractionError reports whether err carries an ExtractionError anywhere in its chain
func IsExtractionError(err error) bool {
	var extractionErr *ExtractionError
	return errors.As(err, &extractionErr)
}

// ErrorCollection accumulates the recoverable page errors of one document
type ErrorCollection struct {
	Errors []*PageProcessingError `json:"errors"`
}

// NewErrorCollection creates a new error collection
func NewErrorCollection() *ErrorCollection {
	return &ErrorCollection{
		Errors: make([]*PageProcessingError, 0),
	}
}

// Add appends a page error to the collection
func (ec *ErrorCollection) Add(err *PageProcessingError) {
	if err == nil {
		return
	}
	ec.Errors = append(ec.Errors, err)
}

// Count returns the number of collected errors
func (ec *ErrorCollection) Count() int {
	return len(ec.Errors)
}

// Pages returns the page numbers that recorded at least one error, in insertion order
func (ec *ErrorCollection) Pages() []int {
	seen := make(map[int]bool, len(ec.Errors))
	pages := make([]int, 0, len(ec.Errors))
	for _, err := range ec.Errors {
		if seen[err.PageNumber] {
			continue
		}
		seen[err.PageNumber] = true
		pages = append(pages, err.PageNumber)
	}
	return pages
}

// Summary returns a text summary of the collected errors
func (ec *ErrorCollection) Summary() string {
	if len(ec.Errors) == 0 {
		return "No page errors"
	}
	return fmt.Sprintf("Found %d page error(s) on %d page(s)", len(ec.Errors), len(ec.Pages()))
}
