package pdf

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// TextLayer reads the embedded (digital) text of each page
type TextLayer struct {
	reader *pdf.Reader
}

// OpenTextLayer parses an in-memory document with ledongthuc/pdf
func OpenTextLayer(data []byte) (layer *TextLayer, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			layer = nil
			err = fmt.Errorf("text layer parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &TextLayer{reader: reader}, nil
}

// NumPage returns the number of pages the text layer sees
func (t *TextLayer) NumPage() int {
	return t.reader.NumPage()
}

// PageText returns the plain text of a 1-based page number
func (t *TextLayer) PageText(pageNum int) (text string, err error) {
	if pageNum < 1 || pageNum > t.reader.NumPage() {
		return "", fmt.Errorf("invalid page number %d (document has %d pages)", pageNum, t.reader.NumPage())
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("page %d text extraction panic: %v", pageNum, r)
		}
	}()

	page := t.reader.Page(pageNum)
	if page.V.IsNull() {
		return "", nil
	}

	content, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d text extraction failed: %w", pageNum, err)
	}
	return content, nil
}
