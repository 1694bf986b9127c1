package pdf

import (
	"image"

	pdferrors "github.com/a3tai/mcp-doc-verifier/internal/pdf/errors"
)

// MinDigitalTextLength is the trimmed length below which a page's text layer is
// considered missing and the page is OCRed instead.
const MinDigitalTextLength = 20

// TextSource records where a page's text came from
type TextSource string

const (
	SourceDigital TextSource = "digital"
	SourceOCR     TextSource = "ocr"
	SourceIgnored TextSource = "ignored"
	SourceEmpty   TextSource = "empty"
)

// Page is one extracted page. Pages are values and never modified after extraction.
type Page struct {
	Number int         `json:"number"` // 1-based
	Text   string      `json:"text"`
	Source TextSource  `json:"source"`
	Image  image.Image `json:"-"`
}

// Index returns the 0-based position of the page in its document
func (p Page) Index() int {
	return p.Number - 1
}

// HasText reports whether the page carries any text after extraction
func (p Page) HasText() bool {
	return p.Text != ""
}

// Document is the ordered page sequence of one PDF
type Document struct {
	Pages     []Page                     `json:"pages"`
	Structure *Structure                 `json:"structure"`
	Warnings  *pdferrors.ErrorCollection `json:"warnings"`
}

// PageCount returns the number of pages in the document
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// Texts returns the text of every page in order
func (d *Document) Texts() []string {
	texts := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		texts[i] = p.Text
	}
	return texts
}

// Images returns the raster of every page in order
func (d *Document) Images() []image.Image {
	images := make([]image.Image, len(d.Pages))
	for i, p := range d.Pages {
		images[i] = p.Image
	}
	return images
}

// Page returns the page at a 0-based index
func (d *Document) Page(index int) (Page, bool) {
	if index < 0 || index >= len(d.Pages) {
		return Page{}, false
	}
	return d.Pages[index], true
}

// SourceCounts tallies pages per text source
func (d *Document) SourceCounts() map[TextSource]int {
	counts := make(map[TextSource]int)
	for _, p := range d.Pages {
		counts[p.Source]++
	}
	return counts
}

// Structure carries what the structural parser learned about the file
type Structure struct {
	PageCount int    `json:"page_count"`
	Version   string `json:"version"`
	Encrypted bool   `json:"encrypted"`
	// ValidationIssue is set when relaxed validation reported a problem the
	// readers could still work around.
	ValidationIssue string `json:"validation_issue,omitempty"`
}
