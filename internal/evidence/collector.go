// Package evidence finds, for each verified BOQ designator, the pages whose
// photo captions show that item was installed.
package evidence

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/a3tai/mcp-doc-verifier/internal/boq"
	"github.com/a3tai/mcp-doc-verifier/internal/ocr"
	"github.com/a3tai/mcp-doc-verifier/internal/pdf"
)

// Gallery maps a designator to the pages showing it, in page order
type Gallery map[string][]pdf.Page

// PageNumbers returns the 1-based page numbers collected for designator
func (g Gallery) PageNumbers(designator string) []int {
	pages := g[designator]
	out := make([]int, len(pages))
	for i, p := range pages {
		out[i] = p.Number
	}
	return out
}

// Collector OCRs document pages and matches them against a label table
type Collector struct {
	engine  ocr.Engine
	labels  *Labels
	options ocr.Options
	logger  *log.Logger
}

// NewCollector creates a collector. Pages are recognized with automatic
// segmentation since captions are scattered around photos.
func NewCollector(engine ocr.Engine, labels *Labels, opts ocr.Options, logger *log.Logger) *Collector {
	if labels == nil {
		labels = DefaultLabels()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Collector{
		engine:  engine,
		labels:  labels,
		options: opts.WithPSM(ocr.PSMAuto),
		logger:  logger,
	}
}

// Labels returns the collector's label table
func (c *Collector) Labels() *Labels {
	return c.labels
}

// Collect returns a gallery with an entry for every row designator. The BOQ
// page and pages without extracted text are skipped; a page that fails OCR is
// skipped as well. Designators absent from the label table keep an empty list.
// When ctx ends before every page was scanned the partial gallery is returned
// with ctx's error.
func (c *Collector) Collect(ctx context.Context, pages []pdf.Page, rows []boq.Row, boqPageIndex int) (Gallery, error) {
	gallery := make(Gallery, len(rows))
	var wanted []string
	for _, r := range rows {
		if _, ok := gallery[r.Designator]; ok {
			continue
		}
		gallery[r.Designator] = []pdf.Page{}
		if c.labels.Has(r.Designator) {
			wanted = append(wanted, r.Designator)
		}
	}
	if len(wanted) == 0 || c.engine == nil {
		return gallery, nil
	}

	for _, page := range pages {
		if page.Index() == boqPageIndex || !page.HasText() || page.Image == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return gallery, fmt.Errorf("evidence collection stopped before page %d: %w", page.Number, err)
		}

		text, err := c.engine.Recognize(ctx, page.Image, c.options)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return gallery, fmt.Errorf("evidence collection stopped at page %d: %w", page.Number, ctxErr)
			}
			c.logger.Printf("evidence: page %d skipped, OCR failed: %v", page.Number, err)
			continue
		}

		for _, designator := range wanted {
			if c.labels.Matches(designator, text) {
				gallery[designator] = append(gallery[designator], page)
			}
		}
	}

	return gallery, nil
}
