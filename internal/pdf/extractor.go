package pdf

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/a3tai/mcp-doc-verifier/internal/ocr"
	pdferrors "github.com/a3tai/mcp-doc-verifier/internal/pdf/errors"
	"github.com/a3tai/mcp-doc-verifier/internal/raster"
)

// Extractor converts a PDF into an ordered sequence of pages carrying text and a
// raster image, falling back to OCR when the text layer is missing.
type Extractor struct {
	rasterizer   raster.Rasterizer
	engine       ocr.Engine
	ocrOptions   ocr.Options
	ignoreTitles []string
	validator    *Validator
	logger       *log.Logger
}

// ExtractorOption configures an Extractor
type ExtractorOption func(*Extractor)

// WithIgnoreTitles suppresses the text of any page containing one of titles
// (case-insensitive substring). Checklist cover pages list every section title
// and would otherwise satisfy every item.
func WithIgnoreTitles(titles []string) ExtractorOption {
	return func(e *Extractor) {
		e.ignoreTitles = nil
		for _, t := range titles {
			if t = strings.TrimSpace(t); t != "" {
				e.ignoreTitles = append(e.ignoreTitles, strings.ToLower(t))
			}
		}
	}
}

// WithOCROptions overrides the recognition options used for the text fallback
func WithOCROptions(opts ocr.Options) ExtractorOption {
	return func(e *Extractor) {
		e.ocrOptions = opts
	}
}

// WithValidator checks size and header before parsing
func WithValidator(v *Validator) ExtractorOption {
	return func(e *Extractor) {
		e.validator = v
	}
}

// WithLogger sets the logger used for recovered page failures
func WithLogger(logger *log.Logger) ExtractorOption {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor creates an extractor rendering with rasterizer and recognizing
// with engine. The fallback OCR defaults to Indonesian+English with a single
// uniform block segmentation, which copes with pages mixing prose and tables.
func NewExtractor(rasterizer raster.Rasterizer, engine ocr.Engine, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		rasterizer: rasterizer,
		engine:     engine,
		ocrOptions: ocr.Options{
			Languages:   ocr.DefaultLanguages,
			PageSegMode: ocr.PSMSingleBlock,
		},
		logger: log.New(io.Discard, "", 0),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract parses, renders and reads every page of data. Any failure to open or
// render the document, or disagreement between page counts, is returned as an
// *errors.ExtractionError and no partial document is produced. Per-page OCR
// failures are recovered: the page's text becomes empty and the failure is
// recorded in Document.Warnings.
func (e *Extractor) Extract(ctx context.Context, data []byte) (*Document, error) {
	if e.validator != nil {
		if err := e.validator.ValidateBytes(data); err != nil {
			return nil, pdferrors.NewExtractionError(pdferrors.ErrorTypeInvalidDocument, "validate", err)
		}
	}

	structure, err := InspectStructure(data)
	if err != nil {
		return nil, pdferrors.NewExtractionError(pdferrors.ErrorTypeInvalidDocument, "read structure", err)
	}

	layer, err := OpenTextLayer(data)
	if err != nil {
		return nil, pdferrors.NewExtractionError(pdferrors.ErrorTypeInvalidDocument, "open text layer", err)
	}

	images, err := e.rasterizer.Rasterize(ctx, data)
	if err != nil {
		return nil, pdferrors.NewExtractionError(pdferrors.ErrorTypeRasterization, "rasterize", err)
	}

	if err := checkPageCounts(structure.PageCount, layer.NumPage(), len(images)); err != nil {
		return nil, pdferrors.NewExtractionError(pdferrors.ErrorTypePageCountMismatch, "compare page counts", err)
	}

	doc := &Document{
		Pages:     make([]Page, 0, len(images)),
		Structure: structure,
		Warnings:  pdferrors.NewErrorCollection(),
	}

	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extraction canceled at page %d: %w", i+1, err)
		}
		doc.Pages = append(doc.Pages, e.extractPage(ctx, layer, i+1, img, doc.Warnings))
	}

	return doc, nil
}

func (e *Extractor) extractPage(ctx context.Context, layer *TextLayer, number int, img image.Image, warnings *pdferrors.ErrorCollection) Page {
	page := Page{Number: number, Image: img, Source: SourceDigital}

	text, err := layer.PageText(number)
	if err != nil {
		warnings.Add(pdferrors.NewPageProcessingError(pdferrors.ErrorTypeTextLayer, number, err))
		e.logger.Printf("page %d: text layer unreadable, falling back to OCR: %v", number, err)
		text = ""
	}

	if needsOCR(text) {
		page.Source = SourceOCR
		text = e.recognize(ctx, number, img, warnings)
	}

	page.Text = text
	if text == "" {
		page.Source = SourceEmpty
	} else if e.ignored(text) {
		page.Text = ""
		page.Source = SourceIgnored
	}

	return page
}

// needsOCR reports whether a text layer is too short to trust. Length is
// counted in characters, not bytes.
func needsOCR(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) < MinDigitalTextLength
}

// recognize returns the OCR text of a page, or "" when recognition fails
func (e *Extractor) recognize(ctx context.Context, number int, img image.Image, warnings *pdferrors.ErrorCollection) string {
	if e.engine == nil || img == nil {
		return ""
	}

	text, err := e.engine.Recognize(ctx, img, e.ocrOptions)
	if err != nil {
		errorType := pdferrors.ErrorTypeOCR
		if errors.Is(err, context.DeadlineExceeded) {
			errorType = pdferrors.ErrorTypeTimeout
		}
		warnings.Add(pdferrors.NewPageProcessingError(errorType, number, err))
		e.logger.Printf("page %d: OCR failed, continuing without text: %v", number, err)
		return ""
	}
	return text
}

func (e *Extractor) ignored(text string) bool {
	if len(e.ignoreTitles) == 0 {
		return false
	}
	lower := strings.ToLower(text)
	for _, title := range e.ignoreTitles {
		if strings.Contains(lower, title) {
			return true
		}
	}
	return false
}

func checkPageCounts(structural, textLayer, rendered int) error {
	if structural == textLayer && textLayer == rendered {
		return nil
	}
	return fmt.Errorf("structure has %d pages, text layer %d, rendered %d: %w",
		structural, textLayer, rendered, pdferrors.ErrPageCountMismatch)
}
