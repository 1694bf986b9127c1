// Package verifier runs the document pipeline: extraction, checklist
// matching, BOQ location and table reading, and evidence collection.
package verifier

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/a3tai/mcp-doc-verifier/internal/boq"
	"github.com/a3tai/mcp-doc-verifier/internal/cache"
	"github.com/a3tai/mcp-doc-verifier/internal/checklist"
	"github.com/a3tai/mcp-doc-verifier/internal/evidence"
	"github.com/a3tai/mcp-doc-verifier/internal/ocr"
	"github.com/a3tai/mcp-doc-verifier/internal/pdf"
	pdferrors "github.com/a3tai/mcp-doc-verifier/internal/pdf/errors"
	"github.com/a3tai/mcp-doc-verifier/internal/raster"
)

// Analysis is everything learned from one document before a person reviews it
type Analysis struct {
	Key          string             `json:"key"`
	FileName     string             `json:"file_name,omitempty"`
	Document     *pdf.Document      `json:"document"`
	Checklist    []checklist.Result `json:"checklist"`
	BOQPageIndex int                `json:"boq_page_index"`
	AutoRows     []boq.Row          `json:"auto_rows"`
	AnalyzedAt   time.Time          `json:"analyzed_at"`
	Duration     time.Duration      `json:"duration"`
}

// HasBOQ reports whether a BOQ page was located
func (a *Analysis) HasBOQ() bool {
	return a.BOQPageIndex != boq.NotFound
}

// BOQPageNumber returns the 1-based BOQ page, or 0 when none was found
func (a *Analysis) BOQPageNumber() int {
	if !a.HasBOQ() {
		return 0
	}
	return a.BOQPageIndex + 1
}

// Options configures a Service
type Options struct {
	Rasterizer    raster.Rasterizer
	Engine        ocr.Engine
	Template      *checklist.Template // nil uses the built-in checklist
	Labels        *evidence.Labels    // nil uses the built-in label table
	OCR           ocr.Options
	MaxFileSize   int64
	Directory     string
	CacheCapacity int
	Logger        *log.Logger
}

// Service analyzes documents and memoizes the results by content
type Service struct {
	template  *checklist.Template
	matcher   *checklist.Matcher
	extractor *pdf.Extractor
	tables    *boq.TableExtractor
	collector *evidence.Collector
	engine    ocr.Engine
	ocr       ocr.Options
	validator *pdf.Validator
	paths     *PathGuard
	cache     *cache.Cache[*Analysis]
	logger    *log.Logger
}

// NewService builds a service; it fails when the checklist does not compile
func NewService(opts Options) (*Service, error) {
	if opts.Rasterizer == nil {
		return nil, fmt.Errorf("a rasterizer is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("an OCR engine is required")
	}

	template := opts.Template
	if template == nil {
		template = checklist.DefaultTemplate()
	}
	matcher, err := template.Matcher()
	if err != nil {
		return nil, fmt.Errorf("invalid checklist: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	validator := pdf.NewValidator(opts.MaxFileSize)
	extractor := pdf.NewExtractor(opts.Rasterizer, opts.Engine,
		pdf.WithIgnoreTitles(template.IgnoreTitles),
		pdf.WithOCROptions(opts.OCR.WithPSM(ocr.PSMSingleBlock)),
		pdf.WithValidator(validator),
		pdf.WithLogger(logger),
	)

	return &Service{
		template:  template,
		matcher:   matcher,
		extractor: extractor,
		tables:    boq.NewTableExtractor(opts.Engine, opts.OCR, logger),
		collector: evidence.NewCollector(opts.Engine, opts.Labels, opts.OCR, logger),
		engine:    opts.Engine,
		ocr:       opts.OCR,
		validator: validator,
		paths:     NewPathGuard(opts.Directory),
		cache:     cache.New[*Analysis](opts.CacheCapacity),
		logger:    logger,
	}, nil
}

// Template returns the checklist in use
func (s *Service) Template() *checklist.Template {
	return s.template
}

// Labels returns the evidence label table in use
func (s *Service) Labels() *evidence.Labels {
	return s.collector.Labels()
}

// CacheStats returns analysis cache statistics
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// Invalidate drops a cached analysis
func (s *Service) Invalidate(key string) bool {
	return s.cache.Invalidate(key)
}

// Analyze runs the pipeline on data, or returns the cached analysis of
// identical bytes.
func (s *Service) Analyze(ctx context.Context, data []byte) (*Analysis, error) {
	if err := s.validator.ValidateBytes(data); err != nil {
		return nil, pdferrors.NewExtractionError(pdferrors.ErrorTypeInvalidDocument, "validate", err)
	}

	key := cache.Key(data)
	if a, ok := s.cache.Get(key); ok {
		s.logger.Printf("analysis %s served from cache", key[:12])
		return a, nil
	}

	start := time.Now()
	doc, err := s.extractor.Extract(ctx, data)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		Key:        key,
		Document:   doc,
		Checklist:  s.matcher.Match(doc.Texts()),
		AutoRows:   []boq.Row{},
		AnalyzedAt: start,
	}

	a.BOQPageIndex = boq.Locate(doc.Texts())
	if a.BOQPageIndex == boq.NotFound {
		a.BOQPageIndex = boq.LocateImages(ctx, s.engine, doc.Images(), s.ocr)
	}
	if page, ok := doc.Page(a.BOQPageIndex); ok {
		a.AutoRows = s.tables.Extract(ctx, page.Image)
	}

	a.Duration = time.Since(start)
	s.logger.Printf("analysis %s: %d pages, BOQ page %d, %s, %s",
		key[:12], doc.PageCount(), a.BOQPageNumber(), boq.Summary(a.AutoRows), doc.Warnings.Summary())

	if err := ctx.Err(); err != nil {
		// partial OCR results must not be memoized
		return nil, err
	}
	s.cache.Put(key, a)
	return a, nil
}

// AnalyzeFile reads a document from a path under the configured directory
func (s *Service) AnalyzeFile(ctx context.Context, path string) (*Analysis, error) {
	resolved, err := s.paths.Resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := s.validator.ReadFile(resolved)
	if err != nil {
		return nil, err
	}
	a, err := s.Analyze(ctx, data)
	if err != nil {
		return nil, err
	}
	// cached values are shared; record the name on a copy
	named := *a
	named.FileName = resolved
	return &named, nil
}

// CollectEvidence gathers evidence pages for verified rows of an analysis. An
// error means ctx ended before every page was scanned.
func (s *Service) CollectEvidence(ctx context.Context, a *Analysis, rows []boq.Row) (evidence.Gallery, error) {
	return s.collector.Collect(ctx, a.Document.Pages, rows, a.BOQPageIndex)
}
