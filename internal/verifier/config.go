package verifier

import (
	"github.com/a3tai/mcp-doc-verifier/internal/checklist"
	"github.com/a3tai/mcp-doc-verifier/internal/config"
	"github.com/a3tai/mcp-doc-verifier/internal/evidence"
	"github.com/a3tai/mcp-doc-verifier/internal/ocr"
	"github.com/a3tai/mcp-doc-verifier/internal/raster"
)

// NewFromConfig wires poppler rendering and Tesseract recognition according
// to cfg and loads the configured checklist and label table.
func NewFromConfig(cfg *config.Config) (*Service, error) {
	template, err := checklist.LoadTemplate(cfg.ChecklistFile)
	if err != nil {
		return nil, err
	}
	labels, err := evidence.LoadLabels(cfg.LabelsFile)
	if err != nil {
		return nil, err
	}

	rasterizer := raster.NewPoppler(
		raster.WithBinaryPath(cfg.RasterPath),
		raster.WithDPI(cfg.RasterDPI),
		raster.WithTempDir(cfg.TempDir),
	)
	engine := ocr.WithTimeout(ocr.NewTesseractEngine(), cfg.OCRTimeout)

	cfg.Debugf("pipeline: %s at %d DPI, OCR %s (%v), %d checklist items, %d labelled designators",
		rasterizer.BinaryPath(), rasterizer.DPI(), engine.Name(), cfg.OCRLanguages,
		len(template.Items), len(labels.Designators()))

	return NewService(Options{
		Rasterizer:    rasterizer,
		Engine:        engine,
		Template:      template,
		Labels:        labels,
		OCR:           ocr.Options{Languages: cfg.OCRLanguages, DPI: rasterizer.DPI()},
		MaxFileSize:   cfg.MaxFileSize,
		Directory:     cfg.Directory,
		CacheCapacity: cfg.CacheCapacity,
		Logger:        cfg.Logger(),
	})
}
