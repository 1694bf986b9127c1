// Package raster renders PDF pages to images with an external engine.
//
// The default engine is poppler's pdftoppm, the same renderer most PDF-to-image
// tooling uses. On Ubuntu/Debian it ships in the poppler-utils package.
package raster

import (
	"context"
	"image"
	"time"
)

const (
	// DefaultDPI preserves OCR legibility of small table fonts.
	DefaultDPI = 200
	// MinDPI is the lowest resolution accepted for OCR input.
	MinDPI = 150
	// DefaultBinary is looked up on PATH when no explicit path is configured.
	DefaultBinary = "pdftoppm"
)

// Rasterizer renders every page of a PDF, in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, data []byte) ([]image.Image, error)
}

type config struct {
	binaryPath string
	dpi        int
	tempDir    string
	timeout    time.Duration
}

func defaultConfig() config {
	return config{
		binaryPath: DefaultBinary,
		dpi:        DefaultDPI,
		timeout:    2 * time.Minute,
	}
}

// Option configures a Poppler rasterizer.
type Option func(*config)

// WithBinaryPath sets the path to the pdftoppm executable. An empty path keeps
// the default PATH lookup.
func WithBinaryPath(path string) Option {
	return func(c *config) {
		if path != "" {
			c.binaryPath = path
		}
	}
}

// WithDPI sets the render resolution. Values below MinDPI are raised to MinDPI.
func WithDPI(dpi int) Option {
	return func(c *config) {
		if dpi < MinDPI {
			dpi = MinDPI
		}
		c.dpi = dpi
	}
}

// WithTempDir sets the parent directory for per-call scratch directories.
// Empty means os.TempDir().
func WithTempDir(dir string) Option {
	return func(c *config) {
		c.tempDir = dir
	}
}

// WithTimeout bounds a single rasterization run. A zero or negative value
// disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}
