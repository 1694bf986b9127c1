// Package ocr recognizes text on rendered page images.
//
// The default engine wraps Tesseract via gosseract and requires the tesseract
// binary and trained data for every requested language. On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr tesseract-ocr-ind
package ocr

import (
	"context"
	"image"
)

// PageSegMode selects how the engine analyzes page layout. Values follow the
// Tesseract --psm numbering.
type PageSegMode int

const (
	// PSMAuto is fully automatic segmentation without orientation detection.
	PSMAuto PageSegMode = 3
	// PSMSingleColumn assumes a single column of text of variable sizes.
	PSMSingleColumn PageSegMode = 4
	// PSMSingleBlock assumes a single uniform block of text.
	PSMSingleBlock PageSegMode = 6
)

// DefaultLanguages are the trained-data languages used for Indonesian reports
// with English technical vocabulary.
var DefaultLanguages = []string{"ind", "eng"}

// Options configures a single recognition call
type Options struct {
	Languages   []string
	PageSegMode PageSegMode
	// DPI is the effective resolution of the image; zero lets the engine guess.
	DPI int
}

// Engine recognizes the text of one image per call.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image, opts Options) (string, error)
}

// WithPSM returns a copy of opts using the given page segmentation mode
func (o Options) WithPSM(mode PageSegMode) Options {
	o.PageSegMode = mode
	return o
}

// languages returns the configured languages or the defaults
func (o Options) languages() []string {
	if len(o.Languages) == 0 {
		return DefaultLanguages
	}
	return o.Languages
}
