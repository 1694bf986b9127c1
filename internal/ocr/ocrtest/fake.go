// Package ocrtest provides a scripted OCR engine for tests.
package ocrtest

import (
	"context"
	"image"
	"image/color"
	"sync"

	"github.com/a3tai/mcp-doc-verifier/internal/ocr"
)

// Engine returns canned text per image. Images are matched by identity, so
// tests should pass the same image values they registered.
type Engine struct {
	mu       sync.Mutex
	texts    map[image.Image]string
	failures map[image.Image]error
	calls    []ocr.Options
	Default  string
}

// New creates an empty scripted engine
func New() *Engine {
	return &Engine{
		texts:    make(map[image.Image]string),
		failures: make(map[image.Image]error),
	}
}

// On registers the text returned for img
func (e *Engine) On(img image.Image, text string) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.texts[img] = text
	return e
}

// Fail registers an error returned for img
func (e *Engine) Fail(img image.Image, err error) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[img] = err
	return e
}

func (e *Engine) Name() string { return "scripted" }

func (e *Engine) Recognize(ctx context.Context, img image.Image, opts ocr.Options) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, opts)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err, ok := e.failures[img]; ok {
		return "", err
	}
	if text, ok := e.texts[img]; ok {
		return text, nil
	}
	return e.Default, nil
}

// Calls returns the options of every Recognize call so far
func (e *Engine) Calls() []ocr.Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ocr.Options(nil), e.calls...)
}

// Page returns a distinct blank page image. The shade keeps images built from
// different seeds visibly different when dumped during debugging.
func Page(seed int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 40, 56))
	shade := color.Gray{Y: uint8(255 - seed%32)}
	for i := range img.Pix {
		img.Pix[i] = shade.Y
	}
	return img
}
