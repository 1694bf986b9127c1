package boq

import (
	"context"
	"image"
	"strings"

	"github.com/a3tai/mcp-doc-verifier/internal/ocr"
)

// NotFound is returned by the locators when no page looks like a BOQ table
const NotFound = -1

var (
	// primaryKeywords are column headers that must all be present
	primaryKeywords = []string{"uraian pekerjaan", "satuan"}
	// quantityKeywords name the quantity column; one is enough
	quantityKeywords = []string{"aktual", "volume", "jumlah"}
	// fallbackTitles are looser page titles used when no header matched
	fallbackTitles = []string{"bill of quantity", "boq uji terima"}
)

// Locate returns the 0-based index of the first page whose text carries the
// BOQ column headers, else the first page carrying a BOQ title, else NotFound.
func Locate(texts []string) int {
	normalized := make([]string, len(texts))
	for i, t := range texts {
		normalized[i] = strings.Join(strings.Fields(strings.ToLower(t)), " ")
	}

	for i, t := range normalized {
		if containsAll(t, primaryKeywords) && containsAny(t, quantityKeywords) {
			return i
		}
	}
	for i, t := range normalized {
		if containsAny(t, fallbackTitles) {
			return i
		}
	}
	return NotFound
}

// LocateImages OCRs every image with automatic segmentation and locates the
// BOQ page in the recognized text. Pages that fail OCR count as empty.
func LocateImages(ctx context.Context, engine ocr.Engine, images []image.Image, opts ocr.Options) int {
	opts = opts.WithPSM(ocr.PSMAuto)
	texts := make([]string, len(images))
	for i, img := range images {
		if ctx.Err() != nil {
			break
		}
		if img == nil {
			continue
		}
		text, err := engine.Recognize(ctx, img, opts)
		if err != nil {
			continue
		}
		texts[i] = text
	}
	return Locate(texts)
}

func containsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
