package pdf

import (
	"bytes"
	"context"
	"errors"
	"image"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-doc-verifier/internal/ocr"
	"github.com/a3tai/mcp-doc-verifier/internal/ocr/ocrtest"
	pdferrors "github.com/a3tai/mcp-doc-verifier/internal/pdf/errors"
	"github.com/a3tai/mcp-doc-verifier/internal/pdf/pdftest"
)

type stubRasterizer struct {
	images []image.Image
	err    error
}

func (s *stubRasterizer) Rasterize(ctx context.Context, data []byte) ([]image.Image, error) {
	return s.images, s.err
}

func pages(n int) []image.Image {
	images := make([]image.Image, n)
	for i := range images {
		images[i] = ocrtest.Page(i)
	}
	return images
}

const digitalCover = "BERITA ACARA UJI TERIMA\nPekerjaan pemasangan jaringan fiber optik"

func TestExtractor_DigitalAndOCRFallback(t *testing.T) {
	images := pages(3)
	engine := ocrtest.New().
		On(images[1], "LAPORAN UJI TERIMA hasil scan").
		On(images[2], "")

	extractor := NewExtractor(&stubRasterizer{images: images}, engine)
	doc, err := extractor.Extract(context.Background(), pdftest.Build(digitalCover, "", "short"))
	require.NoError(t, err)
	require.Equal(t, 3, doc.PageCount())

	assert.Equal(t, SourceDigital, doc.Pages[0].Source)
	assert.Contains(t, doc.Pages[0].Text, "BERITA")
	assert.Same(t, images[0], doc.Pages[0].Image)

	assert.Equal(t, SourceOCR, doc.Pages[1].Source)
	assert.Equal(t, "LAPORAN UJI TERIMA hasil scan", doc.Pages[1].Text)

	// short text layer is replaced by OCR, which found nothing
	assert.Equal(t, SourceEmpty, doc.Pages[2].Source)
	assert.Empty(t, doc.Pages[2].Text)

	calls := engine.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, ocr.PSMSingleBlock, calls[0].PageSegMode)
	assert.Equal(t, ocr.DefaultLanguages, calls[0].Languages)

	assert.Equal(t, 0, doc.Warnings.Count())
	for i, p := range doc.Pages {
		assert.Equal(t, i+1, p.Number)
		assert.Equal(t, i, p.Index())
	}
}

func TestExtractor_IgnoreTitles(t *testing.T) {
	images := pages(2)
	engine := ocrtest.New().On(images[1], "Daftar isi: CHECKLIST DOKUMEN UJI TERIMA")

	var logs bytes.Buffer
	extractor := NewExtractor(&stubRasterizer{images: images}, engine,
		WithIgnoreTitles([]string{"  ", "checklist dokumen"}),
		WithLogger(log.New(&logs, "", 0)))

	doc, err := extractor.Extract(context.Background(), pdftest.Build(digitalCover, ""))
	require.NoError(t, err)

	assert.Equal(t, SourceDigital, doc.Pages[0].Source)
	assert.Equal(t, SourceIgnored, doc.Pages[1].Source)
	assert.False(t, doc.Pages[1].HasText())
	assert.Equal(t, map[TextSource]int{SourceDigital: 1, SourceIgnored: 1}, doc.SourceCounts())
}

func TestExtractor_OCRFailureIsRecovered(t *testing.T) {
	images := pages(2)
	engine := ocrtest.New().
		Fail(images[0], errors.New("tesseract crashed")).
		Fail(images[1], context.DeadlineExceeded)

	var logs bytes.Buffer
	extractor := NewExtractor(&stubRasterizer{images: images}, engine, WithLogger(log.New(&logs, "", 0)))
	doc, err := extractor.Extract(context.Background(), pdftest.Build("", ""))
	require.NoError(t, err)

	assert.Empty(t, doc.Pages[0].Text)
	assert.Empty(t, doc.Pages[1].Text)
	require.Equal(t, 2, doc.Warnings.Count())
	assert.Equal(t, pdferrors.ErrorTypeOCR, doc.Warnings.Errors[0].Type)
	assert.Equal(t, pdferrors.ErrorTypeTimeout, doc.Warnings.Errors[1].Type)
	assert.Equal(t, []int{1, 2}, doc.Warnings.Pages())
	assert.Contains(t, logs.String(), "page 1: OCR failed")
}

func TestExtractor_FatalErrors(t *testing.T) {
	valid := pdftest.Build(digitalCover, digitalCover)

	tests := []struct {
		name       string
		data       []byte
		rasterizer *stubRasterizer
		wantType   pdferrors.ErrorType
		wantIs     error
	}{
		{
			name:       "unreadable document",
			data:       []byte("%PDF-1.4\ngarbage"),
			rasterizer: &stubRasterizer{images: pages(1)},
			wantType:   pdferrors.ErrorTypeInvalidDocument,
		},
		{
			name:       "rasterizer failure",
			data:       valid,
			rasterizer: &stubRasterizer{err: errors.New("pdftoppm: not found")},
			wantType:   pdferrors.ErrorTypeRasterization,
		},
		{
			name:       "page count mismatch",
			data:       valid,
			rasterizer: &stubRasterizer{images: pages(3)},
			wantType:   pdferrors.ErrorTypePageCountMismatch,
			wantIs:     pdferrors.ErrPageCountMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewExtractor(tt.rasterizer, ocrtest.New()).Extract(context.Background(), tt.data)
			require.Error(t, err)
			assert.Nil(t, doc)

			var extractionErr *pdferrors.ExtractionError
			require.ErrorAs(t, err, &extractionErr)
			assert.Equal(t, tt.wantType, extractionErr.Type)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
		})
	}
}

func TestExtractor_Validator(t *testing.T) {
	extractor := NewExtractor(&stubRasterizer{images: pages(1)}, ocrtest.New(), WithValidator(NewValidator(10)))
	_, err := extractor.Extract(context.Background(), pdftest.Build(digitalCover))
	require.Error(t, err)
	assert.True(t, pdferrors.IsExtractionError(err))
	assert.Contains(t, err.Error(), "too large")
}

func TestExtractor_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExtractor(&stubRasterizer{images: pages(1)}, ocrtest.New()).Extract(ctx, pdftest.Build(digitalCover))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractor_Deterministic(t *testing.T) {
	images := pages(2)
	engine := ocrtest.New().On(images[1], "hasil OCR halaman dua")
	extractor := NewExtractor(&stubRasterizer{images: images}, engine)
	data := pdftest.Build(digitalCover, "")

	first, err := extractor.Extract(context.Background(), data)
	require.NoError(t, err)
	second, err := extractor.Extract(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, first.Texts(), second.Texts())
}

func TestNeedsOCR(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "empty", text: "", want: true},
		{name: "whitespace only", text: " \n\t ", want: true},
		{name: "16 characters after trim", text: "  BERITA ACARA UJI   ", want: true},
		{name: "20 characters", text: "BERITA ACARA UJI TER", want: false},
		// 12 characters, 24 bytes
		{name: "multibyte below threshold", text: "éééééééééééé", want: true},
		// 19 characters, 21 bytes
		{name: "multibyte 19 characters", text: "Pekerjaan selesai ✓", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, needsOCR(tt.text))
		})
	}
}
