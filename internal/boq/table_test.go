package boq

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-doc-verifier/internal/ocr"
	"github.com/a3tai/mcp-doc-verifier/internal/ocr/ocrtest"
)

func TestParseRows(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Row
	}{
		{
			name: "sequence number dropped, second to last taken",
			text: "1 SC-OF-SM-24 pcs 24 24",
			want: []Row{{Designator: "SC-OF-SM-24", Quantity: 24}},
		},
		{
			name: "planned and actual columns",
			text: "2 | PU-S9.0-140 | Tiang besi 9m | btg pcs | 10 | 12 | 12 |",
			want: []Row{{Designator: "PU-S9.0-140", Quantity: 12}},
		},
		{
			name: "bordered row keeps sequence number out",
			text: "| 1 | X-1 | pcs | 5 |",
			want: []Row{{Designator: "X-1", Quantity: 5}},
		},
		{
			name: "bordered row with attached pipes",
			text: "|1| SC-OF-SM-24 |pcs| 24 | 20 |",
			want: []Row{{Designator: "SC-OF-SM-24", Quantity: 24}},
		},
		{
			name: "single remaining number",
			text: "AC-OF-SM-ADSS-120 kabel meter 850",
			want: []Row{{Designator: "AC-OF-SM-ADSS-120", Quantity: 850}},
		},
		{
			name: "no unit token",
			text: "3 SC-OF-SM-24 sambungan 24 24",
			want: []Row{},
		},
		{
			name: "unit as part of a word does not count",
			text: "4 OS-SM-1 pcsx 5 5",
			want: []Row{},
		},
		{
			name: "zero quantity dropped",
			text: "5 PU-AS-SC buah 0 0",
			want: []Row{},
		},
		{
			name: "no designator in leading tokens",
			text: "6 kabel drop pole buah pcs 4 4",
			want: []Row{},
		},
		{
			name: "short and header lines skipped",
			text: "pcs\nBILL OF QUANTITY\nNO DESIGNATOR URAIAN PEKERJAAN SATUAN VOLUME\n7 PU-AS-SC buah 6 6",
			want: []Row{{Designator: "PU-AS-SC", Quantity: 6}},
		},
		{
			name: "exact duplicates removed, differing quantities kept",
			text: "1 SC-OF-SM-24 pcs 24 24\n1 SC-OF-SM-24 pcs 24 24\n9 SC-OF-SM-24 pcs 3 3",
			want: []Row{{Designator: "SC-OF-SM-24", Quantity: 24}, {Designator: "SC-OF-SM-24", Quantity: 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRows(tt.text))
		})
	}
}

func TestTableExtractor_BlankImage(t *testing.T) {
	engine := ocrtest.New()
	extractor := NewTableExtractor(engine, ocr.Options{}, nil)

	blank := image.NewGray(image.Rect(0, 0, 60, 40))
	for i := range blank.Pix {
		blank.Pix[i] = 255
	}

	rows := extractor.Extract(context.Background(), blank)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	assert.Empty(t, extractor.Extract(context.Background(), nil))
	assert.Empty(t, extractor.Extract(context.Background(), image.NewGray(image.Rectangle{})))
}

func TestTableExtractor_ParsesOCRText(t *testing.T) {
	engine := ocrtest.New()
	engine.Default = "NO DESIGNATOR URAIAN PEKERJAAN SATUAN VOLUME\n1 SC-OF-SM-24 pcs 24 24\n2 PU-AS-SC buah 6 6"
	extractor := NewTableExtractor(engine, ocr.Options{Languages: []string{"ind"}, PageSegMode: ocr.PSMAuto}, nil)

	rows := extractor.Extract(context.Background(), image.NewGray(image.Rect(0, 0, 30, 20)))
	assert.Equal(t, []Row{{"SC-OF-SM-24", 24}, {"PU-AS-SC", 6}}, rows)

	calls := engine.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, ocr.PSMSingleBlock, calls[0].PageSegMode)
	assert.Equal(t, []string{"ind"}, calls[0].Languages)
}

func TestTableExtractor_OCRFailure(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 30, 20))
	failing := &failingEngine{err: errors.New("tesseract: no data")}
	rows := NewTableExtractor(failing, ocr.Options{}, nil).Extract(context.Background(), img)
	assert.Empty(t, rows)
}

type failingEngine struct{ err error }

func (f *failingEngine) Name() string { return "failing" }

func (f *failingEngine) Recognize(ctx context.Context, img image.Image, opts ocr.Options) (string, error) {
	return "", f.err
}

func TestPreprocess(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			src.Set(x, y, color.White)
		}
	}
	// a dark stroke on a light page
	for x := 10; x < 30; x++ {
		for y := 8; y < 12; y++ {
			src.Set(x, y, color.Black)
		}
	}

	out := Preprocess(src)
	require.NotNil(t, out)
	assert.Equal(t, image.Rect(0, 0, 80, 40), out.Bounds())

	// binary output only
	for _, v := range out.Pix {
		require.True(t, v == 0 || v == 255)
	}
	assert.Equal(t, uint8(0), out.GrayAt(40, 20).Y)
	assert.Equal(t, uint8(255), out.GrayAt(2, 2).Y)

	assert.Nil(t, Preprocess(nil))
}

func TestGaussianSigma(t *testing.T) {
	assert.InDelta(t, 5.0, gaussianSigma(31), 1e-9)
	assert.InDelta(t, 1.1, gaussianSigma(5), 1e-9)
}
