package boq

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-doc-verifier/internal/ocr"
	"github.com/a3tai/mcp-doc-verifier/internal/ocr/ocrtest"
)

func TestLocate(t *testing.T) {
	filler := "lampiran dokumentasi pekerjaan"

	tests := []struct {
		name  string
		texts []string
		want  int
	}{
		{
			name:  "header on page six",
			texts: []string{filler, filler, filler, filler, filler, "NO DESIGNATOR URAIAN PEKERJAAN SATUAN VOLUME AKTUAL", filler},
			want:  5,
		},
		{
			name:  "header split across lines",
			texts: []string{filler, "URAIAN\nPEKERJAAN  |  Satuan | Jumlah"},
			want:  1,
		},
		{
			name:  "header beats earlier title mention",
			texts: []string{"Daftar isi: BOQ UJI TERIMA", "uraian pekerjaan satuan aktual"},
			want:  1,
		},
		{
			name:  "header without quantity column falls back to title",
			texts: []string{"uraian pekerjaan satuan", filler, "LAMPIRAN BILL OF QUANTITY"},
			want:  2,
		},
		{
			name:  "nothing",
			texts: []string{filler, ""},
			want:  NotFound,
		},
		{
			name:  "empty document",
			texts: nil,
			want:  NotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Locate(tt.texts))
			// idempotent
			assert.Equal(t, tt.want, Locate(tt.texts))
		})
	}
}

func TestLocateImages(t *testing.T) {
	images := []image.Image{ocrtest.Page(0), ocrtest.Page(1), ocrtest.Page(2)}
	engine := ocrtest.New().
		Fail(images[0], errors.New("unreadable")).
		On(images[1], "foto tiang").
		On(images[2], "URAIAN PEKERJAAN SATUAN VOLUME")

	got := LocateImages(context.Background(), engine, images, ocr.Options{PageSegMode: ocr.PSMSingleBlock})
	assert.Equal(t, 2, got)

	calls := engine.Calls()
	require.Len(t, calls, 3)
	for _, c := range calls {
		assert.Equal(t, ocr.PSMAuto, c.PageSegMode)
	}
}

func TestParseRow(t *testing.T) {
	row, err := ParseRow("SC-OF-SM-24=24")
	require.NoError(t, err)
	assert.Equal(t, Row{Designator: "SC-OF-SM-24", Quantity: 24}, row)

	row, err = ParseRow(" Label Kabel Distribusi (KU FO) = 3 ")
	require.NoError(t, err)
	assert.Equal(t, "Label Kabel Distribusi (KU FO)", row.Designator)

	for _, bad := range []string{"", "=3", "X", "X=abc", "X=-1"} {
		_, err := ParseRow(bad)
		assert.Error(t, err, bad)
	}
}

func TestDedupe(t *testing.T) {
	rows := []Row{{"A", 1}, {"A", 1}, {"A", 2}, {"B", 3}}
	assert.Equal(t, []Row{{"A", 1}, {"A", 2}, {"B", 3}}, DedupePairs(rows))
	assert.Equal(t, []Row{{"A", 1}, {"B", 3}}, DedupeDesignators(rows))
	assert.Equal(t, []string{"A", "A", "A", "B"}, Designators(rows))
}
