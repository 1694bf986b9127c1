package evidence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-doc-verifier/internal/boq"
	"github.com/a3tai/mcp-doc-verifier/internal/ocr"
	"github.com/a3tai/mcp-doc-verifier/internal/ocr/ocrtest"
	"github.com/a3tai/mcp-doc-verifier/internal/pdf"
)

func documentPages(texts ...string) []pdf.Page {
	pages := make([]pdf.Page, len(texts))
	for i, t := range texts {
		pages[i] = pdf.Page{Number: i + 1, Text: t, Image: ocrtest.Page(i)}
	}
	return pages
}

func TestCollector_Collect(t *testing.T) {
	pages := documentPages("cover", "boq table", "foto", "", "foto", "foto")
	engine := ocrtest.New().
		On(pages[0].Image, "JOIN CLOSURE on the cover").
		On(pages[1].Image, "JOIN CLOSURE listed in the BOQ").
		On(pages[2].Image, "Foto JOIN CLOSURE\nTiang TN7 2S terpasang").
		On(pages[3].Image, "JOIN CLOSURE").
		On(pages[4].Image, "join closure, JOIN CLOSURE, Join Closure").
		Fail(pages[5].Image, errors.New("ocr crashed"))

	rows := []boq.Row{
		{Designator: "SC-OF-SM-24", Quantity: 24},
		{Designator: "PU-S7.0-400NM", Quantity: 2},
		{Designator: "UNKNOWN-1", Quantity: 5},
		{Designator: "SC-OF-SM-24", Quantity: 3},
	}

	collector := NewCollector(engine, DefaultLabels(), ocr.Options{}, nil)
	gallery, err := collector.Collect(context.Background(), pages, rows, 1)
	require.NoError(t, err)

	require.Len(t, gallery, 3)
	assert.Equal(t, []int{1, 3, 5}, gallery.PageNumbers("SC-OF-SM-24"))
	assert.Equal(t, []int{3}, gallery.PageNumbers("PU-S7.0-400NM"))
	assert.NotNil(t, gallery["UNKNOWN-1"])
	assert.Empty(t, gallery["UNKNOWN-1"])

	// BOQ page and the textless page are never recognized
	assert.Len(t, engine.Calls(), 4)
	for _, c := range engine.Calls() {
		assert.Equal(t, ocr.PSMAuto, c.PageSegMode)
	}
}

func TestCollector_NoDoubleCounting(t *testing.T) {
	pages := documentPages("foto")
	engine := ocrtest.New().On(pages[0].Image, "TN7 2S\nTN72S\ntn7   2s")

	labels, err := NewLabels(map[string][]string{"PU-S7.0-400NM": {`TN7\s*2S`, "TN72S"}})
	require.NoError(t, err)

	gallery, err := NewCollector(engine, labels, ocr.Options{}, nil).
		Collect(context.Background(), pages, []boq.Row{{Designator: "PU-S7.0-400NM", Quantity: 1}}, boq.NotFound)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, gallery.PageNumbers("PU-S7.0-400NM"))
}

func TestCollector_NoLabelledDesignatorsSkipsOCR(t *testing.T) {
	engine := ocrtest.New()
	gallery, err := NewCollector(engine, nil, ocr.Options{}, nil).
		Collect(context.Background(), documentPages("foto", "foto"), []boq.Row{{Designator: "X-1", Quantity: 1}}, boq.NotFound)
	require.NoError(t, err)

	assert.Equal(t, Gallery{"X-1": []pdf.Page{}}, gallery)
	assert.Empty(t, engine.Calls())
}

func TestDefaultLabels(t *testing.T) {
	labels := DefaultLabels()
	assert.Len(t, labels.Designators(), 8)
	assert.True(t, labels.Has("Label Kabel Distribusi (KU FO)"))
	assert.Equal(t, []string{`TN7\s*2S`}, labels.Patterns("PU-S7.0-400NM"))
	assert.True(t, labels.Matches("ODP Solid-PB-8 AS", "foto odp-srr-fk terpasang"))
	assert.False(t, labels.Matches("PU-AS-SC", "PU-AS-DE"))
}

func TestLoadLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("labels:\n  A-1: [ALPHA, 'AL\\s*PHA']\n  B-2: BETA\n"), 0o600))

	labels, err := LoadLabels(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"A-1", "B-2"}, labels.Designators())
	assert.True(t, labels.Matches("A-1", "al pha"))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("labels:\n  A-1: '('\n"), 0o600))
	_, err = LoadLabels(bad)
	assert.Error(t, err)

	_, err = NewLabels(map[string][]string{" ": {"x"}})
	assert.Error(t, err)

	l, err := LoadLabels("")
	require.NoError(t, err)
	assert.True(t, l.Has("SC-OF-SM-24"))
}


func TestCollector_CanceledContext(t *testing.T) {
	engine := ocrtest.New()
	engine.Default = "Foto JOIN CLOSURE"
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCollector(engine, DefaultLabels(), ocr.Options{}, nil).
		Collect(ctx, documentPages("foto", "foto"), []boq.Row{{Designator: "SC-OF-SM-24", Quantity: 1}}, boq.NotFound)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, engine.Calls())
}
