package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-doc-verifier/internal/pdf/pdftest"
)

func TestInspectStructure(t *testing.T) {
	structure, err := InspectStructure(pdftest.Build("first page", "", "third page"))
	require.NoError(t, err)
	assert.Equal(t, 3, structure.PageCount)
	assert.False(t, structure.Encrypted)
	assert.NotEmpty(t, structure.Version)
}

func TestInspectStructure_Garbage(t *testing.T) {
	_, err := InspectStructure([]byte("%PDF-1.4\nthis is not a pdf"))
	assert.Error(t, err)
}

func TestTextLayer_PageText(t *testing.T) {
	layer, err := OpenTextLayer(pdftest.Build("BERITA ACARA UJI TERIMA", ""))
	require.NoError(t, err)
	require.Equal(t, 2, layer.NumPage())

	text, err := layer.PageText(1)
	require.NoError(t, err)
	assert.Contains(t, text, "BERITA")
	assert.Contains(t, text, "TERIMA")

	text, err = layer.PageText(2)
	require.NoError(t, err)
	assert.Empty(t, text)

	_, err = layer.PageText(0)
	assert.Error(t, err)
	_, err = layer.PageText(3)
	assert.Error(t, err)
}

func TestOpenTextLayer_Garbage(t *testing.T) {
	_, err := OpenTextLayer([]byte("not a pdf at all"))
	assert.Error(t, err)
}
