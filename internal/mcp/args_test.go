package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-doc-verifier/internal/boq"
	"github.com/a3tai/mcp-doc-verifier/internal/session"
)

func TestParseRows(t *testing.T) {
	tests := []struct {
		name    string
		raw     interface{}
		want    []boq.Row
		wantErr bool
	}{
		{
			name: "objects",
			raw: []interface{}{
				map[string]interface{}{"designator": " SC-OF-SM-24 ", "quantity": float64(24)},
				map[string]interface{}{"designator": "PU-AS-SC", "quantity": "6"},
			},
			want: []boq.Row{{Designator: "SC-OF-SM-24", Quantity: 24}, {Designator: "PU-AS-SC", Quantity: 6}},
		},
		{
			name: "strings",
			raw:  []interface{}{"SC-OF-SM-24=24", "PU-AS-DE-50/70=3"},
			want: []boq.Row{{Designator: "SC-OF-SM-24", Quantity: 24}, {Designator: "PU-AS-DE-50/70", Quantity: 3}},
		},
		{
			name: "JSON string",
			raw:  `[{"designator": "PU-AS-SC", "quantity": 6}, "TN9=1"]`,
			want: []boq.Row{{Designator: "PU-AS-SC", Quantity: 6}, {Designator: "TN9", Quantity: 1}},
		},
		{
			name: "lines",
			raw:  "SC-OF-SM-24=24\nPU-AS-SC=6; TN9=1",
			want: []boq.Row{{Designator: "SC-OF-SM-24", Quantity: 24}, {Designator: "PU-AS-SC", Quantity: 6}, {Designator: "TN9", Quantity: 1}},
		},
		{name: "missing", raw: nil, wantErr: true},
		{name: "fractional quantity", raw: []interface{}{map[string]interface{}{"designator": "X", "quantity": 1.5}}, wantErr: true},
		{name: "missing quantity", raw: []interface{}{map[string]interface{}{"designator": "X"}}, wantErr: true},
		{name: "number", raw: float64(3), wantErr: true},
		{name: "bad JSON", raw: "[{", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRows(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseVerdicts(t *testing.T) {
	got, err := parseVerdicts(map[string]interface{}{
		"SC-OF-SM-24": map[string]interface{}{"verdict": "sesuai", "notes": "ok"},
		"PU-AS-SC":    "perlu diperiksa",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]session.Review{
		"SC-OF-SM-24": {Verdict: "sesuai", Notes: "ok"},
		"PU-AS-SC":    {Verdict: "perlu diperiksa"},
	}, got)

	got, err = parseVerdicts(`{"TN9": {"verdict": "tidak_sesuai"}}`)
	require.NoError(t, err)
	assert.Equal(t, session.Verdict("tidak_sesuai"), got["TN9"].Verdict)

	_, err = parseVerdicts([]interface{}{"sesuai"})
	assert.Error(t, err)
	_, err = parseVerdicts(map[string]interface{}{"TN9": float64(1)})
	assert.Error(t, err)
	_, err = parseVerdicts(nil)
	assert.Error(t, err)
}
