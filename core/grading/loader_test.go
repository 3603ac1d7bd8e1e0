package grading

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScales(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantIDs []string
		wantErr bool
	}{
		{
			name: "valid",
			doc: `
scales:
  - id: Honors
    name: Honors
    bands:
      - {label: F, min: 0, max: 85, gpa: 0}
      - {label: H, min: 85, max: 100, gpa: 5}
  - id: coarse
    bands:
      - {label: Pass, min: 50, max: 100, gpa: 4}
      - {label: Fail, min: 0, max: 50}
`,
			wantIDs: []string{"honors", "coarse"},
		},
		{name: "empty document", doc: "", wantIDs: nil},
		{
			name: "gap",
			doc: `
scales:
  - id: broken
    bands:
      - {label: P, min: 60, max: 100}
      - {label: F, min: 0, max: 50}
`,
			wantErr: true,
		},
		{
			name: "duplicate id",
			doc: `
scales:
  - id: one
    bands: [{label: All, min: 0, max: 100}]
  - id: one
    bands: [{label: All, min: 0, max: 100}]
`,
			wantErr: true,
		},
		{name: "missing id", doc: "scales:\n  - bands: [{label: All, min: 0, max: 100}]\n", wantErr: true},
		{name: "unknown field", doc: "scales:\n  - id: x\n    colour: red\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scales, err := LoadScales(strings.NewReader(tt.doc))
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadScales() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			ids := make([]string, 0, len(scales))
			for _, s := range scales {
				ids = append(ids, s.ID)
			}
			if tt.wantIDs == nil {
				assert.Empty(t, ids)
			} else {
				assert.Equal(t, tt.wantIDs, ids)
			}
		})
	}
}

func TestLoadScales_normalizesBands(t *testing.T) {
	scales, err := LoadScales(strings.NewReader(`
scales:
  - id: coarse
    bands:
      - {label: Fail, min: 0, max: 50}
      - {label: Pass, min: 50, max: 100, gpa: 4}
`))
	require.NoError(t, err)
	require.Len(t, scales, 1)
	assert.Equal(t, "coarse", scales[0].Name)
	assert.Equal(t, "Pass", scales[0].Bands[0].Label)
}
