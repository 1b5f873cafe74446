package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	reg, err := New(Defaults())
	require.NoError(t, err)

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "Braze", all[0].Name)
	assert.Equal(t, VariantMonthlyIndex, all[0].Variant)
	assert.Equal(t, "Iterable", all[1].Name)
	assert.Equal(t, VariantFlatNotes, all[1].Variant)

	assert.True(t, reg.DeepScrape("Braze"))
	assert.False(t, reg.DeepScrape("Iterable"))
	assert.False(t, reg.DeepScrape("Unknown"))
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		competitors []Competitor
		wantErr     string
	}{
		{"empty set", nil, "no competitors"},
		{"missing url", []Competitor{{Name: "X", Variant: VariantFlatNotes}}, "missing name or url"},
		{"unknown variant", []Competitor{{Name: "X", URL: "https://x.test", Variant: "rss"}}, "unknown variant"},
		{
			"duplicate name",
			[]Competitor{
				{Name: "X", URL: "https://x.test", Variant: VariantFlatNotes},
				{Name: "X", URL: "https://x2.test", Variant: VariantFlatNotes},
			},
			"duplicate competitor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.competitors)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "competitors.yaml")
	doc := `competitors:
  - name: Braze
    url: https://www.braze.com/docs/help/release_notes/2026
    variant: monthly_index
    deep_scrape: true
  - name: Customer.io
    url: https://customer.io/docs/release-notes
    variant: flat_notes
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	reg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Len(t, reg.All(), 2)

	c, ok := reg.Get("Customer.io")
	require.True(t, ok)
	assert.Equal(t, VariantFlatNotes, c.Variant)
	assert.False(t, c.DeepScrape)
}

func TestLoadFromFile_EmptyPathUsesDefaults(t *testing.T) {
	reg, err := LoadFromFile("")
	require.NoError(t, err)
	assert.Len(t, reg.All(), 2)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
