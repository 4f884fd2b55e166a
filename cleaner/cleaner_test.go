package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleaner_Description(t *testing.T) {
	c := NewCleaner()

	tests := []struct {
		name     string
		fragment string
		contains []string
		excludes []string
	}{
		{
			name:     "paragraphs and emphasis",
			fragment: `<p>A <strong>woody</strong> amber.</p><p>Use at 1%.</p>`,
			contains: []string{"A **woody** amber.", "Use at 1%."},
		},
		{
			name:     "relative links resolved",
			fragment: `<p>See <a href="/pages/dilutions">dilutions</a>.</p>`,
			contains: []string{"(https://pellwall.com/pages/dilutions)"},
		},
		{
			name:     "media dropped",
			fragment: `<p>Text</p><img src="/x.png" alt="bottle"><script>alert(1)</script>`,
			contains: []string{"Text"},
			excludes: []string{"bottle", "alert", "x.png"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md, err := c.Description(tt.fragment, "https://pellwall.com/products/ambrox")
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, md, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, md, s)
			}
		})
	}
}

func TestCleaner_DescriptionEmpty(t *testing.T) {
	md, err := NewCleaner().Description(`<div>  </div>`, "https://pellwall.com/products/x")
	require.NoError(t, err)
	assert.Equal(t, "", md)
}

func TestRemoveSelector(t *testing.T) {
	out, err := RemoveSelector(`<p>keep</p><button>drop</button>`, "button")
	require.NoError(t, err)
	assert.Contains(t, out, "<p>keep</p>")
	assert.NotContains(t, out, "drop")

	unchanged := `<p>nothing to remove</p>`
	out, err = RemoveSelector(unchanged, "button")
	require.NoError(t, err)
	assert.Equal(t, unchanged, out)

	_, err = RemoveSelector(`<p></p>`, "[[")
	assert.Error(t, err)
}
