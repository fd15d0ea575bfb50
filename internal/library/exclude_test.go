package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExcluder(t *testing.T) {
	e, err := NewExcluder([]string{"**/*.tmp", "Raws", "  ", "**/Scans/Old"})
	require.NoError(t, err)

	testCases := []struct {
		rel  string
		want bool
	}{
		{"Akira/v01.cbz", false},
		{"Akira/v01.cbz.tmp", true},
		{"Raws", true},
		{"Raws/Akira/v01.cbz", true},
		{"Akira/Raws/v01.cbz", false},
		{"Akira/Scans/Old/v01.cbz", true},
		{"Akira/Scans/New/v01.cbz", false},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, e.Match(tc.rel), tc.rel)
	}
}

func TestExcluderExcluded(t *testing.T) {
	e, err := NewExcluder([]string{"Raws"})
	require.NoError(t, err)

	assert.True(t, e.Excluded("/manga", "/manga/Raws/v01.cbz"))
	assert.False(t, e.Excluded("/manga", "/manga"))
	assert.False(t, e.Excluded("/manga", "/other/Raws/v01.cbz"))
}

func TestExcluderInvalidPattern(t *testing.T) {
	_, err := NewExcluder([]string{"[unclosed"})
	assert.Error(t, err)
}

func TestNilExcluder(t *testing.T) {
	var e *Excluder
	assert.False(t, e.Match("anything"))
	assert.False(t, e.Excluded("/manga", "/manga/anything"))
}
