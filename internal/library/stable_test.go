package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHighestStableDirectories(t *testing.T) {
	roots := []string{"/manga", "/manga2"}

	testCases := []struct {
		name  string
		files []string
		want  []string
	}{
		{
			name:  "one series folder",
			files: []string{"/manga/Akira/v01.cbz", "/manga/Akira/Extras/sp01.cbz"},
			want:  []string{"/manga/Akira"},
		},
		{
			name:  "files in the root",
			files: []string{"/manga/Akira v01.cbz"},
			want:  []string{"/manga"},
		},
		{
			name:  "root swallows nested folders",
			files: []string{"/manga/Akira v01.cbz", "/manga/Akira/v02.cbz"},
			want:  []string{"/manga"},
		},
		{
			name:  "across roots",
			files: []string{"/manga/Akira/v01.cbz", "/manga2/Akira/v02.cbz"},
			want:  []string{"/manga/Akira", "/manga2/Akira"},
		},
		{
			name:  "outside every root",
			files: []string{"/elsewhere/Akira/v01.cbz"},
			want:  []string{},
		},
		{
			name:  "similar prefix is not inside",
			files: []string{"/manga2x/Akira/v01.cbz"},
			want:  []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HighestStableDirectories(roots, tc.files))
		})
	}
}

func TestEscalateDirectories(t *testing.T) {
	roots := []string{"/manga"}

	dirs, ok := EscalateDirectories(roots, []string{"/manga/Akira/Vol 1", "/manga/Akira/Vol 2"})
	require.True(t, ok)
	assert.Equal(t, []string{"/manga/Akira"}, dirs)

	dirs, ok = EscalateDirectories(roots, dirs)
	require.True(t, ok)
	assert.Equal(t, []string{"/manga"}, dirs)

	dirs, ok = EscalateDirectories(roots, dirs)
	assert.False(t, ok, "nothing above the root")
	assert.Equal(t, []string{"/manga"}, dirs)
}
