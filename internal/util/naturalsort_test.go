package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNaturalSortLess(t *testing.T) {
	testCases := []struct {
		name     string
		s1, s2   string
		expected bool
	}{
		{"numbers by value", "ch 2", "ch 10", true},
		{"numbers by value reversed", "chapter 10", "chapter 2", false},
		{"page files", "001.jpg", "010.jpg", true},
		{"unpadded pages", "page10.png", "page9.png", false},
		{"dotted numbers", "v1.2", "v1.10", true},
		{"prefix first", "file", "file1", true},
		{"equal", "chapter 1", "chapter 1", false},
		{"case insensitive", "File1", "file1", false},
		{"separators", "Beelzebub_1", "Beelzebub_10", true},
		{"decimal chapter", "Ch 153.5", "Ch 154", true},
		{"leading space", " file1", "file1", true},
		{"unicode prefix", "café1", "café2", true},
		{"unicode vs ascii", "café", "cafe", false},
		{"letters after number", "item-1a", "item-1b", true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NaturalSortLess(tc.s1, tc.s2), "NaturalSortLess(%q, %q)", tc.s1, tc.s2)
		})
	}
}

func TestCompareNatural(t *testing.T) {
	assert.Equal(t, 0, CompareNatural("Vol 01", "vol 1"))
	assert.Equal(t, -1, CompareNatural("ch 9", "ch 10"))
	assert.Equal(t, 1, CompareNatural("ch 10", "ch 9"))
	// Longer than any int.
	assert.Equal(t, -1, CompareNatural("x 99999999999999999999999", "x 100000000000000000000000"))
	assert.Equal(t, 0, CompareNatural("", ""))
	assert.Equal(t, -1, CompareNatural("", "a"))
}

func TestSortNatural(t *testing.T) {
	names := []string{"Vol 10.cbz", "Vol 2.cbz", "extras", "Vol 1.cbz", "vol 1 part 2.cbz"}
	SortNatural(names)
	assert.Equal(t, []string{"extras", "vol 1 part 2.cbz", "Vol 1.cbz", "Vol 2.cbz", "Vol 10.cbz"}, names)
}
