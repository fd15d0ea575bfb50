package util

import (
	"sort"
	"strings"
)

// CompareNatural orders strings the way people order file names: runs of
// digits compare by value, everything else compares case-insensitively.
// At the same position a number sorts before text.
func CompareNatural(a, b string) int {
	for a != "" && b != "" {
		ca, restA := nextChunk(a)
		cb, restB := nextChunk(b)
		aNum, bNum := isDigit(ca[0]), isDigit(cb[0])

		switch {
		case aNum && !bNum:
			return -1
		case !aNum && bNum:
			return 1
		case aNum:
			if c := compareDigits(ca, cb); c != 0 {
				return c
			}
		default:
			if c := strings.Compare(strings.ToLower(ca), strings.ToLower(cb)); c != 0 {
				return c
			}
		}
		a, b = restA, restB
	}

	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	}
	return 1
}

// NaturalSortLess reports whether s1 sorts before s2 in natural order.
func NaturalSortLess(s1, s2 string) bool {
	return CompareNatural(s1, s2) < 0
}

// SortNatural sorts a slice of strings in natural order.
func SortNatural(s []string) {
	sort.SliceStable(s, func(i, j int) bool { return NaturalSortLess(s[i], s[j]) })
}

// nextChunk splits off the leading run of digits or non-digits. Digits are
// ASCII, so a split never lands inside a multi-byte rune.
func nextChunk(s string) (chunk, rest string) {
	digit := isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == digit {
		i++
	}
	return s[:i], s[i:]
}

// compareDigits compares digit runs by value without converting them, so
// runs longer than an int still order correctly.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
