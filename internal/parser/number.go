// This file holds the tagged numeric token used for volume and chapter values.
// Tokens stay strings on the way in (leading zeroes, half steps and ranges all
// matter for matching) and are only turned into floats through the helpers
// below, which never fail.

package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Sentinel tokens. The current profiles use the loose-leaf and special markers;
// the legacy profiles collapse every "no value" case onto "0".
const (
	LooseLeafVolume = "-100000"
	SpecialVolume   = "100000"
	DefaultChapter  = "-100000"
	LegacyDefault   = "0"
)

// Kind tags what a Number holds.
type Kind uint8

const (
	KindUnset Kind = iota
	KindNumber
	KindRange
	KindLooseLeaf
	KindSpecial
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindRange:
		return "range"
	case KindLooseLeaf:
		return "loose-leaf"
	case KindSpecial:
		return "special"
	default:
		return "unset"
	}
}

// MarshalText encodes a Kind by name ("range", "loose-leaf", ...).
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "number":
		*k = KindNumber
	case "range":
		*k = KindRange
	case "loose-leaf":
		*k = KindLooseLeaf
	case "special":
		*k = KindSpecial
	case "unset", "":
		*k = KindUnset
	default:
		return fmt.Errorf("unknown number kind %q", text)
	}
	return nil
}

// Number is a volume or chapter token. Raw is the formatted token exactly as
// it is stored in the catalog ("12", "16-17", "153.5" or a sentinel).
type Number struct {
	Kind Kind    `json:"kind"`
	Raw  string  `json:"raw"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

func (n Number) String() string { return n.Raw }

// IsDefault reports whether the token carries no real number.
func (n Number) IsDefault() bool {
	return n.Kind == KindUnset || n.Kind == KindLooseLeaf
}

// Equal compares two tokens by kind and raw value.
func (n Number) Equal(o Number) bool {
	return n.Kind == o.Kind && n.Raw == o.Raw
}

// newNumber tags a raw token. The caller decides which sentinel the raw value
// stands for, since "0" means loose-leaf in a legacy profile and volume zero
// everywhere else.
func newNumber(raw string, kind Kind) Number {
	n := Number{Kind: kind, Raw: raw}
	switch kind {
	case KindUnset, KindLooseLeaf, KindSpecial:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			f = 0
		}
		n.Min, n.Max = f, f
	default:
		n.Min = MinimumNumberFromRange(raw)
		n.Max = MaximumNumberFromRange(raw)
	}
	return n
}

// ParseNumber tags a formatted token that is known not to be a sentinel.
func ParseNumber(raw string) Number {
	if strings.Contains(strings.TrimPrefix(raw, "-"), "-") {
		return newNumber(raw, KindRange)
	}
	return newNumber(raw, KindNumber)
}

// MinimumNumberFromRange returns the smallest number in a range such as
// "18-04.5". Anything that is not made of digits, dots and dashes yields 0.
func MinimumNumberFromRange(r string) float64 {
	return foldRange(r, math.Min)
}

// MaximumNumberFromRange returns the largest number in a range.
func MaximumNumberFromRange(r string) float64 {
	return foldRange(r, math.Max)
}

func foldRange(r string, pick func(a, b float64) float64) float64 {
	r = strings.ReplaceAll(strings.TrimSpace(r), "_", "")
	if r == "" || !isRangeToken(r) {
		return 0
	}

	// A leading dash is a negative sentinel, not a range separator.
	if strings.HasPrefix(r, "-") && !strings.Contains(r[1:], "-") {
		f, err := strconv.ParseFloat(r, 64)
		if err != nil {
			return 0
		}
		return f
	}

	var result float64
	for i, token := range strings.Split(r, "-") {
		f, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return 0
		}
		if i == 0 {
			result = f
			continue
		}
		result = pick(result, f)
	}
	return result
}

func isRangeToken(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '-' && r != '.' {
			return false
		}
	}
	return true
}

// removeLeadingZeroes trims padding from a numeric token ("007" -> "7",
// "000" -> "0", "00.5" -> "0.5").
func removeLeadingZeroes(s string) string {
	ret := strings.TrimLeft(s, "0")
	if ret == "" {
		return "0"
	}
	if strings.HasPrefix(ret, ".") {
		return "0" + ret
	}
	return ret
}

// formatValue normalizes a captured token. A trailing letter part (153b) is
// encoded as a half step on the last number of the token.
func formatValue(value string, hasPart bool) string {
	if !strings.Contains(value, "-") {
		if hasPart {
			value = addChapterPart(value)
		}
		return removeLeadingZeroes(value)
	}

	tokens := strings.Split(value, "-")
	from := removeLeadingZeroes(tokens[0])
	if len(tokens) != 2 {
		return from
	}

	// c01-c02 is written as often as c01-02
	to := strings.TrimPrefix(strings.ToLower(tokens[1]), "c")
	if to == "" {
		return from
	}
	if hasPart {
		to = addChapterPart(to)
	}
	return from + "-" + removeLeadingZeroes(to)
}

func addChapterPart(value string) string {
	if strings.Contains(value, ".") {
		return value
	}
	return value + ".5"
}
