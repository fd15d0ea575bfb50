package parser

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/cases"
)

// Normalize folds a series name into the key used for matching: case folded,
// with every character that is not a letter or digit removed.
func Normalize(name string) string {
	folded := cases.Fold().String(name)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var (
	leadingGroupRegex = regexp2.MustCompile(`^\s*\[[^\]]*\](?:_|-|\s|\.)*`, regexp2.None)
	whitespaceRegex   = regexp.MustCompile(`\s+`)
)

// CleanTitle strips a leading release group tag ("[Group] Title",
// "[Group]_Title"), turns underscores into spaces, collapses whitespace and
// trims the result.
func CleanTitle(title string) string {
	title = replaceAll(leadingGroupRegex, title, "")
	title = strings.ReplaceAll(title, "_", " ")
	title = whitespaceRegex.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

var (
	releaseGroupRegex = mustRule(`(?:\[(?<subgroup>(?!\s).+?(?<!\s))\](?:_|-|\s|\.)?)`)
	emptyTagRegex     = mustRule(`(\(\s*\)|\[\s*\]|\{\s*\}|\(Complete\))`)
	trailingTagRegex  = mustRule(`(\s*[\(\[\{][^\(\)\[\]\{\}]*[\)\]\}])+\s*$`)
)

// cleanSeries is the heavier cleanup applied to an extracted series name. On
// top of CleanTitle it drops release groups anywhere in the name, edition and
// special vocabulary, trailing bracketed metadata and stray separators.
func (p *Profile) cleanSeries(title string) string {
	title = replaceAll(releaseGroupRegex, title, "")
	for _, r := range editionRules {
		title = replaceAll(r.pattern, title, "")
	}
	title = replaceAll(p.specialTags, title, "")
	title = replaceAll(emptyTagRegex, title, "")

	// a name that is nothing but tags keeps its tags
	if stripped := replaceAll(trailingTagRegex, title, ""); strings.TrimSpace(stripped) != "" {
		title = stripped
	}

	title = CleanTitle(title)
	title = strings.Trim(title, "-, ")
	return strings.TrimSpace(title)
}
