package parser

import (
	"github.com/dlclark/regexp2"
	"github.com/vrsandeep/mango-catalog/internal/models"
)

// Profile is the rule set and sentinel vocabulary used for one library type.
type Profile struct {
	Name   string
	Comic  bool
	Legacy bool

	// NoVolume and NoChapter are written when a file carries no volume or
	// chapter marker. SpecialVolume is the volume specials are filed under.
	NoVolume      string
	NoChapter     string
	SpecialVolume string

	volumes     []Rule
	chapters    []Rule
	series      []Rule
	specials    *regexp2.Regexp
	specialTags *regexp2.Regexp
}

var (
	Manga = &Profile{
		Name:          "manga",
		NoVolume:      LooseLeafVolume,
		NoChapter:     DefaultChapter,
		SpecialVolume: SpecialVolume,
		volumes:       mangaVolumeRules,
		chapters:      mangaChapterRules,
		series:        mangaSeriesRules,
		specials:      mangaSpecialRegex,
		specialTags:   mangaSpecialRegex,
	}

	Comic = &Profile{
		Name:          "comic",
		Comic:         true,
		NoVolume:      LooseLeafVolume,
		NoChapter:     DefaultChapter,
		SpecialVolume: SpecialVolume,
		volumes:       comicVolumeRules,
		chapters:      comicChapterRules,
		series:        comicSeriesRules,
		specials:      comicSpecialRegex,
		specialTags:   comicSpecialRegex,
	}

	// Book libraries reuse the manga tables but never strip special words out
	// of titles; "Bonus" or "Extra" are ordinary words in a book name.
	Book = &Profile{
		Name:          "book",
		NoVolume:      LooseLeafVolume,
		NoChapter:     DefaultChapter,
		SpecialVolume: SpecialVolume,
		volumes:       mangaVolumeRules,
		chapters:      mangaChapterRules,
		series:        mangaSeriesRules,
		specials:      mangaSpecialRegex,
		specialTags:   specialMarkerRegex,
	}
)

// ProfileFor returns the profile used to scan a library type. Webtoon
// libraries are named like manga and share its tables.
func ProfileFor(t models.LibraryType, legacy bool) *Profile {
	var p *Profile
	switch t {
	case models.LibraryComic:
		p = Comic
	case models.LibraryBook:
		p = Book
	default:
		p = Manga
	}
	if legacy {
		return p.legacy()
	}
	return p
}

// legacy returns a copy that writes "0" for every missing or special volume
// and chapter, matching catalogs created before the loose-leaf sentinels.
func (p *Profile) legacy() *Profile {
	c := *p
	c.Name = p.Name + "-legacy"
	c.Legacy = true
	c.NoVolume = LegacyDefault
	c.NoChapter = LegacyDefault
	c.SpecialVolume = LegacyDefault
	return &c
}

// Rules returns the ordered table for a field.
func (p *Profile) Rules(f Field) []Rule {
	switch f {
	case FieldVolume:
		return p.volumes
	case FieldChapter:
		return p.chapters
	case FieldSeries:
		return p.series
	case FieldEdition:
		return editionRules
	}
	return nil
}

// ParseVolume extracts the formatted volume token, or NoVolume.
func (p *Profile) ParseVolume(name string) string {
	if v, hasPart, ok := firstMatch(p.volumes, name); ok {
		return formatValue(v, hasPart)
	}
	return p.NoVolume
}

// ParseChapter extracts the formatted chapter token, or NoChapter.
func (p *Profile) ParseChapter(name string) string {
	if v, hasPart, ok := firstMatch(p.chapters, name); ok {
		return formatValue(v, hasPart)
	}
	return p.NoChapter
}

// ParseSeries extracts the cleaned series name, or "" when no rule matches.
func (p *Profile) ParseSeries(name string) string {
	if v, _, ok := firstMatch(p.series, name); ok {
		return p.cleanSeries(v)
	}
	return ""
}

// IsSpecial reports whether a name carries special vocabulary or an SP marker.
func (p *Profile) IsSpecial(name string) bool {
	return matches(p.specials, name) || HasSpecialMarker(name)
}

func (p *Profile) volumeNumber(raw string) Number {
	switch raw {
	case p.NoVolume:
		return newNumber(raw, KindLooseLeaf)
	case p.SpecialVolume:
		return newNumber(raw, KindSpecial)
	}
	return ParseNumber(raw)
}

func (p *Profile) chapterNumber(raw string) Number {
	if raw == p.NoChapter {
		return newNumber(raw, KindUnset)
	}
	return ParseNumber(raw)
}

// ParseEdition returns the edition label found in name with its brackets
// removed, or "".
func ParseEdition(name string) string {
	for _, r := range editionRules {
		if v, _, ok := r.Match(name); ok {
			return trimBrackets(v)
		}
	}
	return ""
}

func editionTag(name string) string {
	for _, r := range editionRules {
		if v, _, ok := r.Match(name); ok {
			return v
		}
	}
	return ""
}

// HasSpecialMarker reports whether name carries an explicit SPnn marker.
func HasSpecialMarker(name string) bool {
	return matches(specialMarkerRegex, name)
}
