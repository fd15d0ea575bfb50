// Package parser turns a file path inside a library into structured metadata:
// series, volume, chapter, edition and whether the file is a special. Parsing
// is pure and safe for concurrent use.
package parser

import (
	"path/filepath"
	"strings"

	"github.com/vrsandeep/mango-catalog/internal/models"
)

// Info is the parse result for one file.
type Info struct {
	Series           string        `json:"series"`
	NormalizedSeries string        `json:"normalized_series"`
	Volume           Number        `json:"volume"`
	Chapter          Number        `json:"chapter"`
	Edition          string        `json:"edition,omitempty"`
	IsSpecial        bool          `json:"is_special"`
	Title            string        `json:"title"`
	Format           models.Format `json:"format"`
	Filename         string        `json:"filename"`
	FullPath         string        `json:"full_path"`
}

type options struct {
	siblingImages int
}

// Option tunes a single Parse call.
type Option func(*options)

// WithSiblingImages tells Parse how many images share the file's directory,
// the file included. A cover-looking image is dropped when it is the only
// image there; among other images it is just the first page.
func WithSiblingImages(n int) Option {
	return func(o *options) { o.siblingImages = n }
}

// Parse parses fullPath with the current profile for libType.
func Parse(fullPath, rootPath string, libType models.LibraryType, opts ...Option) *Info {
	return ProfileFor(libType, false).Parse(fullPath, rootPath, opts...)
}

// Parse returns the metadata for a file, or nil when the file should not be
// catalogued (unsupported, blacklisted, a redundant cover, or no series could
// be found anywhere in its path).
func (p *Profile) Parse(fullPath, rootPath string, opts ...Option) *Info {
	o := options{siblingImages: 1}
	for _, opt := range opts {
		opt(&o)
	}

	filename := filepath.Base(fullPath)
	if !IsSupported(fullPath) || HasBlacklistedFolder(filepath.Dir(fullPath)) {
		return nil
	}

	format := ParseFormat(fullPath)
	if format == models.FormatImage && o.siblingImages <= 1 && IsCoverImage(filename) {
		return nil
	}

	name := stem(filename)
	info := &Info{
		Title:    name,
		Format:   format,
		Filename: filename,
		FullPath: fullPath,
	}

	// Loose images carry no useful tokens; their directories do.
	if format == models.FormatImage {
		info.Volume = p.volumeNumber(p.NoVolume)
		info.Chapter = p.chapterNumber(p.NoChapter)
	} else {
		info.Volume = p.volumeNumber(p.ParseVolume(name))
		info.Chapter = p.chapterNumber(p.ParseChapter(name))
		info.Series = p.ParseSeries(name)
	}

	if info.Series == "" || format == models.FormatImage {
		p.parseFromFallbackFolders(fullPath, rootPath, info)
	}

	if tag := editionTag(name); tag != "" {
		info.Edition = trimBrackets(tag)
		info.Series = p.cleanSeries(strings.Replace(info.Series, tag, "", 1))
	}

	if info.Volume.IsDefault() && info.Chapter.IsDefault() && p.IsSpecial(name) {
		info.IsSpecial = true
		p.parseFromFallbackFolders(fullPath, rootPath, info)
	}

	// An explicit SPnn marker wins over whatever numbers were found.
	if HasSpecialMarker(name) {
		info.IsSpecial = true
		info.Volume = p.volumeNumber(p.NoVolume)
		info.Chapter = p.chapterNumber(p.NoChapter)
		p.parseFromFallbackFolders(fullPath, rootPath, info)
	}

	if info.IsSpecial {
		info.Volume = p.volumeNumber(p.SpecialVolume)
	}

	if info.Series == "" {
		info.Series = p.cleanSeries(name)
	}
	if format == models.FormatPdf && strings.HasSuffix(strings.ToLower(info.Series), ".pdf") {
		info.Series = strings.TrimSpace(info.Series[:len(info.Series)-len(".pdf")])
	}

	info.Series = strings.TrimSpace(info.Series)
	if info.Series == "" {
		return nil
	}
	info.NormalizedSeries = Normalize(info.Series)
	return info
}

// parseFromFallbackFolders walks from the file's directory up to (not
// including) the library root. Directories fill in a volume or chapter the
// filename did not carry, and the child-of-root directory names the series
// when the filename could not.
func (p *Profile) parseFromFallbackFolders(fullPath, rootPath string, info *Info) {
	folders := FoldersTillRoot(rootPath, fullPath)
	for i, folder := range folders {
		if p.IsSpecial(folder) {
			continue
		}

		if v := p.ParseVolume(folder); v != p.NoVolume && info.Volume.IsDefault() {
			info.Volume = p.volumeNumber(v)
		}
		if c := p.ParseChapter(folder); c != p.NoChapter && info.Chapter.IsDefault() {
			info.Chapter = p.chapterNumber(c)
		}

		if i != len(folders)-1 || folder == info.Series {
			continue
		}

		series := p.ParseSeries(folder)
		if series == "" {
			series = p.cleanSeries(folder)
		}
		if series == "" {
			series = folder
		}
		if info.Series == "" || !strings.Contains(strings.ToLower(folder), strings.ToLower(info.Series)) {
			info.Series = series
		}
	}
}

// FoldersTillRoot returns the directory names between the file and the root,
// deepest first. A file outside the root has none.
func FoldersTillRoot(rootPath, fullPath string) []string {
	rel := relativeDir(rootPath, fullPath)
	if rel == "" {
		return nil
	}

	parts := strings.Split(rel, "/")
	folders := make([]string, 0, len(parts))
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			folders = append(folders, parts[i])
		}
	}
	return folders
}

// relativeDir returns the slash-separated directory of fullPath relative to
// rootPath, or "" when the file sits in the root or outside it.
func relativeDir(rootPath, fullPath string) string {
	if rootPath == "" {
		return ""
	}
	rel, err := filepath.Rel(filepath.Clean(rootPath), filepath.Dir(filepath.Clean(fullPath)))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.ToSlash(rel)
}
