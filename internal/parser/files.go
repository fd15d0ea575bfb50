package parser

import (
	"path/filepath"
	"strings"

	"github.com/vrsandeep/mango-catalog/internal/models"
)

var archiveExtensions = map[string]bool{
	".cbz": true, ".zip": true,
	".cbr": true, ".rar": true,
	".cb7": true, ".7z": true,
	".cbt": true, ".tar": true, ".tar.gz": true,
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".webp": true, ".gif": true, ".avif": true,
}

// Folders written by NAS software, desktop OSes and other readers.
var blacklistedFolders = []string{
	"@eaDir",
	"__MACOSX",
	"@Recently-Snapshot",
	"@recycle",
	"#recycle",
	".@__thumb",
	".caltrash",
	".DS_Store",
	".qpkg",
	".yacreaderlibrary",
}

var coverImageRegex = mustRule(`(?<![a-z\d])(?:!?)(?<!back)(cover|folder)(?![\w\d])`)

// Extension returns the lower-cased extension, treating ".tar.gz" as one.
func Extension(path string) string {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".tar.gz") {
		return ".tar.gz"
	}
	return filepath.Ext(lower)
}

// ParseFormat classifies a file by its extension.
func ParseFormat(path string) models.Format {
	ext := Extension(path)
	switch {
	case archiveExtensions[ext]:
		return models.FormatArchive
	case imageExtensions[ext]:
		return models.FormatImage
	case ext == ".epub":
		return models.FormatEpub
	case ext == ".pdf":
		return models.FormatPdf
	}
	return models.FormatUnknown
}

// IsSupported reports whether the scanner should look at the file at all.
func IsSupported(path string) bool {
	if strings.HasPrefix(filepath.Base(path), "._") {
		return false
	}
	return ParseFormat(path) != models.FormatUnknown
}

// IsCoverImage reports whether an image filename looks like a cover
// (cover.jpg, folder.png, Series_cover.webp) rather than a page.
func IsCoverImage(path string) bool {
	if ParseFormat(path) != models.FormatImage {
		return false
	}
	return matches(coverImageRegex, filepath.Base(path))
}

// HasBlacklistedFolder reports whether any segment of path is a folder the
// scanner never descends into.
func HasBlacklistedFolder(path string) bool {
	for _, segment := range strings.FieldsFunc(filepath.ToSlash(path), func(r rune) bool { return r == '/' }) {
		if IsBlacklistedFolder(segment) {
			return true
		}
	}
	return false
}

// IsBlacklistedFolder checks a single directory name.
func IsBlacklistedFolder(name string) bool {
	for _, b := range blacklistedFolders {
		if strings.EqualFold(name, b) {
			return true
		}
	}
	return false
}

func trimBrackets(s string) string {
	s = strings.NewReplacer("{", "", "}", "", "[", "", "]", "", "(", "", ")", "").Replace(s)
	return strings.TrimSpace(s)
}

// stem strips the extension from a filename.
func stem(name string) string {
	ext := Extension(name)
	if len(ext) <= len(name) && strings.EqualFold(name[len(name)-len(ext):], ext) {
		return name[:len(name)-len(ext)]
	}
	return name
}
