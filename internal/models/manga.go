// This file defines the core data structures (models) for the catalog.
// A library owns series, a series owns volumes, a volume owns chapters and
// a chapter owns the files on disk that back it.

package models

import (
	"fmt"
	"strings"
	"time"
)

// LibraryType selects the filename rule profile used when scanning a library.
type LibraryType string

const (
	LibraryManga   LibraryType = "manga"
	LibraryComic   LibraryType = "comic"
	LibraryBook    LibraryType = "book"
	LibraryWebtoon LibraryType = "webtoon"
)

// ParseLibraryType maps a configuration value onto a LibraryType.
func ParseLibraryType(s string) (LibraryType, error) {
	switch LibraryType(strings.ToLower(strings.TrimSpace(s))) {
	case LibraryManga:
		return LibraryManga, nil
	case LibraryComic:
		return LibraryComic, nil
	case LibraryBook:
		return LibraryBook, nil
	case LibraryWebtoon:
		return LibraryWebtoon, nil
	}
	return "", fmt.Errorf("unknown library type %q", s)
}

// Format is the container format of a file, derived from its extension.
type Format string

const (
	FormatArchive Format = "archive"
	FormatImage   Format = "image"
	FormatEpub    Format = "epub"
	FormatPdf     Format = "pdf"
	FormatUnknown Format = "unknown"
)

// Library is a named set of root folders scanned with one library type.
type Library struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Type        LibraryType `json:"type"`
	Legacy      bool        `json:"legacy"`
	Folders     []string    `json:"folders"`
	LastScanned time.Time   `json:"last_scanned,omitempty"`
}

// Series represents a single manga, comic or book series.
type Series struct {
	ID                  int64     `json:"id"`
	LibraryID           int64     `json:"library_id"`
	Name                string    `json:"name"`
	NormalizedName      string    `json:"normalized_name"`
	OriginalName        string    `json:"original_name"`
	SortName            string    `json:"sort_name"`
	LocalizedName       string    `json:"localized_name"`
	Format              Format    `json:"format"`
	NameLocked          bool      `json:"name_locked"`
	SortNameLocked      bool      `json:"sort_name_locked"`
	LocalizedNameLocked bool      `json:"localized_name_locked"`
	FolderPath          string    `json:"folder_path"`
	Pages               int       `json:"pages"`
	Volumes             []*Volume `json:"volumes,omitempty"` // omitempty hides it when not loaded
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Files returns every file owned by the series, in volume and chapter order.
func (s *Series) Files() []*MangaFile {
	var files []*MangaFile
	for _, v := range s.Volumes {
		for _, c := range v.Chapters {
			files = append(files, c.Files...)
		}
	}
	return files
}

// Volume groups chapters. Name holds the raw volume token or sentinel.
type Volume struct {
	ID        int64      `json:"id"`
	SeriesID  int64      `json:"series_id"`
	Name      string     `json:"name"`
	Number    float64    `json:"number"`
	Pages     int        `json:"pages"`
	Chapters  []*Chapter `json:"chapters,omitempty"`
	CreatedAt time.Time  `json:"-"`
	UpdatedAt time.Time  `json:"-"`
}

// Chapter is a single chapter or special. Specials are keyed by filename.
type Chapter struct {
	ID        int64        `json:"id"`
	VolumeID  int64        `json:"volume_id"`
	Range     string       `json:"range"`
	Number    float64      `json:"number"`
	IsSpecial bool         `json:"is_special"`
	Title     string       `json:"title"`
	Pages     int          `json:"pages"`
	Files     []*MangaFile `json:"files,omitempty"`
	CreatedAt time.Time    `json:"-"`
	UpdatedAt time.Time    `json:"-"`
}

// MangaFile is one file on disk backing a chapter.
type MangaFile struct {
	ID           int64     `json:"id"`
	ChapterID    int64     `json:"chapter_id"`
	FilePath     string    `json:"file_path"`
	Format       Format    `json:"format"`
	Pages        int       `json:"pages"`
	LastModified time.Time `json:"last_modified"`
}
