// This file counts the pages of the files backing a chapter: images inside
// archives (cbz/zip, cbr/rar, cb7/7z, cbt/tar), pages of PDF and EPUB books,
// and one page for a loose image.

package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/mholt/archives"
	"github.com/vrsandeep/mango-catalog/internal/models"
	"github.com/vrsandeep/mango-catalog/internal/parser"
)

var (
	errNotAnArchive = errors.New("content is not a recognised archive")
	errEmptyArchive = errors.New("no image files found")
)

// PageCounter reads file content to count pages. It never fails: unreadable
// content counts as 0 pages and is reported to OnError.
type PageCounter struct {
	// OnError, when set, receives every failure.
	OnError func(path string, kind models.BadFileError, err error)
}

// GetPageCount returns the number of pages of a file.
func (pc *PageCounter) GetPageCount(filePath string, format models.Format) int {
	n, err := CountPages(context.Background(), filePath, format)
	if err != nil {
		kind := categorizeError(err)
		log.Printf("Could not count pages of %s (%s): %v", filePath, kind, err)
		if pc != nil && pc.OnError != nil {
			pc.OnError(filePath, kind, err)
		}
		return 0
	}
	return n
}

// CountPages dispatches on the container format.
func CountPages(ctx context.Context, filePath string, format models.Format) (int, error) {
	switch format {
	case models.FormatArchive:
		return countArchivePages(ctx, filePath)
	case models.FormatPdf, models.FormatEpub:
		return countBookPages(filePath)
	case models.FormatImage:
		if _, err := os.Stat(filePath); err != nil {
			return 0, err
		}
		return 1, nil
	}
	return 0, fmt.Errorf("unsupported format %q", format)
}

func countArchivePages(ctx context.Context, filePath string) (int, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	format, stream, err := archives.Identify(ctx, path.Base(filePath), f)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", errNotAnArchive, err)
	}
	extractor, ok := format.(archives.Extractor)
	if !ok {
		return 0, fmt.Errorf("%w: %s cannot be extracted", errNotAnArchive, format.Extension())
	}

	pages := 0
	err = extractor.Extract(ctx, stream, func(ctx context.Context, info archives.FileInfo) error {
		if info.IsDir() || !isPage(info.NameInArchive) {
			return nil
		}
		pages++
		return nil
	})
	if err != nil {
		return 0, err
	}
	if pages == 0 {
		return 0, errEmptyArchive
	}
	return pages, nil
}

// isPage reports whether an archive entry is an image page. Mac metadata and
// NAS thumbnail folders inside the archive are skipped.
func isPage(name string) bool {
	name = strings.ReplaceAll(name, "\\", "/")
	if parser.HasBlacklistedFolder(path.Dir(name)) {
		return false
	}
	return parser.IsSupported(path.Base(name)) && parser.ParseFormat(name) == models.FormatImage
}

func countBookPages(filePath string) (int, error) {
	doc, err := fitz.New(filePath)
	if err != nil {
		return 0, err
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// categorizeError maps a page counting failure onto a bad file category.
func categorizeError(err error) models.BadFileError {
	var pathErr *fs.PathError
	switch {
	case errors.Is(err, errEmptyArchive):
		return models.ErrorEmptyArchive
	case errors.Is(err, fs.ErrPermission), errors.Is(err, fs.ErrNotExist), errors.As(err, &pathErr):
		return models.ErrorIOError
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "password"), strings.Contains(msg, "encrypted"):
		return models.ErrorPasswordProtected
	case strings.Contains(msg, "unsupported format"):
		return models.ErrorUnsupportedFormat
	}
	// The extension promised an archive or book the content does not hold.
	return models.ErrorCorruptedArchive
}
