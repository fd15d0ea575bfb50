package testutil

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// DefaultPages are the entries of a CBZ created without explicit pages.
var DefaultPages = []string{"01.jpg", "02.jpg", "03.jpg"}

// CreateTestCBZ is a helper function that creates a CBZ file with a given
// set of page names, creating parent directories as needed. It's useful for
// testing archive parsing.
func CreateTestCBZ(t *testing.T, dir, name string, pages []string) string {
	t.Helper()
	filePath := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", name, err)
	}
	file, err := os.Create(filePath)
	if err != nil {
		t.Fatalf("Failed to create temp cbz file: %v", err)
	}
	defer file.Close()

	if pages == nil {
		pages = DefaultPages
	}
	zipWriter := zip.NewWriter(file)
	for _, page := range pages {
		w, err := zipWriter.Create(page)
		if err != nil {
			t.Fatalf("Failed to create entry '%s' in zip: %v", page, err)
		}
		if strings.HasSuffix(page, "/") {
			continue
		}
		if _, err := w.Write([]byte("image data")); err != nil {
			t.Fatalf("Failed to write entry '%s': %v", page, err)
		}
	}
	if err := zipWriter.Close(); err != nil {
		t.Fatalf("Failed to finish zip %s: %v", filePath, err)
	}
	return filePath
}

// WriteFile writes raw content below dir, creating parent directories.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	filePath := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", filePath, err)
	}
	return filePath
}

// Touch moves a file's modification time forward so the scanner treats its
// content as changed.
func Touch(t *testing.T, path string, d time.Duration) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat %s: %v", path, err)
	}
	mod := info.ModTime().Add(d)
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatalf("Failed to touch %s: %v", path, err)
	}
}
