package util

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ValidateLibraryFolder checks that a library root exists, is a directory
// and can be listed. A root that fails this check must not be scanned: an
// unmounted drive would otherwise look like a library whose files are gone.
func ValidateLibraryFolder(folderPath string) error {
	if folderPath == "" {
		return fmt.Errorf("folder path cannot be empty")
	}
	if !filepath.IsAbs(folderPath) {
		return fmt.Errorf("folder path must be absolute: %s", folderPath)
	}

	info, err := os.Stat(folderPath)
	if err != nil {
		return fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory: %s", folderPath)
	}

	f, err := os.Open(folderPath)
	if err != nil {
		return fmt.Errorf("cannot open directory: %w", err)
	}
	defer f.Close()
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("cannot list directory: %w", err)
	}
	return nil
}

// EnsureWritableDir creates dirPath if needed and checks that files can be
// created in it.
func EnsureWritableDir(dirPath string) error {
	if dirPath == "" {
		return fmt.Errorf("folder path cannot be empty")
	}
	if strings.Contains(dirPath, "..") {
		return fmt.Errorf("folder path contains invalid directory traversal")
	}

	cleanPath := filepath.Clean(dirPath)
	info, err := os.Stat(cleanPath)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("path exists but is not a directory: %s", cleanPath)
	case os.IsNotExist(err):
		if err := os.MkdirAll(cleanPath, 0755); err != nil {
			return fmt.Errorf("cannot create directory: %w", err)
		}
	case err != nil:
		return fmt.Errorf("cannot access path: %w", err)
	}

	if err := checkWritePermission(cleanPath); err != nil {
		return fmt.Errorf("no write permission for directory: %w", err)
	}
	return nil
}

// checkWritePermission checks if we have write permission to a directory
func checkWritePermission(dirPath string) error {
	// Try to create a temporary file in the directory
	file, err := os.CreateTemp(dirPath, ".mango_temp_check")
	if err != nil {
		return err
	}
	file.Close()

	// Clean up the temporary file
	os.Remove(file.Name())
	return nil
}
