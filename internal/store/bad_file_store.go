// This file handles database operations for files the scanner could not
// catalog: names that do not parse and archives that cannot be read.

package store

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/vrsandeep/mango-catalog/internal/models"
)

// BadFileStore handles database operations for bad files.
type BadFileStore struct {
	db *sql.DB
}

// NewBadFileStore creates a new BadFileStore instance.
func NewBadFileStore(db *sql.DB) *BadFileStore {
	return &BadFileStore{db: db}
}

// CreateBadFile adds a bad file entry, replacing any entry for the same path.
func (s *BadFileStore) CreateBadFile(libraryID int64, path string, kind models.BadFileError, fileSize int64) error {
	query := `
		INSERT INTO bad_files (library_id, path, file_name, error, file_size, detected_at, last_checked)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			library_id = excluded.library_id,
			error = excluded.error,
			file_size = excluded.file_size,
			last_checked = excluded.last_checked
	`

	now := time.Now()
	_, err := s.db.Exec(query, libraryID, path, filepath.Base(path), string(kind), fileSize, now, now)
	if err != nil {
		return fmt.Errorf("failed to create bad file entry: %w", err)
	}

	return nil
}

// GetAllBadFiles retrieves all bad files from the database.
func (s *BadFileStore) GetAllBadFiles() ([]*models.BadFile, error) {
	return s.query("ORDER BY detected_at DESC, path")
}

// ListBadFiles retrieves the bad files of one library.
func (s *BadFileStore) ListBadFiles(libraryID int64) ([]*models.BadFile, error) {
	return s.query("WHERE library_id = ? ORDER BY path", libraryID)
}

func (s *BadFileStore) query(where string, args ...any) ([]*models.BadFile, error) {
	rows, err := s.db.Query(`
		SELECT id, library_id, path, file_name, error, file_size, detected_at, last_checked
		FROM bad_files `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bad files: %w", err)
	}
	defer rows.Close()

	// Initialize with an empty slice to ensure it's never nil
	badFiles := make([]*models.BadFile, 0)
	for rows.Next() {
		bf := &models.BadFile{}
		err := rows.Scan(&bf.ID, &bf.LibraryID, &bf.Path, &bf.FileName, &bf.Error, &bf.FileSize, &bf.DetectedAt, &bf.LastChecked)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bad file row: %w", err)
		}
		badFiles = append(badFiles, bf)
	}

	return badFiles, rows.Err()
}

// DeleteBadFile removes a bad file entry by ID.
func (s *BadFileStore) DeleteBadFile(id int64) error {
	_, err := s.db.Exec(`DELETE FROM bad_files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bad file: %w", err)
	}

	return nil
}

// DeleteBadFileByPath removes a bad file entry by path.
func (s *BadFileStore) DeleteBadFileByPath(path string) error {
	_, err := s.db.Exec(`DELETE FROM bad_files WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("failed to delete bad file by path: %w", err)
	}

	return nil
}

// ResolveBadFiles deletes the entries of a library that lie under one of
// dirs but are no longer bad, either because they parse now or because they
// are gone. It returns how many entries were cleared.
func (s *BadFileStore) ResolveBadFiles(libraryID int64, dirs []string, stillBad map[string]bool) (int, error) {
	badFiles, err := s.ListBadFiles(libraryID)
	if err != nil {
		return 0, err
	}

	cleared := 0
	for _, bf := range badFiles {
		if stillBad[bf.Path] || !underAny(bf.Path, dirs) {
			continue
		}
		if err := s.DeleteBadFile(bf.ID); err != nil {
			return cleared, err
		}
		cleared++
	}
	return cleared, nil
}

// CountBadFiles returns the total number of bad files.
func (s *BadFileStore) CountBadFiles() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM bad_files`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bad files: %w", err)
	}

	return count, nil
}

func underAny(path string, dirs []string) bool {
	for _, dir := range dirs {
		if isWithin(path, dir) {
			return true
		}
	}
	return false
}
