package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vrsandeep/mango-catalog/internal/models"
)

// UpsertLibrary creates a library by name, or updates the type, profile and
// folders of the existing one. The returned library carries its id.
func (s *Store) UpsertLibrary(lib *models.Library) (*models.Library, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now()
	var id int64
	err = tx.QueryRow("SELECT id FROM libraries WHERE name = ?", lib.Name).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.Exec("INSERT INTO libraries (name, type, legacy, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			lib.Name, lib.Type, lib.Legacy, now, now)
		if err != nil {
			return nil, fmt.Errorf("failed to create library %q: %w", lib.Name, err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if _, err := tx.Exec("UPDATE libraries SET type = ?, legacy = ?, updated_at = ? WHERE id = ?",
			lib.Type, lib.Legacy, now, id); err != nil {
			return nil, fmt.Errorf("failed to update library %q: %w", lib.Name, err)
		}
	}

	if _, err := tx.Exec("DELETE FROM library_folders WHERE library_id = ?", id); err != nil {
		return nil, err
	}
	for _, folder := range lib.Folders {
		if _, err := tx.Exec("INSERT OR IGNORE INTO library_folders (library_id, path) VALUES (?, ?)", id, folder); err != nil {
			return nil, fmt.Errorf("failed to add folder %s: %w", folder, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetLibrary(id)
}

// GetLibrary retrieves a single library with its folders.
func (s *Store) GetLibrary(id int64) (*models.Library, error) {
	lib := &models.Library{}
	var lastScanned sql.NullTime
	err := s.db.QueryRow("SELECT id, name, type, legacy, last_scanned FROM libraries WHERE id = ?", id).
		Scan(&lib.ID, &lib.Name, &lib.Type, &lib.Legacy, &lastScanned)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLibraryNotFound
		}
		return nil, err
	}
	if lastScanned.Valid {
		lib.LastScanned = lastScanned.Time
	}

	rows, err := s.db.Query("SELECT path FROM library_folders WHERE library_id = ? ORDER BY path", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lib.Folders = make([]string, 0)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		lib.Folders = append(lib.Folders, path)
	}
	return lib, rows.Err()
}

// ListLibraries returns every library with its folders.
func (s *Store) ListLibraries() ([]*models.Library, error) {
	rows, err := s.db.Query("SELECT id FROM libraries ORDER BY name")
	if err != nil {
		return nil, err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()

	libraries := make([]*models.Library, 0, len(ids))
	for _, id := range ids {
		lib, err := s.GetLibrary(id)
		if err != nil {
			return nil, err
		}
		libraries = append(libraries, lib)
	}
	return libraries, nil
}

// MarkLibraryScanned records the end of a successful library scan.
func (s *Store) MarkLibraryScanned(id int64, at time.Time) error {
	_, err := s.db.Exec("UPDATE libraries SET last_scanned = ? WHERE id = ?", at, id)
	return err
}
