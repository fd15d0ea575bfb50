// To handle all database interactions. This is our
// data access layer, keeping SQL queries separate from business logic.

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/vrsandeep/mango-catalog/internal/models"
	"github.com/vrsandeep/mango-catalog/internal/parser"
)

var (
	ErrSeriesNotFound  = errors.New("series not found")
	ErrLibraryNotFound = errors.New("library not found")
)

// Store provides all functions to interact with the database.
type Store struct {
	db *sql.DB
}

// New creates a new Store instance.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const seriesColumns = `id, library_id, name, normalized_name, original_name, sort_name, localized_name,
	format, name_locked, sort_name_locked, localized_name_locked, folder_path, pages, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeries(row rowScanner) (*models.Series, error) {
	var s models.Series
	err := row.Scan(&s.ID, &s.LibraryID, &s.Name, &s.NormalizedName, &s.OriginalName, &s.SortName,
		&s.LocalizedName, &s.Format, &s.NameLocked, &s.SortNameLocked, &s.LocalizedNameLocked,
		&s.FolderPath, &s.Pages, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSeriesIndex returns the scalar fields of every series in a library,
// without volumes. It is what the matcher needs for a whole library.
func (s *Store) ListSeriesIndex(libraryID int64) ([]*models.Series, error) {
	rows, err := s.db.Query("SELECT "+seriesColumns+" FROM series WHERE library_id = ? ORDER BY sort_name COLLATE NOCASE, id", libraryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer rows.Close()

	series := make([]*models.Series, 0)
	for rows.Next() {
		ser, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan series row: %w", err)
		}
		series = append(series, ser)
	}
	return series, rows.Err()
}

// GetSeries loads one series with its full volume/chapter/file tree.
func (s *Store) GetSeries(id int64) (*models.Series, error) {
	series, err := s.LoadSeries([]int64{id})
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, ErrSeriesNotFound
	}
	return series[0], nil
}

// LoadSeries loads full trees for a set of series, in the order of ids.
// Missing ids are skipped.
func (s *Store) LoadSeries(ids []int64) ([]*models.Series, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	in, args := inClause(ids)

	byID := make(map[int64]*models.Series, len(ids))
	rows, err := s.db.Query("SELECT "+seriesColumns+" FROM series WHERE id IN ("+in+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	for rows.Next() {
		ser, err := scanSeries(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan series row: %w", err)
		}
		byID[ser.ID] = ser
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	volumes := make(map[int64]*models.Volume)
	rows, err = s.db.Query(`
		SELECT id, series_id, name, number, pages, created_at, updated_at
		FROM volumes WHERE series_id IN (`+in+`)
		ORDER BY number, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query volumes: %w", err)
	}
	for rows.Next() {
		v := &models.Volume{}
		if err := rows.Scan(&v.ID, &v.SeriesID, &v.Name, &v.Number, &v.Pages, &v.CreatedAt, &v.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan volume row: %w", err)
		}
		volumes[v.ID] = v
		byID[v.SeriesID].Volumes = append(byID[v.SeriesID].Volumes, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	chapters := make(map[int64]*models.Chapter)
	rows, err = s.db.Query(`
		SELECT c.id, c.volume_id, c.range_key, c.number, c.is_special, c.title, c.pages, c.created_at, c.updated_at
		FROM chapters c JOIN volumes v ON c.volume_id = v.id
		WHERE v.series_id IN (`+in+`)
		ORDER BY c.number, c.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chapters: %w", err)
	}
	for rows.Next() {
		c := &models.Chapter{}
		if err := rows.Scan(&c.ID, &c.VolumeID, &c.Range, &c.Number, &c.IsSpecial, &c.Title, &c.Pages, &c.CreatedAt, &c.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan chapter row: %w", err)
		}
		chapters[c.ID] = c
		volumes[c.VolumeID].Chapters = append(volumes[c.VolumeID].Chapters, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`
		SELECT f.id, f.chapter_id, f.path, f.format, f.pages, f.last_modified
		FROM files f
		JOIN chapters c ON f.chapter_id = c.id
		JOIN volumes v ON c.volume_id = v.id
		WHERE v.series_id IN (`+in+`)
		ORDER BY f.path`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		f := &models.MangaFile{}
		if err := rows.Scan(&f.ID, &f.ChapterID, &f.FilePath, &f.Format, &f.Pages, &f.LastModified); err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		chapters[f.ChapterID].Files = append(chapters[f.ChapterID].Files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	series := make([]*models.Series, 0, len(byID))
	for _, id := range ids {
		if ser, ok := byID[id]; ok {
			series = append(series, ser)
		}
	}
	return series, nil
}

// RenameSeries sets a user-chosen name and locks it so scans keep it.
func (s *Store) RenameSeries(id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("series name cannot be empty")
	}
	res, err := s.db.Exec(`
		UPDATE series SET
			name = ?, normalized_name = ?, name_locked = 1,
			sort_name = CASE WHEN sort_name_locked THEN sort_name ELSE ? END,
			updated_at = ?
		WHERE id = ?`,
		name, parser.Normalize(name), name, time.Now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSeriesNotFound
	}
	return nil
}

// FindSeriesByPath returns the series whose folder is the deepest ancestor
// of path (or path itself) within a library. A series whose folder is a
// library root never matches, since every path under that root would resolve
// to it.
func (s *Store) FindSeriesByPath(libraryID int64, path string) (*models.Series, error) {
	lib, err := s.GetLibrary(libraryID)
	if err != nil {
		return nil, err
	}
	roots := make(map[string]bool, len(lib.Folders))
	for _, f := range lib.Folders {
		roots[filepath.Clean(f)] = true
	}
	series, err := s.ListSeriesIndex(libraryID)
	if err != nil {
		return nil, err
	}
	var best *models.Series
	for _, ser := range series {
		if ser.FolderPath == "" || roots[filepath.Clean(ser.FolderPath)] || !isWithin(path, ser.FolderPath) {
			continue
		}
		if best == nil || len(ser.FolderPath) > len(best.FolderPath) {
			best = ser
		}
	}
	if best == nil {
		return nil, ErrSeriesNotFound
	}
	return best, nil
}

func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func inClause(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}
