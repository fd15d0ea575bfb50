// This file persists a reconciliation plan. A plan is applied in a single
// transaction: either every series in it is written or none is.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vrsandeep/mango-catalog/internal/models"
	"github.com/vrsandeep/mango-catalog/internal/reconcile"
)

// ApplyPlan writes a plan. Rows with a zero id are inserted and receive
// their new id; the rest are updated in place. On success every series,
// volume, chapter and file in the plan carries its database id.
//
// Order matters: dropped files go first, then the desired trees are written
// (which may re-home surviving files), and only then are dropped chapters
// and volumes deleted, so their cascades cannot take a surviving file along.
func (s *Store) ApplyPlan(ctx context.Context, plan *reconcile.Plan) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()

	for _, ser := range plan.Remove {
		if _, err := tx.Exec("DELETE FROM series WHERE id = ?", ser.ID); err != nil {
			return fmt.Errorf("failed to delete series %d: %w", ser.ID, err)
		}
	}
	for _, u := range plan.Update {
		if err := deleteIDs(tx, "files", u.RemovedFiles); err != nil {
			return err
		}
	}

	for _, ser := range plan.Create {
		if err := saveSeries(tx, ser, now); err != nil {
			return err
		}
	}
	for _, u := range plan.Update {
		if err := saveSeries(tx, u.Series, now); err != nil {
			return err
		}
	}

	for _, u := range plan.Update {
		if err := deleteIDs(tx, "chapters", u.RemovedChapters); err != nil {
			return err
		}
		if err := deleteIDs(tx, "volumes", u.RemovedVolumes); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit plan: %w", err)
	}
	return nil
}

func saveSeries(tx *sql.Tx, ser *models.Series, now time.Time) error {
	if ser.ID == 0 {
		ser.CreatedAt, ser.UpdatedAt = now, now
		res, err := tx.Exec(`
			INSERT INTO series (library_id, name, normalized_name, original_name, sort_name, localized_name,
				format, name_locked, sort_name_locked, localized_name_locked, folder_path, pages, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ser.LibraryID, ser.Name, ser.NormalizedName, ser.OriginalName, ser.SortName, ser.LocalizedName,
			ser.Format, ser.NameLocked, ser.SortNameLocked, ser.LocalizedNameLocked, ser.FolderPath, ser.Pages, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert series %q: %w", ser.Name, err)
		}
		if ser.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	} else {
		ser.UpdatedAt = now
		_, err := tx.Exec(`
			UPDATE series SET name = ?, normalized_name = ?, original_name = ?, sort_name = ?,
				format = ?, folder_path = ?, pages = ?, updated_at = ?
			WHERE id = ?`,
			ser.Name, ser.NormalizedName, ser.OriginalName, ser.SortName,
			ser.Format, ser.FolderPath, ser.Pages, now, ser.ID)
		if err != nil {
			return fmt.Errorf("failed to update series %q: %w", ser.Name, err)
		}
	}

	for _, v := range ser.Volumes {
		v.SeriesID = ser.ID
		if err := saveVolume(tx, v, now); err != nil {
			return fmt.Errorf("series %q: %w", ser.Name, err)
		}
	}
	return nil
}

func saveVolume(tx *sql.Tx, v *models.Volume, now time.Time) error {
	if v.ID == 0 {
		v.CreatedAt, v.UpdatedAt = now, now
		res, err := tx.Exec("INSERT INTO volumes (series_id, name, number, pages, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			v.SeriesID, v.Name, v.Number, v.Pages, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert volume %q: %w", v.Name, err)
		}
		if v.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	} else {
		v.UpdatedAt = now
		if _, err := tx.Exec("UPDATE volumes SET number = ?, pages = ?, updated_at = ? WHERE id = ?",
			v.Number, v.Pages, now, v.ID); err != nil {
			return fmt.Errorf("failed to update volume %q: %w", v.Name, err)
		}
	}

	for _, c := range v.Chapters {
		c.VolumeID = v.ID
		if err := saveChapter(tx, c, now); err != nil {
			return err
		}
	}
	return nil
}

func saveChapter(tx *sql.Tx, c *models.Chapter, now time.Time) error {
	if c.ID == 0 {
		c.CreatedAt, c.UpdatedAt = now, now
		res, err := tx.Exec(`
			INSERT INTO chapters (volume_id, range_key, number, is_special, title, pages, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.VolumeID, c.Range, c.Number, c.IsSpecial, c.Title, c.Pages, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert chapter %q: %w", c.Range, err)
		}
		if c.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	} else {
		c.UpdatedAt = now
		if _, err := tx.Exec("UPDATE chapters SET volume_id = ?, number = ?, title = ?, pages = ?, updated_at = ? WHERE id = ?",
			c.VolumeID, c.Number, c.Title, c.Pages, now, c.ID); err != nil {
			return fmt.Errorf("failed to update chapter %q: %w", c.Range, err)
		}
	}

	for _, f := range c.Files {
		f.ChapterID = c.ID
		if f.ID == 0 {
			res, err := tx.Exec("INSERT INTO files (chapter_id, path, format, pages, last_modified) VALUES (?, ?, ?, ?, ?)",
				f.ChapterID, f.FilePath, f.Format, f.Pages, f.LastModified)
			if err != nil {
				return fmt.Errorf("failed to insert file %s: %w", f.FilePath, err)
			}
			if f.ID, err = res.LastInsertId(); err != nil {
				return err
			}
			continue
		}
		if _, err := tx.Exec("UPDATE files SET chapter_id = ?, format = ?, pages = ?, last_modified = ? WHERE id = ?",
			f.ChapterID, f.Format, f.Pages, f.LastModified, f.ID); err != nil {
			return fmt.Errorf("failed to update file %s: %w", f.FilePath, err)
		}
	}
	return nil
}

func deleteIDs(tx *sql.Tx, table string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	in, args := inClause(ids)
	if _, err := tx.Exec("DELETE FROM "+table+" WHERE id IN ("+in+")", args...); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}
