// This file turns a parse group into the desired Volume/Chapter/File tree of
// a series, reusing the ids of everything that already exists so identities
// stay stable across scans.

package reconcile

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/vrsandeep/mango-catalog/internal/models"
	"github.com/vrsandeep/mango-catalog/internal/parser"
	"github.com/vrsandeep/mango-catalog/internal/util"
)

// ErrVolumeStillOnDisk is returned instead of planning the removal of a
// volume whose files are still present but no longer part of the group.
var ErrVolumeStillOnDisk = errors.New("volume would be removed while its files are still on disk")

// Disk is the filesystem view the planner needs. Stat must treat files the
// scanner ignores (excluded, blacklisted) as missing.
type Disk interface {
	Stat(path string) (modTime time.Time, exists bool)
	// PageCount never fails; unreadable content counts as 0 pages.
	PageCount(path string, format models.Format) int
}

// SeriesUpdate is the desired tree of an existing series plus the ids of the
// rows that no longer belong to it. Rows with a zero id are new.
type SeriesUpdate struct {
	Series          *models.Series
	RemovedVolumes  []int64
	RemovedChapters []int64
	RemovedFiles    []int64
}

// NewSeries builds the full tree for a group with no existing series.
func NewSeries(libraryID int64, g *Group, disk Disk) *models.Series {
	s := &models.Series{
		LibraryID:      libraryID,
		Name:           g.Name,
		NormalizedName: g.NormalizedName,
		OriginalName:   g.Name,
		SortName:       g.Name,
		Format:         g.Format,
		FolderPath:     g.FolderPath,
	}
	b := newBuilder(nil, g, disk)
	s.Volumes = b.volumes()
	s.Pages = sumVolumePages(s.Volumes)
	return s
}

// PlanSeries reconciles an existing series tree with the group that matched
// it. changed is false when the catalog already reflects the group exactly.
func PlanSeries(existing *models.Series, g *Group, disk Disk) (upd *SeriesUpdate, changed bool, err error) {
	desired := *existing
	desired.Volumes = nil

	if !desired.NameLocked {
		desired.Name = g.Name
	}
	desired.OriginalName = g.Name
	desired.NormalizedName = parser.Normalize(desired.Name)
	if !desired.SortNameLocked {
		desired.SortName = desired.Name
	}
	if desired.Format == models.FormatUnknown || desired.Format == "" {
		desired.Format = g.Format
	}
	desired.FolderPath = g.FolderPath

	b := newBuilder(existing, g, disk)
	desired.Volumes = b.volumes()
	desired.Pages = sumVolumePages(desired.Volumes)

	upd = &SeriesUpdate{Series: &desired}
	if err := b.collectRemovals(upd); err != nil {
		return nil, false, fmt.Errorf("series %q: %w", existing.Name, err)
	}

	changed = b.changed ||
		len(upd.RemovedVolumes) > 0 || len(upd.RemovedChapters) > 0 || len(upd.RemovedFiles) > 0 ||
		desired.Name != existing.Name ||
		desired.OriginalName != existing.OriginalName ||
		desired.NormalizedName != existing.NormalizedName ||
		desired.SortName != existing.SortName ||
		desired.Format != existing.Format ||
		desired.FolderPath != existing.FolderPath ||
		desired.Pages != existing.Pages
	return upd, changed, nil
}

// ShouldRemove decides what happens to an existing series no group matched.
// It is removed only when none of its files exist any more; otherwise it is
// unresolved and left alone.
func ShouldRemove(s *models.Series, disk Disk) bool {
	for _, f := range s.Files() {
		if _, ok := disk.Stat(f.FilePath); ok {
			return false
		}
	}
	return true
}

type builder struct {
	existing *models.Series
	group    *Group
	disk     Disk
	changed  bool

	// every existing file by path, so a file that moved between chapters
	// keeps its id
	filesByPath map[string]*models.MangaFile
	groupPaths  map[string]bool
	keptVolumes map[int64]bool
	keptChaps   map[int64]bool
	keptFiles   map[int64]bool
}

func newBuilder(existing *models.Series, g *Group, disk Disk) *builder {
	b := &builder{
		existing:    existing,
		group:       g,
		disk:        disk,
		filesByPath: make(map[string]*models.MangaFile),
		groupPaths:  make(map[string]bool, len(g.Records)),
		keptVolumes: make(map[int64]bool),
		keptChaps:   make(map[int64]bool),
		keptFiles:   make(map[int64]bool),
	}
	if existing != nil {
		for _, f := range existing.Files() {
			b.filesByPath[f.FilePath] = f
		}
	}
	for _, r := range g.Records {
		b.groupPaths[r.FullPath] = true
	}
	return b
}

type volumeBucket struct {
	number   parser.Number
	chapters map[string]*chapterBucket
}

type chapterBucket struct {
	key     string
	number  parser.Number
	special bool
	title   string
	records []*parser.Info
}

func (b *builder) volumes() []*models.Volume {
	buckets := make(map[string]*volumeBucket)
	for _, r := range b.group.Records {
		vb, ok := buckets[r.Volume.Raw]
		if !ok {
			vb = &volumeBucket{number: r.Volume, chapters: make(map[string]*chapterBucket)}
			buckets[r.Volume.Raw] = vb
		}

		// Specials are keyed by filename; they rarely carry a usable number.
		key := r.Chapter.Raw
		if r.IsSpecial {
			key = r.Filename
		}
		cb, ok := vb.chapters[key]
		if !ok {
			cb = &chapterBucket{key: key, number: r.Chapter, special: r.IsSpecial}
			if r.IsSpecial {
				cb.title = r.Title
			}
			vb.chapters[key] = cb
		}
		cb.records = append(cb.records, r)
	}

	var existingVolumes []*models.Volume
	if b.existing != nil {
		existingVolumes = b.existing.Volumes
	}

	volumes := make([]*models.Volume, 0, len(buckets))
	for name, vb := range buckets {
		var old *models.Volume
		for _, v := range existingVolumes {
			if v.Name == name {
				old = v
				break
			}
		}

		v := &models.Volume{Name: name, Number: vb.number.Min}
		if old != nil {
			b.keptVolumes[old.ID] = true
			v.ID, v.SeriesID, v.CreatedAt = old.ID, old.SeriesID, old.CreatedAt
			if old.Number != v.Number {
				b.changed = true
			}
		} else {
			b.changed = true
		}

		v.Chapters = b.chapters(old, vb)
		for _, c := range v.Chapters {
			v.Pages += c.Pages
		}
		if old != nil && old.Pages != v.Pages {
			b.changed = true
		}
		volumes = append(volumes, v)
	}

	sort.Slice(volumes, func(i, j int) bool {
		if volumes[i].Number != volumes[j].Number {
			return volumes[i].Number < volumes[j].Number
		}
		return util.NaturalSortLess(volumes[i].Name, volumes[j].Name)
	})
	return volumes
}

func (b *builder) chapters(old *models.Volume, vb *volumeBucket) []*models.Chapter {
	chapters := make([]*models.Chapter, 0, len(vb.chapters))
	for _, cb := range vb.chapters {
		var prev *models.Chapter
		if old != nil {
			for _, c := range old.Chapters {
				if c.Range == cb.key && c.IsSpecial == cb.special {
					prev = c
					break
				}
			}
		}

		c := &models.Chapter{
			Range:     cb.key,
			Number:    cb.number.Min,
			IsSpecial: cb.special,
			Title:     cb.title,
		}
		if prev != nil {
			b.keptChaps[prev.ID] = true
			c.ID, c.VolumeID, c.CreatedAt = prev.ID, prev.VolumeID, prev.CreatedAt
			if prev.Number != c.Number || prev.Title != c.Title {
				b.changed = true
			}
		} else {
			b.changed = true
		}

		c.Files = b.files(prev, cb.records)
		for _, f := range c.Files {
			c.Pages += f.Pages
		}
		if prev != nil && prev.Pages != c.Pages {
			b.changed = true
		}
		chapters = append(chapters, c)
	}

	sort.Slice(chapters, func(i, j int) bool {
		if chapters[i].Number != chapters[j].Number {
			return chapters[i].Number < chapters[j].Number
		}
		return util.NaturalSortLess(chapters[i].Range, chapters[j].Range)
	})
	return chapters
}

func (b *builder) files(prev *models.Chapter, records []*parser.Info) []*models.MangaFile {
	files := make([]*models.MangaFile, 0, len(records))
	for _, r := range records {
		modTime, _ := b.disk.Stat(r.FullPath)

		f := &models.MangaFile{FilePath: r.FullPath, Format: r.Format, LastModified: modTime}
		old, ok := b.filesByPath[r.FullPath]
		switch {
		case !ok:
			f.Pages = b.disk.PageCount(r.FullPath, r.Format)
			b.changed = true
		case !old.LastModified.Equal(modTime) || old.Format != r.Format:
			f.ID = old.ID
			f.Pages = b.disk.PageCount(r.FullPath, r.Format)
			b.changed = true
		default:
			f.ID = old.ID
			f.Pages = old.Pages
		}
		if ok {
			b.keptFiles[old.ID] = true
			if prev == nil || old.ChapterID != prev.ID {
				b.changed = true
			}
		}
		if prev != nil {
			f.ChapterID = prev.ID
		}
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool {
		return util.NaturalSortLess(files[i].FilePath, files[j].FilePath)
	})
	return files
}

// collectRemovals lists every existing row the desired tree dropped. A
// dropped volume that still owns a file present on disk, and not re-homed by
// the group, is refused.
func (b *builder) collectRemovals(upd *SeriesUpdate) error {
	if b.existing == nil {
		return nil
	}
	for _, v := range b.existing.Volumes {
		if !b.keptVolumes[v.ID] {
			for _, c := range v.Chapters {
				for _, f := range c.Files {
					if b.groupPaths[f.FilePath] {
						continue
					}
					if _, ok := b.disk.Stat(f.FilePath); ok {
						return fmt.Errorf("volume %q, file %s: %w", v.Name, f.FilePath, ErrVolumeStillOnDisk)
					}
				}
			}
			upd.RemovedVolumes = append(upd.RemovedVolumes, v.ID)
		}
		for _, c := range v.Chapters {
			if !b.keptChaps[c.ID] {
				upd.RemovedChapters = append(upd.RemovedChapters, c.ID)
			}
			for _, f := range c.Files {
				if !b.keptFiles[f.ID] {
					upd.RemovedFiles = append(upd.RemovedFiles, f.ID)
				}
			}
		}
	}
	return nil
}

func sumVolumePages(volumes []*models.Volume) int {
	pages := 0
	for _, v := range volumes {
		pages += v.Pages
	}
	return pages
}
