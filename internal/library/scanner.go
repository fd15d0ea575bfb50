// This file contains the main logic for scanning a library. It walks the
// library folders, groups the parsed files into series, reconciles them with
// the catalog in chunks and keeps the bad file list current.

package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/vrsandeep/mango-catalog/internal/config"
	"github.com/vrsandeep/mango-catalog/internal/models"
	"github.com/vrsandeep/mango-catalog/internal/parser"
	"github.com/vrsandeep/mango-catalog/internal/reconcile"
	"github.com/vrsandeep/mango-catalog/internal/store"
	"github.com/vrsandeep/mango-catalog/internal/util"
	"github.com/vrsandeep/mango-catalog/internal/websocket"
)

// ErrSeriesUnresolved is returned by a series scan when the series' files
// are still on disk but no longer parse to it, even from the library root.
var ErrSeriesUnresolved = errors.New("series files exist but no longer parse to the series")

// Notifier receives catalog events once the change behind them is committed.
type Notifier interface {
	SeriesAdded(libraryID, seriesID int64, name string)
	SeriesRemoved(libraryID, seriesID int64, name string)
	ScanComplete(libraryID int64)
}

type nopNotifier struct{}

func (nopNotifier) SeriesAdded(int64, int64, string)   {}
func (nopNotifier) SeriesRemoved(int64, int64, string) {}
func (nopNotifier) ScanComplete(int64)                 {}

// ScanResult summarizes one scan.
type ScanResult struct {
	RunID     string `json:"run_id"`
	LibraryID int64  `json:"library_id"`
	SeriesID  int64  `json:"series_id,omitempty"`
	Files     int    `json:"files"`
	Unparsed  int    `json:"unparsed"`
	Created   int    `json:"created"`
	Updated   int    `json:"updated"`
	Removed   int    `json:"removed"`
	// Conflicts are groups skipped because they matched ambiguously.
	Conflicts []string `json:"conflicts,omitempty"`
	// Unresolved are series whose files exist but parse to nothing.
	Unresolved []string  `json:"unresolved,omitempty"`
	Errors     []string  `json:"errors,omitempty"`
	Started    time.Time `json:"started"`
	Finished   time.Time `json:"finished"`
}

func newScanResult(libraryID int64) *ScanResult {
	return &ScanResult{RunID: uuid.NewString(), LibraryID: libraryID, Started: time.Now()}
}

// Scanner is responsible for scanning libraries and updating the database.
type Scanner struct {
	cfg      *config.Config
	st       *store.Store
	badFiles *store.BadFileStore
	exclude  *Excluder
	hub      *websocket.Hub
	notifier Notifier
}

// NewScanner creates a new Scanner instance. hub may be nil, in which case
// neither progress nor events are broadcast.
func NewScanner(cfg *config.Config, db *sql.DB, hub *websocket.Hub) (*Scanner, error) {
	exclude, err := NewExcluder(cfg.Scan.Exclude)
	if err != nil {
		return nil, err
	}
	s := &Scanner{
		cfg:      cfg,
		st:       store.New(db),
		badFiles: store.NewBadFileStore(db),
		exclude:  exclude,
		hub:      hub,
		notifier: nopNotifier{},
	}
	if hub != nil {
		s.notifier = websocket.NewNotifier(hub)
	}
	return s, nil
}

// SetNotifier replaces the event sink.
func (s *Scanner) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *Scanner) chunkSize() int {
	return max(s.cfg.Scan.ChunkSize, 1)
}

func (s *Scanner) workers() int {
	if s.cfg.Scan.Workers > 0 {
		return s.cfg.Scan.Workers
	}
	return runtime.NumCPU()
}

func (s *Scanner) walkOptions(lib *models.Library) WalkOptions {
	return WalkOptions{
		Profile: parser.ProfileFor(lib.Type, lib.Legacy),
		Exclude: s.exclude,
		Workers: s.workers(),
	}
}

// ScanAll scans every library in turn. A library already being scanned is
// skipped.
func (s *Scanner) ScanAll(ctx context.Context) ([]*ScanResult, error) {
	libs, err := s.st.ListLibraries()
	if err != nil {
		return nil, err
	}

	var results []*ScanResult
	var errs []error
	for _, lib := range libs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := s.ScanLibrary(ctx, lib.ID)
		if res != nil {
			results = append(results, res)
		}
		if errors.Is(err, ErrScanInProgress) {
			log.Printf("Skipping library %q: %v", lib.Name, err)
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("library %q: %w", lib.Name, err))
		}
	}
	return results, errors.Join(errs...)
}

// ScanLibrary walks every folder of a library and reconciles the whole
// catalog of the library with it. Existing series are reconciled chunk by
// chunk, each chunk in its own transaction; new series follow, chunked the
// same way. Cancellation is honored between chunks.
func (s *Scanner) ScanLibrary(ctx context.Context, libraryID int64) (*ScanResult, error) {
	lib, err := s.st.GetLibrary(libraryID)
	if err != nil {
		return nil, err
	}
	release, err := lockLibrary(s.cfg.DataDir, lib.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	res := newScanResult(lib.ID)
	defer func() { res.Finished = time.Now() }()
	jobID := fmt.Sprintf("scan-library-%d", lib.ID)
	log.Printf("Starting scan of library %q (run %s)", lib.Name, res.RunID)
	sendProgress(s.hub, jobID, lib.ID, "Walking library folders...", 0, false)

	if err := s.checkRoots(lib); err != nil {
		return res, err
	}

	targets := make([]Target, 0, len(lib.Folders))
	for _, root := range lib.Folders {
		targets = append(targets, Target{Root: root, Dir: root})
	}
	walk, err := Walk(ctx, targets, s.walkOptions(lib))
	if err != nil {
		return res, fmt.Errorf("failed to walk library %q: %w", lib.Name, err)
	}
	res.Files, res.Unparsed = walk.Files, len(walk.Unparsed)

	groups := Group(walk.Records)
	index, err := s.st.ListSeriesIndex(lib.ID)
	if err != nil {
		return res, err
	}
	a := reconcile.Match(index, groups)
	for _, c := range a.Conflicts {
		log.Printf("Skipping ambiguous series group %s", c.Error())
		res.Conflicts = append(res.Conflicts, c.Error())
	}

	disk := newLibraryDisk(lib.Folders, s.exclude)
	var planErrs []error
	total := len(index) + len(a.New)
	done := 0
	chunk := s.chunkSize()

	for start := 0; start < len(index); start += chunk {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		end := min(start+chunk, len(index))
		ids := make([]int64, 0, end-start)
		for _, ser := range index[start:end] {
			ids = append(ids, ser.ID)
		}
		existing, err := s.st.LoadSeries(ids)
		if err != nil {
			return res, err
		}

		plan, err := reconcile.PlanExisting(a, existing, disk, s.workers())
		for _, e := range splitErrors(err) {
			log.Printf("Could not reconcile series in library %q: %v", lib.Name, e)
			res.Errors = append(res.Errors, e.Error())
			planErrs = append(planErrs, e)
		}
		for _, ser := range plan.Unresolved {
			log.Printf("Files of series %q still exist but no longer parse to it; leaving it in place", ser.Name)
			res.Unresolved = append(res.Unresolved, ser.Name)
		}
		if err := s.commit(ctx, lib.ID, plan, res); err != nil {
			return res, err
		}

		done += end - start
		sendProgress(s.hub, jobID, lib.ID, fmt.Sprintf("Reconciled %d of %d series", done, total), percent(done, total), false)
	}

	for start := 0; start < len(a.New); start += chunk {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		end := min(start+chunk, len(a.New))
		plan := reconcile.PlanNew(lib.ID, a.New[start:end], disk, s.workers())
		if err := s.commit(ctx, lib.ID, plan, res); err != nil {
			return res, err
		}

		done += end - start
		sendProgress(s.hub, jobID, lib.ID, fmt.Sprintf("Reconciled %d of %d series", done, total), percent(done, total), false)
	}

	s.recordBadFiles(lib.ID, lib.Folders, walk, disk)
	if err := s.st.MarkLibraryScanned(lib.ID, time.Now()); err != nil {
		log.Printf("Failed to record scan time of library %q: %v", lib.Name, err)
	}
	s.notifier.ScanComplete(lib.ID)

	log.Printf("Finished scan of library %q: %d files, %d created, %d updated, %d removed, %d conflicts, %d unparsed",
		lib.Name, res.Files, res.Created, res.Updated, res.Removed, len(res.Conflicts), res.Unparsed)
	sendProgress(s.hub, jobID, lib.ID, "Library scan complete.", 100, true)

	if len(planErrs) > 0 {
		return res, fmt.Errorf("%d series could not be reconciled: %w", len(planErrs), errors.Join(planErrs...))
	}
	return res, nil
}

// ScanSeries rescans one series. Only the highest stable directories of its
// files are walked. When nothing there parses to the series while its files
// still exist, the walk moves one directory level up and tries again, up to
// the library roots, before giving up with ErrSeriesUnresolved. A series
// whose files are all gone is removed.
func (s *Scanner) ScanSeries(ctx context.Context, seriesID int64) (*ScanResult, error) {
	ser, err := s.st.GetSeries(seriesID)
	if err != nil {
		return nil, err
	}
	lib, err := s.st.GetLibrary(ser.LibraryID)
	if err != nil {
		return nil, err
	}
	release, err := lockLibrary(s.cfg.DataDir, lib.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	// Re-read under the lock, a library scan may have just finished.
	if ser, err = s.st.GetSeries(seriesID); err != nil {
		return nil, err
	}

	res := newScanResult(lib.ID)
	res.SeriesID = ser.ID
	defer func() { res.Finished = time.Now() }()
	jobID := fmt.Sprintf("scan-series-%d", ser.ID)
	sendProgress(s.hub, jobID, ser.ID, fmt.Sprintf("Scanning %s...", ser.Name), 0, false)

	if err := s.checkRoots(lib); err != nil {
		return res, err
	}

	var paths []string
	for _, f := range ser.Files() {
		paths = append(paths, f.FilePath)
	}
	dirs := HighestStableDirectories(lib.Folders, paths)
	if len(dirs) == 0 {
		dirs = lib.Folders
	}

	index, err := s.st.ListSeriesIndex(lib.ID)
	if err != nil {
		return res, err
	}
	disk := newLibraryDisk(lib.Folders, s.exclude)

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		walk, err := Walk(ctx, s.targets(lib.Folders, dirs), s.walkOptions(lib))
		if err != nil {
			return res, fmt.Errorf("failed to walk series %q: %w", ser.Name, err)
		}
		res.Files, res.Unparsed = walk.Files, len(walk.Unparsed)

		a := reconcile.Match(index, Group(walk.Records))
		if a.Claimed[ser.ID] {
			for _, c := range a.Conflicts {
				res.Conflicts = append(res.Conflicts, c.Error())
			}
			return res, fmt.Errorf("series %q: %w", ser.Name, reconcile.ErrAmbiguousMatch)
		}

		plan := &reconcile.Plan{}
		grp, matched := a.Matched[ser.ID]
		switch {
		case matched:
			upd, changed, err := reconcile.PlanSeries(ser, grp, disk)
			if err != nil {
				log.Printf("Could not reconcile series %q: %v", ser.Name, err)
				res.Errors = append(res.Errors, err.Error())
				return res, err
			}
			if changed {
				plan.Update = append(plan.Update, upd)
			}
			plan.Merge(reconcile.PlanNew(lib.ID, a.New, disk, s.workers()))
		case reconcile.ShouldRemove(ser, disk):
			plan.Remove = append(plan.Remove, ser)
		default:
			escalated, ok := EscalateDirectories(lib.Folders, dirs)
			if !ok {
				res.Unresolved = append(res.Unresolved, ser.Name)
				return res, fmt.Errorf("series %q: %w", ser.Name, ErrSeriesUnresolved)
			}
			log.Printf("Nothing under %v parses to series %q while its files exist, widening to %v", dirs, ser.Name, escalated)
			dirs = escalated
			continue
		}

		if err := s.commit(ctx, lib.ID, plan, res); err != nil {
			return res, err
		}
		s.recordBadFiles(lib.ID, dirs, walk, disk)
		break
	}

	s.notifier.ScanComplete(lib.ID)
	sendProgress(s.hub, jobID, ser.ID, fmt.Sprintf("Finished scanning %s.", ser.Name), 100, true)
	return res, nil
}

// checkRoots refuses to scan a library with an unavailable folder. An
// unmounted drive must not read as a library whose files were all deleted.
func (s *Scanner) checkRoots(lib *models.Library) error {
	for _, root := range lib.Folders {
		if err := util.ValidateLibraryFolder(root); err != nil {
			return fmt.Errorf("library %q folder %s is unavailable: %w", lib.Name, root, err)
		}
	}
	return nil
}

func (s *Scanner) targets(roots, dirs []string) []Target {
	targets := make([]Target, 0, len(dirs))
	for _, d := range dirs {
		root, ok := rootOf(roots, d)
		if !ok {
			continue
		}
		targets = append(targets, Target{Root: root, Dir: d})
	}
	return targets
}

// commit applies a plan in one transaction, then dispatches its events in
// the background. A canceled ctx does not interrupt a commit in progress.
func (s *Scanner) commit(ctx context.Context, libraryID int64, plan *reconcile.Plan, res *ScanResult) error {
	if plan.Empty() {
		return nil
	}
	if err := s.st.ApplyPlan(context.WithoutCancel(ctx), plan); err != nil {
		log.Printf("CRITICAL: catalog commit for library %d failed and was rolled back: %v", libraryID, err)
		return fmt.Errorf("failed to commit scan changes: %w", err)
	}

	res.Created += len(plan.Create)
	res.Updated += len(plan.Update)
	res.Removed += len(plan.Remove)

	go func() {
		for _, ser := range plan.Create {
			s.notifier.SeriesAdded(libraryID, ser.ID, ser.Name)
		}
		for _, ser := range plan.Remove {
			s.notifier.SeriesRemoved(libraryID, ser.ID, ser.Name)
		}
	}()
	return nil
}

// recordBadFiles stores the files of this walk that could not be catalogued
// and clears the entries under dirs that are no longer bad. A content error
// found in an earlier scan stays as long as the file exists and was not
// read again.
func (s *Scanner) recordBadFiles(libraryID int64, dirs []string, walk *WalkResult, disk *libraryDisk) {
	read, failed := disk.contentResults()
	stillBad := make(map[string]bool)

	for _, path := range walk.Unparsed {
		stillBad[path] = true
		if err := s.badFiles.CreateBadFile(libraryID, path, models.ErrorUnparseable, fileSize(path)); err != nil {
			log.Printf("Failed to record bad file %s: %v", path, err)
		}
	}
	for path, kind := range failed {
		stillBad[path] = true
		if err := s.badFiles.CreateBadFile(libraryID, path, kind, fileSize(path)); err != nil {
			log.Printf("Failed to record bad file %s: %v", path, err)
		}
	}

	known, err := s.badFiles.ListBadFiles(libraryID)
	if err != nil {
		log.Printf("Failed to list bad files: %v", err)
		return
	}
	for _, bf := range known {
		if bf.Error == string(models.ErrorUnparseable) || read[bf.Path] {
			continue
		}
		if _, exists := disk.Stat(bf.Path); exists {
			stillBad[bf.Path] = true
		}
	}

	cleared, err := s.badFiles.ResolveBadFiles(libraryID, dirs, stillBad)
	if err != nil {
		log.Printf("Failed to clear resolved bad files: %v", err)
		return
	}
	if cleared > 0 {
		log.Printf("Cleared %d resolved bad file(s)", cleared)
	}
}
