// This file tests the library scanner against real folders and an in-memory
// catalog.

package library_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/mango-catalog/internal/config"
	"github.com/vrsandeep/mango-catalog/internal/library"
	"github.com/vrsandeep/mango-catalog/internal/models"
	"github.com/vrsandeep/mango-catalog/internal/reconcile"
	"github.com/vrsandeep/mango-catalog/internal/store"
	"github.com/vrsandeep/mango-catalog/internal/testutil"
)

type recordingNotifier struct {
	mu       sync.Mutex
	added    []string
	removed  []string
	complete []int64
}

func (n *recordingNotifier) SeriesAdded(_, _ int64, name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.added = append(n.added, name)
}

func (n *recordingNotifier) SeriesRemoved(_, _ int64, name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.removed = append(n.removed, name)
}

func (n *recordingNotifier) ScanComplete(libraryID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.complete = append(n.complete, libraryID)
}

func (n *recordingNotifier) counts() (added, removed, complete int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.added), len(n.removed), len(n.complete)
}

type scanEnv struct {
	root     string
	db       *sql.DB
	st       *store.Store
	lib      *models.Library
	scanner  *library.Scanner
	notifier *recordingNotifier
}

// setupScan creates a library root with two series and an empty catalog.
func setupScan(t *testing.T, mutate ...func(*config.Config)) *scanEnv {
	t.Helper()
	root := t.TempDir()
	testutil.CreateTestCBZ(t, root, "Beelzebub/Beelzebub_01_[Noodles].zip", nil)
	testutil.CreateTestCBZ(t, root, "Beelzebub/Beelzebub_02_[Noodles].zip", nil)
	testutil.CreateTestCBZ(t, root, "Akira/Akira v01.cbz", nil)

	db := testutil.SetupTestDB(t)
	st := store.New(db)
	lib, err := st.UpsertLibrary(&models.Library{Name: "Manga", Type: models.LibraryManga, Folders: []string{root}})
	require.NoError(t, err)

	cfg := &config.Config{DataDir: t.TempDir(), Scan: config.ScanConfig{ChunkSize: 50, Workers: 2}}
	for _, m := range mutate {
		m(cfg)
	}
	scanner, err := library.NewScanner(cfg, db, nil)
	require.NoError(t, err)
	n := &recordingNotifier{}
	scanner.SetNotifier(n)

	return &scanEnv{root: root, db: db, st: st, lib: lib, scanner: scanner, notifier: n}
}

func (e *scanEnv) seriesByName(t *testing.T, name string) *models.Series {
	t.Helper()
	index, err := e.st.ListSeriesIndex(e.lib.ID)
	require.NoError(t, err)
	for _, s := range index {
		if s.Name == name {
			full, err := e.st.GetSeries(s.ID)
			require.NoError(t, err)
			return full
		}
	}
	t.Fatalf("series %q not found", name)
	return nil
}

func TestScanLibraryCreatesCatalog(t *testing.T) {
	env := setupScan(t)

	res, err := env.scanner.ScanLibrary(context.Background(), env.lib.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 3, res.Files)
	assert.Equal(t, 2, res.Created)
	assert.Zero(t, res.Updated)
	assert.Zero(t, res.Removed)

	ser := env.seriesByName(t, "Beelzebub")
	assert.Equal(t, models.FormatArchive, ser.Format)
	assert.Equal(t, filepath.Join(env.root, "Beelzebub"), ser.FolderPath)
	assert.Equal(t, 6, ser.Pages)
	require.Len(t, ser.Volumes, 1)
	require.Len(t, ser.Volumes[0].Chapters, 2)
	assert.Equal(t, "1", ser.Volumes[0].Chapters[0].Range)
	assert.Equal(t, 3, ser.Volumes[0].Chapters[0].Pages)

	akira := env.seriesByName(t, "Akira")
	require.Len(t, akira.Volumes, 1)
	assert.Equal(t, "1", akira.Volumes[0].Name)

	lib, err := env.st.GetLibrary(env.lib.ID)
	require.NoError(t, err)
	assert.False(t, lib.LastScanned.IsZero())

	assert.Eventually(t, func() bool {
		added, _, complete := env.notifier.counts()
		return added == 2 && complete == 1
	}, time.Second, 10*time.Millisecond)
}

func TestScanLibraryIsIdempotent(t *testing.T) {
	env := setupScan(t)
	ctx := context.Background()

	_, err := env.scanner.ScanLibrary(ctx, env.lib.ID)
	require.NoError(t, err)

	res, err := env.scanner.ScanLibrary(ctx, env.lib.ID)
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.Zero(t, res.Updated)
	assert.Zero(t, res.Removed)
}

func TestScanLibraryKeepsRangeFilesInOneSeries(t *testing.T) {
	env := setupScan(t)
	testutil.CreateTestCBZ(t, env.root, "Beelzebub/Beelzebub_153b_RHS.zip", nil)
	testutil.CreateTestCBZ(t, env.root, "Beelzebub/Beelzebub_150-153b_RHS.zip", nil)

	res, err := env.scanner.ScanLibrary(context.Background(), env.lib.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Files)
	assert.Equal(t, 2, res.Created)

	index, err := env.st.ListSeriesIndex(env.lib.ID)
	require.NoError(t, err)
	assert.Len(t, index, 2)

	ser := env.seriesByName(t, "Beelzebub")
	require.Len(t, ser.Volumes, 1)
	var ranges []string
	for _, ch := range ser.Volumes[0].Chapters {
		ranges = append(ranges, ch.Range)
	}
	assert.ElementsMatch(t, []string{"1", "2", "153.5", "150-153.5"}, ranges)
}

func TestScanLibraryUpdatesAndRemoves(t *testing.T) {
	env := setupScan(t, func(c *config.Config) { c.Scan.ChunkSize = 1 })
	ctx := context.Background()

	_, err := env.scanner.ScanLibrary(ctx, env.lib.ID)
	require.NoError(t, err)
	before := env.seriesByName(t, "Beelzebub")

	testutil.CreateTestCBZ(t, env.root, "Beelzebub/Beelzebub_03_[Noodles].zip", []string{"01.jpg"})
	require.NoError(t, os.RemoveAll(filepath.Join(env.root, "Akira")))

	res, err := env.scanner.ScanLibrary(ctx, env.lib.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Removed)
	assert.Zero(t, res.Created)

	after := env.seriesByName(t, "Beelzebub")
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.Volumes[0].ID, after.Volumes[0].ID)
	require.Len(t, after.Volumes[0].Chapters, 3)
	assert.Equal(t, before.Volumes[0].Chapters[0].ID, after.Volumes[0].Chapters[0].ID)
	assert.Equal(t, 7, after.Pages)

	index, err := env.st.ListSeriesIndex(env.lib.ID)
	require.NoError(t, err)
	assert.Len(t, index, 1)
}

func TestScanLibraryRefusesUnavailableRoot(t *testing.T) {
	env := setupScan(t)
	ctx := context.Background()

	_, err := env.scanner.ScanLibrary(ctx, env.lib.ID)
	require.NoError(t, err)

	moved := env.root + "-unmounted"
	require.NoError(t, os.Rename(env.root, moved))
	t.Cleanup(func() { os.Rename(moved, env.root) })

	_, err = env.scanner.ScanLibrary(ctx, env.lib.ID)
	require.Error(t, err)

	index, err := env.st.ListSeriesIndex(env.lib.ID)
	require.NoError(t, err)
	assert.Len(t, index, 2, "nothing is removed while a root is unavailable")
}

func TestScanLibraryConflictSkipsGroup(t *testing.T) {
	env := setupScan(t)
	ctx := context.Background()

	twin := func() *models.Series {
		return &models.Series{LibraryID: env.lib.ID, Name: "Akira", NormalizedName: "akira", Format: models.FormatArchive}
	}
	require.NoError(t, env.st.ApplyPlan(ctx, &reconcile.Plan{Create: []*models.Series{twin(), twin()}}))

	res, err := env.scanner.ScanLibrary(ctx, env.lib.ID)
	require.NoError(t, err)
	require.Len(t, res.Conflicts, 1)
	assert.Contains(t, res.Conflicts[0], "Akira")
	assert.Equal(t, 1, res.Created, "only Beelzebub is created")
	assert.Zero(t, res.Removed, "conflicting series are left alone")

	index, err := env.st.ListSeriesIndex(env.lib.ID)
	require.NoError(t, err)
	assert.Len(t, index, 3)
}

func TestScanLibraryTracksBadFiles(t *testing.T) {
	env := setupScan(t)
	ctx := context.Background()
	badFiles := store.NewBadFileStore(env.db)

	broken := testutil.WriteFile(t, env.root, "Broken/Broken v01.cbz", "not an archive")
	_, err := env.scanner.ScanLibrary(ctx, env.lib.ID)
	require.NoError(t, err)

	bad, err := badFiles.ListBadFiles(env.lib.ID)
	require.NoError(t, err)
	require.Len(t, bad, 1)
	assert.Equal(t, broken, bad[0].Path)
	assert.Equal(t, string(models.ErrorCorruptedArchive), bad[0].Error)
	assert.Zero(t, env.seriesByName(t, "Broken").Pages, "the file is catalogued with zero pages")

	// Unchanged on disk, so not read again, but still bad.
	_, err = env.scanner.ScanLibrary(ctx, env.lib.ID)
	require.NoError(t, err)
	bad, err = badFiles.ListBadFiles(env.lib.ID)
	require.NoError(t, err)
	assert.Len(t, bad, 1)

	testutil.CreateTestCBZ(t, env.root, "Broken/Broken v01.cbz", nil)
	testutil.Touch(t, broken, 2*time.Second)
	_, err = env.scanner.ScanLibrary(ctx, env.lib.ID)
	require.NoError(t, err)

	bad, err = badFiles.ListBadFiles(env.lib.ID)
	require.NoError(t, err)
	assert.Empty(t, bad)
	assert.Equal(t, 3, env.seriesByName(t, "Broken").Pages)
}

func TestScanSeries(t *testing.T) {
	env := setupScan(t)
	ctx := context.Background()

	_, err := env.scanner.ScanLibrary(ctx, env.lib.ID)
	require.NoError(t, err)
	ser := env.seriesByName(t, "Beelzebub")

	testutil.CreateTestCBZ(t, env.root, "Beelzebub/Beelzebub_03_[Noodles].zip", nil)
	res, err := env.scanner.ScanSeries(ctx, ser.ID)
	require.NoError(t, err)
	assert.Equal(t, ser.ID, res.SeriesID)
	assert.Equal(t, 3, res.Files, "only the series folder is walked")
	assert.Equal(t, 1, res.Updated)

	res, err = env.scanner.ScanSeries(ctx, ser.ID)
	require.NoError(t, err)
	assert.Zero(t, res.Updated)

	require.NoError(t, os.RemoveAll(filepath.Join(env.root, "Beelzebub")))
	res, err = env.scanner.ScanSeries(ctx, ser.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)

	_, err = env.st.GetSeries(ser.ID)
	assert.ErrorIs(t, err, store.ErrSeriesNotFound)
}

func TestScanSeriesUnresolved(t *testing.T) {
	env := setupScan(t)
	ctx := context.Background()

	_, err := env.scanner.ScanLibrary(ctx, env.lib.ID)
	require.NoError(t, err)
	ser := env.seriesByName(t, "Akira")

	// The files stay, but the catalog now knows the series by a name none
	// of them parses to.
	_, err = env.db.Exec(`UPDATE series SET name = 'Gone', original_name = 'Gone', normalized_name = 'gone' WHERE id = ?`, ser.ID)
	require.NoError(t, err)

	res, err := env.scanner.ScanSeries(ctx, ser.ID)
	require.ErrorIs(t, err, library.ErrSeriesUnresolved)
	assert.Equal(t, []string{"Gone"}, res.Unresolved)
	assert.Equal(t, 3, res.Files, "the walk widened to the library root")

	_, err = env.st.GetSeries(ser.ID)
	assert.NoError(t, err, "a parsing regression never deletes a series")
}

func TestScanSeriesNotFound(t *testing.T) {
	env := setupScan(t)
	_, err := env.scanner.ScanSeries(context.Background(), 404)
	assert.ErrorIs(t, err, store.ErrSeriesNotFound)
}

func TestScanLibraryCanceled(t *testing.T) {
	env := setupScan(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.scanner.ScanLibrary(ctx, env.lib.ID)
	assert.ErrorIs(t, err, context.Canceled)

	index, err := env.st.ListSeriesIndex(env.lib.ID)
	require.NoError(t, err)
	assert.Empty(t, index)
}

func TestScanAll(t *testing.T) {
	env := setupScan(t)

	results, err := env.scanner.ScanAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Created)
}
