package library

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vrsandeep/mango-catalog/internal/models"
	"github.com/vrsandeep/mango-catalog/internal/parser"
)

// libraryDisk is the filesystem view of one library handed to the planner.
// It remembers which files had their content read and which of those reads
// failed, so the scanner can keep the bad file list current.
type libraryDisk struct {
	roots   []string
	exclude *Excluder
	counter *PageCounter

	mu     sync.Mutex
	read   map[string]bool
	failed map[string]models.BadFileError
}

func newLibraryDisk(roots []string, exclude *Excluder) *libraryDisk {
	d := &libraryDisk{
		roots:   roots,
		exclude: exclude,
		read:    make(map[string]bool),
		failed:  make(map[string]models.BadFileError),
	}
	d.counter = &PageCounter{OnError: d.recordFailure}
	return d
}

// Stat reports a file's modification time, truncated to the second the
// catalog stores. Files the scanner would ignore count as missing.
func (d *libraryDisk) Stat(path string) (time.Time, bool) {
	root, ok := rootOf(d.roots, path)
	if !ok || d.exclude.Excluded(root, path) {
		return time.Time{}, false
	}
	if !parser.IsSupported(path) || parser.HasBlacklistedFolder(filepath.Dir(path)) {
		return time.Time{}, false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return time.Time{}, false
	}
	return info.ModTime().UTC().Truncate(time.Second), true
}

func (d *libraryDisk) PageCount(path string, format models.Format) int {
	d.mu.Lock()
	d.read[path] = true
	delete(d.failed, path)
	d.mu.Unlock()
	return d.counter.GetPageCount(path, format)
}

func (d *libraryDisk) recordFailure(path string, kind models.BadFileError, _ error) {
	d.mu.Lock()
	d.failed[path] = kind
	d.mu.Unlock()
}

// contentResults returns the files read during the scan and the failures
// among them.
func (d *libraryDisk) contentResults() (read map[string]bool, failed map[string]models.BadFileError) {
	d.mu.Lock()
	defer d.mu.Unlock()
	read = make(map[string]bool, len(d.read))
	for p := range d.read {
		read[p] = true
	}
	failed = make(map[string]models.BadFileError, len(d.failed))
	for p, k := range d.failed {
		failed[p] = k
	}
	return read, failed
}
