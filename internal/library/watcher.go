// This file implements a file system watcher for incremental library scanning.
// It uses OS-level file system events to detect changes and trigger scans of
// the series that own the changed paths.

package library

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vrsandeep/mango-catalog/internal/models"
	"github.com/vrsandeep/mango-catalog/internal/parser"
	"github.com/vrsandeep/mango-catalog/internal/store"
)

// WatcherService watches every library folder for file system changes
// and triggers scans when files are added, modified, or deleted.
type WatcherService struct {
	scanner       *Scanner
	st            *store.Store
	watcher       *fsnotify.Watcher
	libraries     []*models.Library
	changedPaths  map[string]bool
	mu            sync.Mutex
	scanMu        sync.Mutex
	debounceTimer *time.Timer
	debounceDelay time.Duration
	retryDelay    time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewWatcherService creates a new file system watcher service.
func NewWatcherService(scanner *Scanner, st *store.Store) *WatcherService {
	return &WatcherService{
		scanner:       scanner,
		st:            st,
		changedPaths:  make(map[string]bool),
		debounceDelay: 2 * time.Second, // Wait 2 seconds after last change before scanning
		retryDelay:    30 * time.Second,
		stopChan:      make(chan struct{}),
	}
}

// SetDebounceDelay sets how long the watcher waits after the last change.
func (w *WatcherService) SetDebounceDelay(d time.Duration) {
	w.debounceDelay = d
	w.retryDelay = 10 * d
}

// Start begins watching the folders of every library for changes.
func (w *WatcherService) Start() error {
	libs, err := w.st.ListLibraries()
	if err != nil {
		return err
	}
	w.libraries = libs

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher

	for _, lib := range libs {
		for _, root := range lib.Folders {
			if err := w.addTree(root); err != nil {
				watcher.Close()
				return err
			}
			log.Printf("File watcher started for library %q folder: %s", lib.Name, root)
		}
	}

	// Start the event processing goroutine
	go w.processEvents()

	return nil
}

// addTree watches a directory and every directory below it. fsnotify does
// not recurse on its own.
func (w *WatcherService) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && parser.IsBlacklistedFolder(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// Stop stops the file watcher service.
func (w *WatcherService) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)
		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.mu.Unlock()
		if w.watcher != nil {
			err = w.watcher.Close()
		}
	})
	return err
}

// processEvents processes file system events and triggers scans.
func (w *WatcherService) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)

		case <-w.stopChan:
			return
		}
	}
}

// handleEvent processes a single file system event.
func (w *WatcherService) handleEvent(event fsnotify.Event) {
	// Chmod fires when folders are merely browsed.
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	info, err := os.Stat(event.Name)
	isDir := err == nil && info.IsDir()

	if isDir {
		if parser.HasBlacklistedFolder(event.Name) {
			return
		}
		if event.Has(fsnotify.Create) {
			if err := w.addTree(event.Name); err != nil {
				log.Printf("Failed to watch new directory %s: %v", event.Name, err)
			}
		}
		w.TriggerScanForPath(event.Name)
		return
	}

	// A removed directory can no longer be stat'ed, so removals of anything
	// that is not a known unsupported file are passed on.
	if parser.IsSupported(event.Name) || (err != nil && parser.Extension(event.Name) == "") {
		w.TriggerScanForPath(event.Name)
	}
}

// TriggerScanForPath queues a scan of whatever owns path and restarts the
// debounce timer.
func (w *WatcherService) TriggerScanForPath(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.stopChan:
		return
	default:
	}

	w.changedPaths[path] = true

	// Reset debounce timer
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.triggerScans)
}

type scanTarget struct {
	libraryID int64
	seriesID  int64
}

// triggerScans resolves the changed paths to scan targets and runs them one
// after another. A target whose library is busy is queued again.
func (w *WatcherService) triggerScans() {
	w.mu.Lock()
	if len(w.changedPaths) == 0 {
		w.mu.Unlock()
		return
	}

	// Copy changed paths and clear the map
	pathsToScan := make([]string, 0, len(w.changedPaths))
	for path := range w.changedPaths {
		pathsToScan = append(pathsToScan, path)
	}
	w.changedPaths = make(map[string]bool)
	w.mu.Unlock()

	sort.Strings(pathsToScan)
	log.Printf("File watcher detected %d changed path(s), triggering scans", len(pathsToScan))

	w.scanMu.Lock()
	defer w.scanMu.Unlock()

	targets := w.resolve(pathsToScan)
	for _, t := range targets {
		var err error
		if t.seriesID != 0 {
			_, err = w.scanner.ScanSeries(context.Background(), t.seriesID)
			if errors.Is(err, store.ErrSeriesNotFound) || errors.Is(err, ErrSeriesUnresolved) {
				// Removed meanwhile, or its files now belong elsewhere.
				_, err = w.scanner.ScanLibrary(context.Background(), t.libraryID)
			}
		} else {
			_, err = w.scanner.ScanLibrary(context.Background(), t.libraryID)
		}

		if errors.Is(err, ErrScanInProgress) {
			log.Printf("Library %d is busy, retrying changed paths later", t.libraryID)
			w.requeue(pathsToScan)
			return
		}
		if err != nil {
			log.Printf("Watcher scan error: %v", err)
		}
	}
}

// resolve maps changed paths to scans. A path inside a known series scans
// that series; anything else scans its whole library. A library scan makes
// series scans of the same library redundant.
func (w *WatcherService) resolve(paths []string) []scanTarget {
	libraryScans := make(map[int64]bool)
	seriesScans := make(map[int64]int64)
	for _, path := range paths {
		lib := w.libraryFor(path)
		if lib == nil {
			continue
		}
		ser, err := w.st.FindSeriesByPath(lib.ID, path)
		if err != nil || isLibraryRoot(lib, path) {
			libraryScans[lib.ID] = true
			continue
		}
		seriesScans[ser.ID] = lib.ID
	}

	var targets []scanTarget
	for libID := range libraryScans {
		targets = append(targets, scanTarget{libraryID: libID})
	}
	for serID, libID := range seriesScans {
		if !libraryScans[libID] {
			targets = append(targets, scanTarget{libraryID: libID, seriesID: serID})
		}
	}
	sort.Slice(targets, func(i, j int) bool {
		if targets[i].libraryID != targets[j].libraryID {
			return targets[i].libraryID < targets[j].libraryID
		}
		return targets[i].seriesID < targets[j].seriesID
	})
	return targets
}

func (w *WatcherService) libraryFor(path string) *models.Library {
	var best *models.Library
	bestLen := 0
	for _, lib := range w.libraries {
		for _, root := range lib.Folders {
			if within(path, root) && len(root) > bestLen {
				best, bestLen = lib, len(root)
			}
		}
	}
	return best
}

func isLibraryRoot(lib *models.Library, path string) bool {
	for _, root := range lib.Folders {
		if sameDir(root, path) {
			return true
		}
	}
	return false
}

func (w *WatcherService) requeue(paths []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.stopChan:
		return
	default:
	}
	for _, p := range paths {
		w.changedPaths[p] = true
	}
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.retryDelay, w.triggerScans)
}
