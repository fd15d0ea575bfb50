package library

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/vrsandeep/mango-catalog/internal/util"
)

// ErrScanInProgress is returned when a scan of the same library is already
// running, in this process or another one sharing the data directory.
var ErrScanInProgress = errors.New("a scan of this library is already running")

var (
	heldMu sync.Mutex
	held   = make(map[string]bool)
)

// lockLibrary takes the scan lock of a library. Library and series scans
// share it, so no two scans ever write the same library concurrently. With
// an empty dataDir only the in-process lock is taken.
func lockLibrary(dataDir string, libraryID int64) (release func(), err error) {
	key := fmt.Sprintf("library-%d", libraryID)

	heldMu.Lock()
	if held[key] {
		heldMu.Unlock()
		return nil, ErrScanInProgress
	}
	held[key] = true
	heldMu.Unlock()

	unhold := func() {
		heldMu.Lock()
		delete(held, key)
		heldMu.Unlock()
	}

	if dataDir == "" {
		return unhold, nil
	}

	lockDir := filepath.Join(dataDir, "locks")
	if err := util.EnsureWritableDir(lockDir); err != nil {
		unhold()
		return nil, fmt.Errorf("lock directory: %w", err)
	}
	fl := flock.New(filepath.Join(lockDir, key+".lock"))
	locked, err := fl.TryLock()
	if err != nil {
		unhold()
		return nil, fmt.Errorf("failed to lock %s: %w", fl.Path(), err)
	}
	if !locked {
		unhold()
		return nil, ErrScanInProgress
	}

	return func() {
		if err := fl.Unlock(); err != nil {
			log.Printf("Failed to release scan lock %s: %v", fl.Path(), err)
		}
		unhold()
	}, nil
}
