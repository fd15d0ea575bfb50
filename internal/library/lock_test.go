package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockLibrary(t *testing.T) {
	dataDir := t.TempDir()

	release, err := lockLibrary(dataDir, 1)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dataDir, "locks", "library-1.lock"))
	require.NoError(t, err)

	_, err = lockLibrary(dataDir, 1)
	assert.ErrorIs(t, err, ErrScanInProgress)

	other, err := lockLibrary(dataDir, 2)
	require.NoError(t, err, "libraries lock independently")
	other()

	release()
	again, err := lockLibrary(dataDir, 1)
	require.NoError(t, err)
	again()
}

func TestLockLibraryHeldByAnotherProcess(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "locks"), 0755))

	// A second flock handle behaves like another process holding the lock.
	fl := flock.New(filepath.Join(dataDir, "locks", "library-7.lock"))
	locked, err := fl.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer fl.Unlock()

	_, err = lockLibrary(dataDir, 7)
	assert.ErrorIs(t, err, ErrScanInProgress)
}

func TestLockLibraryInProcessOnly(t *testing.T) {
	release, err := lockLibrary("", 3)
	require.NoError(t, err)
	_, err = lockLibrary("", 3)
	assert.ErrorIs(t, err, ErrScanInProgress)
	release()
}
