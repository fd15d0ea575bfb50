package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/mango-catalog/internal/models"
	"github.com/vrsandeep/mango-catalog/internal/store"
	"github.com/vrsandeep/mango-catalog/internal/testutil"
)

func TestBadFileStore(t *testing.T) {
	badFileStore := store.NewBadFileStore(testutil.SetupTestDB(t))

	t.Run("CreateBadFile", func(t *testing.T) {
		path := "/test/path/bad-file.cbz"
		require.NoError(t, badFileStore.CreateBadFile(1, path, models.ErrorCorruptedArchive, 1024))

		badFiles, err := badFileStore.GetAllBadFiles()
		require.NoError(t, err)
		require.Len(t, badFiles, 1)

		bf := badFiles[0]
		assert.Equal(t, int64(1), bf.LibraryID)
		assert.Equal(t, path, bf.Path)
		assert.Equal(t, "bad-file.cbz", bf.FileName)
		assert.Equal(t, string(models.ErrorCorruptedArchive), bf.Error)
		assert.Equal(t, int64(1024), bf.FileSize)
		assert.False(t, bf.DetectedAt.IsZero())
		assert.False(t, bf.LastChecked.IsZero())
	})

	t.Run("CreateBadFile_ReplaceExisting", func(t *testing.T) {
		path := "/test/path/replace-test.cbz"
		require.NoError(t, badFileStore.CreateBadFile(1, path, models.ErrorCorruptedArchive, 2048))
		require.NoError(t, badFileStore.CreateBadFile(1, path, models.ErrorUnparseable, 2048))

		badFiles, err := badFileStore.ListBadFiles(1)
		require.NoError(t, err)
		var found []*models.BadFile
		for _, bf := range badFiles {
			if bf.Path == path {
				found = append(found, bf)
			}
		}
		require.Len(t, found, 1)
		assert.Equal(t, string(models.ErrorUnparseable), found[0].Error)
	})

	t.Run("ResolveBadFiles", func(t *testing.T) {
		require.NoError(t, badFileStore.CreateBadFile(2, "/lib2/A/x.cbz", models.ErrorUnparseable, 1))
		require.NoError(t, badFileStore.CreateBadFile(2, "/lib2/A/y.cbz", models.ErrorUnparseable, 1))
		require.NoError(t, badFileStore.CreateBadFile(2, "/lib2/B/z.cbz", models.ErrorUnparseable, 1))

		cleared, err := badFileStore.ResolveBadFiles(2, []string{"/lib2/A"}, map[string]bool{"/lib2/A/y.cbz": true})
		require.NoError(t, err)
		assert.Equal(t, 1, cleared)

		badFiles, err := badFileStore.ListBadFiles(2)
		require.NoError(t, err)
		var paths []string
		for _, bf := range badFiles {
			paths = append(paths, bf.Path)
		}
		assert.Equal(t, []string{"/lib2/A/y.cbz", "/lib2/B/z.cbz"}, paths)
	})

	t.Run("DeleteBadFile", func(t *testing.T) {
		require.NoError(t, badFileStore.DeleteBadFileByPath("/lib2/B/z.cbz"))

		badFiles, err := badFileStore.ListBadFiles(2)
		require.NoError(t, err)
		require.Len(t, badFiles, 1)
		require.NoError(t, badFileStore.DeleteBadFile(badFiles[0].ID))

		count, err := badFileStore.CountBadFiles()
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}
