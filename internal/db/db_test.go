package db_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/mango-catalog/internal/assets"
	"github.com/vrsandeep/mango-catalog/internal/db"
)

func TestInitAndMigrate(t *testing.T) {
	database, err := db.InitDB(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, db.RunMigrations(database, assets.MigrationsFS))
	// A second run is a no-op.
	require.NoError(t, db.RunMigrations(database, assets.MigrationsFS))

	var foreignKeys int
	require.NoError(t, database.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	assert.Equal(t, 1, foreignKeys)

	for _, table := range []string{"libraries", "library_folders", "series", "volumes", "chapters", "files", "bad_files"} {
		var name string
		err := database.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestForeignKeyCascadeDelete(t *testing.T) {
	database, err := db.InitDB(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer database.Close()
	require.NoError(t, db.RunMigrations(database, assets.MigrationsFS))

	mustExec := func(query string, args ...any) {
		t.Helper()
		_, err := database.Exec(query, args...)
		require.NoError(t, err)
	}
	mustExec("INSERT INTO libraries (id, name, type) VALUES (1, 'Manga', 'manga')")
	mustExec("INSERT INTO series (id, library_id, name, normalized_name, created_at, updated_at) VALUES (1, 1, 'A', 'a', datetime('now'), datetime('now'))")
	mustExec("INSERT INTO volumes (id, series_id, name, number, created_at, updated_at) VALUES (1, 1, '1', 1, datetime('now'), datetime('now'))")
	mustExec("INSERT INTO chapters (id, volume_id, range_key, number, created_at, updated_at) VALUES (1, 1, '1', 1, datetime('now'), datetime('now'))")
	mustExec("INSERT INTO files (chapter_id, path, format, last_modified) VALUES (1, '/a/1.cbz', 'archive', datetime('now'))")

	mustExec("DELETE FROM libraries WHERE id = 1")

	for _, table := range []string{"series", "volumes", "chapters", "files"} {
		var count int
		require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count))
		assert.Zero(t, count, "rows left in %s", table)
	}
}
