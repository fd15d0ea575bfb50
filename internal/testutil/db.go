package testutil

import (
	"database/sql"
	"testing"

	"github.com/vrsandeep/mango-catalog/internal/assets"
	"github.com/vrsandeep/mango-catalog/internal/db"

	_ "github.com/mattn/go-sqlite3" // Blank import for sql driver
)

// SetupTestDB returns an in-memory catalog with every migration applied.
// The database is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	// Every connection to an in-memory database is a separate database.
	database.SetMaxOpenConns(1)
	t.Cleanup(func() {
		database.Close()
	})

	if err := db.RunMigrations(database, assets.MigrationsFS); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}
	return database
}
