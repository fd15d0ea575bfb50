// Package db opens the catalog database and keeps its schema current.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/httpfs"

	// Registers the "sqlite3" driver with database/sql.
	_ "github.com/mattn/go-sqlite3"
)

// InitDB opens the catalog at path, creating its directory if needed.
// Scans commit while the API reads, so the journal runs in WAL mode and
// writers wait on a busy database instead of failing.
func InitDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// DSN options apply to every pooled connection, unlike a one-off PRAGMA.
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", path)
	database, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return database, nil
}

// RunMigrations applies every pending migration found under migrations/ in
// migrationsFS and logs the resulting schema version.
func RunMigrations(database *sql.DB, migrationsFS fs.FS) error {
	source, err := httpfs.New(http.FS(migrationsFS), "migrations")
	if err != nil {
		return fmt.Errorf("could not create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(database, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("could not create sqlite3 migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("httpfs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("an error occurred while applying migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("could not read schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("catalog schema version %d is dirty, fix it by hand and retry", version)
	}
	log.Printf("Catalog schema at version %d", version)
	return nil
}
