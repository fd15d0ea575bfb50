package core

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/vrsandeep/mango-catalog/internal/assets"
	"github.com/vrsandeep/mango-catalog/internal/config"
	"github.com/vrsandeep/mango-catalog/internal/db"
	"github.com/vrsandeep/mango-catalog/internal/jobs"
	"github.com/vrsandeep/mango-catalog/internal/library"
	"github.com/vrsandeep/mango-catalog/internal/store"
	"github.com/vrsandeep/mango-catalog/internal/util"
	"github.com/vrsandeep/mango-catalog/internal/websocket"
)

// App holds the core components of the application that are shared
// between the server and the CLI. It implements jobs.JobContext.
type App struct {
	config     *config.Config
	db         *sql.DB
	wsHub      *websocket.Hub
	jobManager *jobs.JobManager
	scanner    *library.Scanner
	Version    string
}

// New sets up and returns a new App instance from config.yml in the
// current directory.
func New() (*App, error) {
	return NewFromFile("")
}

// NewFromFile is New with an explicit configuration file.
func NewFromFile(path string) (*App, error) {
	// Load configuration from config.yml
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig handles initializing the database connection, running
// migrations and registering the configured libraries.
func NewWithConfig(cfg *config.Config) (*App, error) {
	if err := util.EnsureWritableDir(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}

	// Initialize the database connection
	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	if err := db.RunMigrations(database, assets.MigrationsFS); err != nil {
		// We can't proceed without a valid database schema.
		// Close the DB connection before failing.
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	app, err := newApp(cfg, database)
	if err != nil {
		database.Close()
		return nil, err
	}

	if err := app.SyncLibraries(); err != nil {
		database.Close()
		return nil, err
	}

	log.Println("Core application setup complete.")
	return app, nil
}

// NewTestApp wires an App around an already migrated database.
func NewTestApp(cfg *config.Config, database *sql.DB) (*App, error) {
	return newApp(cfg, database)
}

func newApp(cfg *config.Config, database *sql.DB) (*App, error) {
	hub := websocket.NewHub()
	go hub.Run()

	scanner, err := library.NewScanner(cfg, database, hub)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	app := &App{
		config:  cfg,
		db:      database,
		wsHub:   hub,
		scanner: scanner,
		Version: "dev",
	}
	app.jobManager = jobs.NewManager(app)
	app.jobManager.Register(jobs.ScanLibrariesJobID, "Scan all libraries", library.ScanLibrariesTask(scanner))
	return app, nil
}

// SyncLibraries makes sure every library in the configuration exists in
// the catalog with the configured type and folders.
func (a *App) SyncLibraries() error {
	st := store.New(a.db)
	for _, lc := range a.config.Libraries {
		lib, err := lc.Library()
		if err != nil {
			return fmt.Errorf("library %q: %w", lc.Name, err)
		}
		for _, folder := range lib.Folders {
			if err := util.ValidateLibraryFolder(folder); err != nil {
				log.Printf("Warning: library %q folder %s is unavailable: %v", lib.Name, folder, err)
			}
		}
		if _, err := st.UpsertLibrary(lib); err != nil {
			return fmt.Errorf("failed to register library %q: %w", lc.Name, err)
		}
	}
	return nil
}

func (a *App) DB() *sql.DB                  { return a.db }
func (a *App) Config() *config.Config       { return a.config }
func (a *App) WsHub() *websocket.Hub        { return a.wsHub }
func (a *App) JobManager() *jobs.JobManager { return a.jobManager }
func (a *App) Scanner() *library.Scanner    { return a.scanner }

// Close gracefully closes the application's resources, like the DB connection.
func (a *App) Close() {
	if a.jobManager != nil {
		a.jobManager.Shutdown()
	}
	if a.db != nil {
		a.db.Close()
	}
}
