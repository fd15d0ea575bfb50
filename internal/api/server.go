// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vrsandeep/mango-catalog/internal/core"
	"github.com/vrsandeep/mango-catalog/internal/store"
	"github.com/vrsandeep/mango-catalog/internal/websocket"
)

// Server holds the dependencies for our API.
type Server struct {
	app      *core.App
	db       *sql.DB
	store    *store.Store
	badFiles *store.BadFileStore
}

// Store returns the store instance.
func (s *Server) Store() *store.Store {
	return s.store
}

// NewServer creates a new Server instance.
func NewServer(app *core.App) *Server {
	return &Server{
		app:      app,
		db:       app.DB(),
		store:    store.New(app.DB()),
		badFiles: store.NewBadFileStore(app.DB()),
	}
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Logs requests to the console
	r.Use(middleware.Recoverer) // Recovers from panics
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", s.handleGetVersion)
		r.Get("/parse", s.handleParse)

		r.Get("/libraries", s.handleListLibraries)
		r.Route("/libraries/{libraryID}", func(r chi.Router) {
			r.Use(s.LibraryCtx)

			r.Get("/", s.handleGetLibrary)
			r.Get("/series", s.handleListSeries)
			r.Post("/scan", s.handleScanLibrary)
			r.Get("/bad-files", s.handleListLibraryBadFiles)
		})

		r.Route("/series/{seriesID}", func(r chi.Router) {
			r.Use(s.SeriesCtx)

			r.Get("/", s.handleGetSeries)
			r.Patch("/", s.handleRenameSeries)
			r.Post("/scan", s.handleScanSeries)
		})

		// Job Triggers
		r.Get("/jobs", s.handleGetJobsStatus)
		r.Post("/jobs/run", s.handleRunJob)

		// Bad Files Management Routes
		r.Get("/bad-files", s.handleGetBadFiles)
		r.Get("/bad-files/count", s.handleGetBadFilesCount)
		r.Delete("/bad-files/{badFileID}", s.handleDeleteBadFile)
	})

	// WebSocket route
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		websocket.ServeWs(s.app.WsHub(), w, r)
	})

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.Ping(); err != nil {
			RespondWithError(w, http.StatusServiceUnavailable, "Database connection failed")
			return
		}
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
