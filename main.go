package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vrsandeep/mango-catalog/internal/api"
	"github.com/vrsandeep/mango-catalog/internal/core"
	"github.com/vrsandeep/mango-catalog/internal/jobs"
	"github.com/vrsandeep/mango-catalog/internal/library"
	"github.com/vrsandeep/mango-catalog/internal/store"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize the core application components
	app, err := core.NewFromFile(os.Getenv("MANGO_CONFIG"))
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()

	// Initial scan in the background, then on the configured interval.
	if _, err := app.JobManager().RunJob(jobs.ScanLibrariesJobID, app); err != nil {
		log.Printf("Warning: initial library scan could not start: %v", err)
	}
	scheduler := jobs.StartJobs(app)
	defer scheduler.Stop()

	if app.Config().Scan.Watch {
		watcher := library.NewWatcherService(app.Scanner(), store.New(app.DB()))
		if err := watcher.Start(); err != nil {
			log.Printf("Warning: file watcher disabled: %v", err)
		} else {
			defer watcher.Stop()
		}
	}

	// Setup the API server
	server := api.NewServer(app)
	addr := fmt.Sprintf(":%d", app.Config().Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}
	// --- Graceful Shutdown ---
	// Start the server in a goroutine so it doesn't block.
	go func() {
		log.Printf("Starting web server on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %v", err)
		}
	}()

	// Wait for an interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Create a context with a timeout to allow existing connections to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Attempt a graceful shutdown.
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
