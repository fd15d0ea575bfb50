// This file contains utility functions shared across the library package.

package library

import (
	"errors"
	"os"

	"github.com/vrsandeep/mango-catalog/internal/models"
	"github.com/vrsandeep/mango-catalog/internal/websocket"
)

// sendProgress sends a progress update via WebSocket to connected clients.
func sendProgress(hub *websocket.Hub, jobID string, itemID int64, message string, progress float64, done bool) {
	if hub == nil {
		return
	}

	status := "in_progress"
	if done {
		status = "completed"
	}
	hub.BroadcastJSON(models.ProgressUpdate{
		JobID:    jobID,
		Message:  message,
		Progress: progress,
		ItemID:   itemID,
		Status:   status,
		Done:     done,
	})
}

func percent(done, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(done) * 100 / float64(total)
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// splitErrors undoes errors.Join.
func splitErrors(err error) []error {
	if err == nil {
		return nil
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}
	return []error{err}
}
