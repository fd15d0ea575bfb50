// This file adapts scans to the job manager, so scheduled and API triggered
// scans show up in the job status list.

package library

import (
	"context"
	"fmt"
	"log"

	"github.com/vrsandeep/mango-catalog/internal/jobs"
)

// ScanLibrariesTask scans every library.
func ScanLibrariesTask(s *Scanner) jobs.JobTask {
	return func(ctx context.Context, _ jobs.JobContext) error {
		results, err := s.ScanAll(ctx)
		for _, res := range results {
			log.Printf("Scan %s of library %d: %d created, %d updated, %d removed",
				res.RunID, res.LibraryID, res.Created, res.Updated, res.Removed)
		}
		return err
	}
}

// ScanLibraryJobID names the job scanning one library.
func ScanLibraryJobID(libraryID int64) string {
	return fmt.Sprintf("scan-library-%d", libraryID)
}

// ScanLibraryTask scans one library.
func ScanLibraryTask(s *Scanner, libraryID int64) jobs.JobTask {
	return func(ctx context.Context, _ jobs.JobContext) error {
		_, err := s.ScanLibrary(ctx, libraryID)
		return err
	}
}

// ScanSeriesJobID names the job scanning one series.
func ScanSeriesJobID(seriesID int64) string {
	return fmt.Sprintf("scan-series-%d", seriesID)
}

// ScanSeriesTask scans one series.
func ScanSeriesTask(s *Scanner, seriesID int64) jobs.JobTask {
	return func(ctx context.Context, _ jobs.JobContext) error {
		_, err := s.ScanSeries(ctx, seriesID)
		return err
	}
}
