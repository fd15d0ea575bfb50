package jobs

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// ScanLibrariesJobID is the job the scheduler triggers periodically. It
// must be registered before StartJobs is called.
const ScanLibrariesJobID = "scan-libraries"

// StartJobs starts the background job scheduler.
func StartJobs(app JobContext) *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	startLibraryScanJob(s, app)

	log.Println("Starting background job scheduler...")
	s.StartAsync()
	return s
}

func startLibraryScanJob(s *gocron.Scheduler, app JobContext) {
	interval := app.Config().ScanInterval
	if interval <= 0 {
		log.Println("Library scan interval is 0, scheduled scan is disabled.")
		return
	}

	log.Printf("Scheduling job: '%s' to run every %d minutes.", ScanLibrariesJobID, interval)

	_, err := s.Every(interval).Minutes().WaitForSchedule().Do(func() {
		log.Println("Scheduler is triggering job:", ScanLibrariesJobID)
		// Submit the job to the manager instead of running it directly.
		// This prevents conflicts with manually triggered jobs.
		if _, err := app.JobManager().RunJob(ScanLibrariesJobID, app); err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", ScanLibrariesJobID, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", ScanLibrariesJobID, err)
	}
}
