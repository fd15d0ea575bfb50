package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vrsandeep/mango-catalog/internal/config"
	"github.com/vrsandeep/mango-catalog/internal/websocket"
)

var (
	// ErrJobRunning is returned when a job is started while a run of the same
	// job has not finished.
	ErrJobRunning = errors.New("job is already running")
	// ErrJobNotFound is returned for a job id that was never registered.
	ErrJobNotFound = errors.New("job not found")
)

// JobContext is an interface that provides the necessary dependencies for a job to run.
// The core.App struct will implement this interface.
type JobContext interface {
	DB() *sql.DB
	Config() *config.Config
	WsHub() *websocket.Hub
	JobManager() *JobManager
}

// JobTask is the work of a job. ctx is canceled when the manager shuts down.
type JobTask func(ctx context.Context, jc JobContext) error

type JobStatus struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"` // "idle", "running", "success", "failed"
	Message   string    `json:"message"`
	RunID     string    `json:"run_id,omitempty"`
	StartTime time.Time `json:"start_time,omitempty"`
	EndTime   time.Time `json:"end_time,omitempty"`
}

type JobManager struct {
	mu     sync.Mutex
	jobs   map[string]JobTask
	status map[string]*JobStatus
	appCtx JobContext // Store the app context for scheduled jobs

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(appCtx JobContext) *JobManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &JobManager{
		jobs:   make(map[string]JobTask),
		status: make(map[string]*JobStatus),
		appCtx: appCtx,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Register makes a job available to RunJob under id.
func (jm *JobManager) Register(id, name string, task JobTask) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	jm.jobs[id] = task
	if _, ok := jm.status[id]; !ok {
		jm.status[id] = &JobStatus{ID: id, Name: name, Status: "idle"}
	}
}

// RunJob starts a registered job in the background and returns its run id.
// Runs of the same job never overlap; different jobs run concurrently.
func (jm *JobManager) RunJob(id string, jc JobContext) (string, error) {
	jm.mu.Lock()
	task, ok := jm.jobs[id]
	jm.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("job '%s': %w", id, ErrJobNotFound)
	}
	return jm.start(id, id, task, jc)
}

// Submit runs an unregistered, one-off task under id. It follows the same
// rules as RunJob: a second submission while the first runs is rejected.
func (jm *JobManager) Submit(id, name string, task JobTask) (string, error) {
	return jm.start(id, name, task, jm.appCtx)
}

func (jm *JobManager) start(id, name string, task JobTask, jc JobContext) (string, error) {
	jm.mu.Lock()
	if err := jm.ctx.Err(); err != nil {
		jm.mu.Unlock()
		return "", fmt.Errorf("job manager is shut down: %w", err)
	}
	status, ok := jm.status[id]
	if !ok {
		status = &JobStatus{ID: id, Name: name}
		jm.status[id] = status
	}
	if status.Status == "running" {
		jm.mu.Unlock()
		return "", fmt.Errorf("job '%s': %w", id, ErrJobRunning)
	}

	runID := uuid.NewString()
	status.Status = "running"
	status.RunID = runID
	status.StartTime = time.Now()
	status.EndTime = time.Time{}
	status.Message = "Job started..."
	jm.wg.Add(1)
	jm.mu.Unlock()

	log.Printf("Starting job: %s (run %s)", id, runID)
	// Run the actual task in a new goroutine so it doesn't block.
	go func() {
		defer jm.wg.Done()

		var err error
		defer func() {
			// Ensure we always update the status
			if r := recover(); r != nil {
				log.Printf("Job '%s' panicked: %v", id, r)
				err = fmt.Errorf("job panicked: %v", r)
			}

			jm.mu.Lock()
			status.EndTime = time.Now()
			if err != nil {
				status.Status = "failed"
				status.Message = err.Error()
			} else {
				status.Status = "success"
				status.Message = "Job completed successfully."
			}
			jm.mu.Unlock()
			log.Printf("Finished job: %s (%s)", id, status.Status)
		}()

		err = task(jm.ctx, jc)
	}()
	return runID, nil
}

// GetStatus returns a snapshot of every job, sorted by id.
func (jm *JobManager) GetStatus() []*JobStatus {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	statuses := make([]*JobStatus, 0, len(jm.status))
	for _, s := range jm.status {
		cp := *s
		statuses = append(statuses, &cp)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ID < statuses[j].ID })
	return statuses
}

// Wait blocks until no job is running.
func (jm *JobManager) Wait() {
	jm.wg.Wait()
}

// Shutdown cancels the context of every running job and waits for them.
func (jm *JobManager) Shutdown() {
	jm.mu.Lock()
	jm.cancel()
	jm.mu.Unlock()
	jm.wg.Wait()
}
