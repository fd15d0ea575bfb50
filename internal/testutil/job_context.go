// This file contains shared test utilities for job context mocking.

package testutil

import (
	"database/sql"
	"testing"

	"github.com/vrsandeep/mango-catalog/internal/config"
	"github.com/vrsandeep/mango-catalog/internal/jobs"
	"github.com/vrsandeep/mango-catalog/internal/websocket"
)

// MockJobContext implements jobs.JobContext for testing
type MockJobContext struct {
	db     *sql.DB
	cfg    *config.Config
	hub    *websocket.Hub
	jobMgr *jobs.JobManager
}

// NewMockJobContext wires an in-memory database, a running hub and a job
// manager. The manager is shut down when the test ends.
func NewMockJobContext(t *testing.T, cfg *config.Config) *MockJobContext {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	hub := websocket.NewHub()
	go hub.Run()

	m := &MockJobContext{db: SetupTestDB(t), cfg: cfg, hub: hub}
	m.jobMgr = jobs.NewManager(m)
	t.Cleanup(m.jobMgr.Shutdown)
	return m
}

func (m *MockJobContext) DB() *sql.DB                  { return m.db }
func (m *MockJobContext) Config() *config.Config       { return m.cfg }
func (m *MockJobContext) WsHub() *websocket.Hub        { return m.hub }
func (m *MockJobContext) JobManager() *jobs.JobManager { return m.jobMgr }
