package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"version": s.app.Version})
}

func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.JobID == "" {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	runID, err := s.app.JobManager().RunJob(payload.JobID, s.app)
	respondJobStarted(w, payload.JobID, runID, err)
}

func (s *Server) handleGetJobsStatus(w http.ResponseWriter, r *http.Request) {
	statuses := s.app.JobManager().GetStatus()
	RespondWithJSON(w, http.StatusOK, statuses)
}
