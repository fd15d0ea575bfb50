// Helper functions for sending standardized JSON responses.

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vrsandeep/mango-catalog/internal/jobs"
)

// RespondWithJSON writes a JSON response with the given status code and payload.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		// If marshaling fails, return an error response
		RespondWithError(w, http.StatusInternalServerError, "Failed to marshal response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// RespondWithError writes a standardized JSON error response.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// respondJobStarted reports the outcome of starting a job: 202 with the run
// id, 409 when the same job is already running.
func respondJobStarted(w http.ResponseWriter, jobID, runID string, err error) {
	switch {
	case errors.Is(err, jobs.ErrJobRunning):
		RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, jobs.ErrJobNotFound):
		RespondWithError(w, http.StatusNotFound, err.Error())
	case err != nil:
		RespondWithError(w, http.StatusInternalServerError, err.Error())
	default:
		RespondWithJSON(w, http.StatusAccepted, map[string]string{
			"message": "Job '" + jobID + "' started successfully.",
			"job_id":  jobID,
			"run_id":  runID,
		})
	}
}
