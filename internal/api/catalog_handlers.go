package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vrsandeep/mango-catalog/internal/library"
	"github.com/vrsandeep/mango-catalog/internal/models"
	"github.com/vrsandeep/mango-catalog/internal/store"
)

func (s *Server) handleListLibraries(w http.ResponseWriter, r *http.Request) {
	libs, err := s.store.ListLibraries()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if libs == nil {
		libs = []*models.Library{}
	}
	RespondWithJSON(w, http.StatusOK, libs)
}

func (s *Server) handleGetLibrary(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, getLibraryFromContext(r))
}

func (s *Server) handleListSeries(w http.ResponseWriter, r *http.Request) {
	lib := getLibraryFromContext(r)
	series, err := s.store.ListSeriesIndex(lib.ID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if series == nil {
		series = []*models.Series{}
	}
	RespondWithJSON(w, http.StatusOK, series)
}

func (s *Server) handleScanLibrary(w http.ResponseWriter, r *http.Request) {
	lib := getLibraryFromContext(r)
	scanner := s.app.Scanner()

	jobID := library.ScanLibraryJobID(lib.ID)
	runID, err := s.app.JobManager().Submit(jobID, "Scan library "+lib.Name, library.ScanLibraryTask(scanner, lib.ID))
	respondJobStarted(w, jobID, runID, err)
}

func (s *Server) handleGetSeries(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, getSeriesFromContext(r))
}

func (s *Server) handleRenameSeries(w http.ResponseWriter, r *http.Request) {
	ser := getSeriesFromContext(r)

	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	err := s.store.RenameSeries(ser.ID, payload.Name)
	if errors.Is(err, store.ErrSeriesNotFound) {
		RespondWithError(w, http.StatusNotFound, "Series not found")
		return
	}
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.store.GetSeries(ser.ID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, updated)
}

func (s *Server) handleScanSeries(w http.ResponseWriter, r *http.Request) {
	ser := getSeriesFromContext(r)
	scanner := s.app.Scanner()

	jobID := library.ScanSeriesJobID(ser.ID)
	runID, err := s.app.JobManager().Submit(jobID, "Scan series "+ser.Name, library.ScanSeriesTask(scanner, ser.ID))
	respondJobStarted(w, jobID, runID, err)
}
