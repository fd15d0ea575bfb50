package api

import (
	"net/http"

	"github.com/vrsandeep/mango-catalog/internal/models"
)

func (s *Server) handleGetBadFiles(w http.ResponseWriter, r *http.Request) {
	badFiles, err := s.badFiles.GetAllBadFiles()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to get bad files")
		return
	}
	if badFiles == nil {
		badFiles = []*models.BadFile{}
	}
	RespondWithJSON(w, http.StatusOK, badFiles)
}

func (s *Server) handleListLibraryBadFiles(w http.ResponseWriter, r *http.Request) {
	lib := getLibraryFromContext(r)
	badFiles, err := s.badFiles.ListBadFiles(lib.ID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to get bad files")
		return
	}
	if badFiles == nil {
		badFiles = []*models.BadFile{}
	}
	RespondWithJSON(w, http.StatusOK, badFiles)
}

func (s *Server) handleGetBadFilesCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.badFiles.CountBadFiles()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to count bad files")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]int{"count": count})
}

// handleDeleteBadFile dismisses an entry. The next scan of its folder
// records it again if the file is still bad.
func (s *Server) handleDeleteBadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "badFileID")
	if !ok {
		RespondWithError(w, http.StatusBadRequest, "Invalid bad file ID")
		return
	}
	if err := s.badFiles.DeleteBadFile(id); err != nil {
		RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
