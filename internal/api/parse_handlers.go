package api

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/vrsandeep/mango-catalog/internal/models"
	"github.com/vrsandeep/mango-catalog/internal/parser"
)

// handleParse runs the filename parser on a path without touching the
// catalog. Query: path (required), root (defaults to the path's directory),
// type (manga, comic, book or webtoon; default manga), legacy (bool).
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := q.Get("path")
	if path == "" {
		RespondWithError(w, http.StatusBadRequest, "path is required")
		return
	}
	root := q.Get("root")
	if root == "" {
		root = filepath.Dir(path)
	}

	libType := models.LibraryManga
	if t := q.Get("type"); t != "" {
		parsed, err := models.ParseLibraryType(t)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		libType = parsed
	}

	legacy := false
	if l := q.Get("legacy"); l != "" {
		b, err := strconv.ParseBool(l)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, "legacy must be a boolean")
			return
		}
		legacy = b
	}

	info := parser.ProfileFor(libType, legacy).Parse(path, root)
	if info == nil {
		RespondWithError(w, http.StatusUnprocessableEntity, "File is not catalogued: unsupported, blacklisted or no series found")
		return
	}
	RespondWithJSON(w, http.StatusOK, info)
}
