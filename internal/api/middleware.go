package api

// This file contains the middleware that loads the catalog entity named in
// the URL and hands it to the handlers through the request context.

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vrsandeep/mango-catalog/internal/models"
	"github.com/vrsandeep/mango-catalog/internal/store"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey string

const (
	libraryContextKey = contextKey("library")
	seriesContextKey  = contextKey("series")
)

func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// LibraryCtx resolves {libraryID}. Unknown libraries end the request with 404.
func (s *Server) LibraryCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "libraryID")
		if !ok {
			RespondWithError(w, http.StatusBadRequest, "Invalid library ID")
			return
		}

		lib, err := s.store.GetLibrary(id)
		if errors.Is(err, store.ErrLibraryNotFound) {
			RespondWithError(w, http.StatusNotFound, "Library not found")
			return
		}
		if err != nil {
			RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), libraryContextKey, lib)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SeriesCtx resolves {seriesID} to the full series tree.
func (s *Server) SeriesCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "seriesID")
		if !ok {
			RespondWithError(w, http.StatusBadRequest, "Invalid series ID")
			return
		}

		ser, err := s.store.GetSeries(id)
		if errors.Is(err, store.ErrSeriesNotFound) {
			RespondWithError(w, http.StatusNotFound, "Series not found")
			return
		}
		if err != nil {
			RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), seriesContextKey, ser)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// getLibraryFromContext returns the library loaded by LibraryCtx, or nil.
func getLibraryFromContext(r *http.Request) *models.Library {
	lib, ok := r.Context().Value(libraryContextKey).(*models.Library)
	if !ok {
		return nil
	}
	return lib
}

// getSeriesFromContext returns the series loaded by SeriesCtx, or nil.
func getSeriesFromContext(r *http.Request) *models.Series {
	ser, ok := r.Context().Value(seriesContextKey).(*models.Series)
	if !ok {
		return nil
	}
	return ser
}
