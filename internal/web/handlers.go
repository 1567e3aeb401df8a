package web

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/collectory/registry/internal/batch"
	"github.com/collectory/registry/internal/model"
	"github.com/collectory/registry/internal/store"
)

// handleHealth reports process liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSubmitBatch accepts a multipart upload with an entitiesFile part and
// an optional contactsFile part, starts the batch, and returns its key. The
// batch runs asynchronously; clients poll the returned key for progress.
func (s *Server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	entityType, ok := model.ParseEntityType(chi.URLParam(r, "entityType"))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "unknown entity type")
		return
	}

	format, err := batch.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	maxSize := s.cfg.Batch.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, r, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	entitiesData, err := readFormFile(r, "entitiesFile")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "no entities file provided")
		return
	}

	// The contacts file is optional; its absence means contact
	// reconciliation is skipped entirely.
	contactsData, err := readFormFile(r, "contactsFile")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		writeError(w, r, http.StatusBadRequest, "invalid contacts file")
		return
	}

	key, err := s.batches.Submit(r.Context(), entityType, entitiesData, contactsData, format)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"key": key})
}

// handleGetBatch returns the batch record at any point in its lifecycle.
func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	key, err := strconv.ParseInt(chi.URLParam(r, "key"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid batch key")
		return
	}

	b, err := s.batches.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, store.ErrBatchNotFound) {
			writeError(w, r, http.StatusNotFound, "batch not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "failed to load batch")
		return
	}

	writeJSON(w, http.StatusOK, b)
}

// handleBatchResult streams the annotated result archive for a finished batch.
func (s *Server) handleBatchResult(w http.ResponseWriter, r *http.Request) {
	key, err := strconv.ParseInt(chi.URLParam(r, "key"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid batch key")
		return
	}

	b, err := s.batches.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, store.ErrBatchNotFound) {
			writeError(w, r, http.StatusNotFound, "batch not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "failed to load batch")
		return
	}

	if b.State == model.BatchStateInProgress {
		writeError(w, r, http.StatusConflict, "batch still in progress")
		return
	}
	if b.ResultFilePath == "" {
		writeError(w, r, http.StatusNotFound, "no result archive for this batch")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(b.ResultFilePath)+`"`)
	http.ServeFile(w, r, b.ResultFilePath)
}

// handleGetEntity returns one stored institution or collection by key.
func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	entityType, ok := model.ParseEntityType(chi.URLParam(r, "entityType"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "unknown entity type")
		return
	}

	key, err := uuid.Parse(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid entity key")
		return
	}

	e, err := s.entities[entityType].Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, store.ErrEntityNotFound) {
			writeError(w, r, http.StatusNotFound, "entity not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "failed to load entity")
		return
	}

	writeJSON(w, http.StatusOK, e)
}

// readFormFile reads one multipart file part fully into memory. Batch files
// are bounded by MaxBytesReader upstream.
func readFormFile(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
