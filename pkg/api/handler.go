package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"audio2sign/pkg/logger"
	"audio2sign/pkg/models"
	"audio2sign/pkg/pipeline"
	"audio2sign/pkg/storage"

	"github.com/gorilla/mux"
)

var allowedExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".ogg":  true,
	".m4a":  true,
	".webm": true,
}

// Submitter runs an uploaded file through transcription and resolution.
type Submitter interface {
	Submit(ctx context.Context, job *models.Job) (*models.Translation, error)
}

type Handlers struct {
	pipeline  Submitter
	store     storage.MemoryStore
	disk      storage.DiskStore
	hub       *Hub
	uploadDir string
	maxUpload int64
	logger    *logger.Logger
}

// NewHandlers builds the HTTP handlers. disk may be nil when history is not persisted.
func NewHandlers(p Submitter, store storage.MemoryStore, disk storage.DiskStore, hub *Hub,
	uploadDir string, maxUpload int64, log *logger.Logger) *Handlers {
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	return &Handlers{
		pipeline:  p,
		store:     store,
		disk:      disk,
		hub:       hub,
		uploadDir: uploadDir,
		maxUpload: maxUpload,
		logger:    log,
	}
}

// TranscribeHandler accepts a multipart "audio" field or a raw request body.
// The upload is spooled to a temp file that is removed before the response
// is written, however the request ends.
func (h *Handlers) TranscribeHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	status, body := h.transcribe(r)
	writeJSON(w, status, body)
}

func (h *Handlers) transcribe(r *http.Request) (int, interface{}) {
	path, source, status, err := h.spool(r)
	if path != "" {
		defer func() {
			if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				h.logger.Errorw("Error removing temporary file", "path", path, "error", rmErr)
			}
		}()
	}
	if err != nil {
		h.logger.Warnw("Rejected upload", "status", status, "error", err)
		return status, models.ErrorResponse{Error: err.Error()}
	}

	job := models.NewJob(r.Context(), path, source)
	h.logger.Infow("PROCESSING STARTED", "job", job.ID, "source", source)

	t, err := h.pipeline.Submit(r.Context(), job)
	switch {
	case errors.Is(err, pipeline.ErrQueueFull), errors.Is(err, pipeline.ErrShuttingDown):
		return http.StatusServiceUnavailable, models.ErrorResponse{Error: err.Error()}
	case err != nil:
		h.logger.Errorw("Translation failed", "job", job.ID, "error", err)
		return http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Error processing audio: %v", err)}
	}
	return http.StatusOK, t.Response()
}

// spool writes the request audio to a temp file and returns its path.
func (h *Handlers) spool(r *http.Request) (path, source string, status int, err error) {
	var (
		src io.Reader
		ext = ".wav"
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxUpload); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return "", "", http.StatusRequestEntityTooLarge, errors.New("audio file too large")
			}
			return "", "", http.StatusBadRequest, fmt.Errorf("failed to parse form: %w", err)
		}
		file, header, err := r.FormFile("audio")
		if err != nil {
			return "", "", http.StatusBadRequest, errors.New("please upload an audio file in the 'audio' field")
		}
		defer file.Close()

		ext = strings.ToLower(filepath.Ext(header.Filename))
		if !allowedExtensions[ext] {
			return "", "", http.StatusBadRequest,
				errors.New("unsupported audio format, please upload a WAV, MP3, OGG, M4A, or WebM file")
		}
		src = file
		source = "multipart"
	} else {
		src = r.Body
		source = "raw"
	}

	tmp, err := os.CreateTemp(h.uploadDir, "upload-*"+ext)
	if err != nil {
		return "", "", http.StatusInternalServerError, fmt.Errorf("failed to create temp file: %w", err)
	}
	path = tmp.Name()

	n, err := io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return path, "", http.StatusRequestEntityTooLarge, errors.New("audio file too large")
		}
		return path, "", http.StatusInternalServerError, fmt.Errorf("error saving audio file: %w", err)
	}
	if n == 0 {
		return path, "", http.StatusBadRequest, errors.New("audio file is empty")
	}
	return path, source, http.StatusOK, nil
}

func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"clients": h.hub.Count(),
	})
}

func (h *Handlers) GetTranslationHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	t, err := h.store.GetTranslation(id)
	if errors.Is(err, storage.ErrNotFound) && h.disk != nil {
		t, err = h.disk.GetTranslation(id)
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "translation not found")
			return
		}
		h.logger.Errorw("Failed to load translation", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) ListTranslationsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var (
		translations []*models.Translation
		err          error
	)
	if h.disk != nil && r.URL.Query().Get("source") == "disk" {
		translations, err = h.disk.RecentTranslations(limit)
	} else {
		translations, err = h.store.RecentTranslations(limit)
	}
	if err != nil {
		h.logger.Errorw("Failed to list translations", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if translations == nil {
		translations = []*models.Translation{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"translations": translations,
		"count":        len(translations),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}
