package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/nsharma/interviewally/internal/eventlog"
	"github.com/nsharma/interviewally/internal/store"
)

var allowedAudioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
	".webm": true,
}

// handleUploadInterview accepts a multipart audio upload and enqueues it for
// processing. Re-uploading identical audio returns the existing interview.
func (r *Router) handleUploadInterview(w http.ResponseWriter, req *http.Request) {
	authUser := getAuthUser(req.Context())
	if authUser == nil {
		http.Error(w, `{"error": "not authenticated"}`, http.StatusUnauthorized)
		return
	}

	req.Body = http.MaxBytesReader(w, req.Body, r.cfg.MaxUploadBytes)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, `{"error": "invalid multipart form or file too large"}`, http.StatusBadRequest)
		return
	}

	file, header, err := req.FormFile("audio")
	if err != nil {
		http.Error(w, `{"error": "missing audio file field"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedAudioExtensions[ext] {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("unsupported audio format %q", ext),
		})
		return
	}

	// Spool to a temp file first so we can hash before creating the record.
	tmp, err := os.CreateTemp(r.cfg.UploadDir, "upload-*"+ext)
	if err != nil {
		r.logger.Printf("upload: failed to create temp file: %v", err)
		http.Error(w, `{"error": "failed to store upload"}`, http.StatusInternalServerError)
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		r.logger.Printf("upload: failed to write temp file: %v", err)
		http.Error(w, `{"error": "failed to store upload"}`, http.StatusInternalServerError)
		return
	}
	tmp.Close()

	audioHash, err := store.HashAudioFile(tmpPath)
	if err != nil {
		r.logger.Printf("upload: failed to hash audio: %v", err)
		http.Error(w, `{"error": "failed to store upload"}`, http.StatusInternalServerError)
		return
	}

	// Dedup: identical audio from the same user maps to the same interview.
	existing, err := r.store.FindInterviewByAudioHash(req.Context(), authUser.ID, audioHash)
	if err != nil {
		captureError(req, err, "upload dedup lookup failed")
		http.Error(w, `{"error": "database error"}`, http.StatusInternalServerError)
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"interview": existing,
			"duplicate": true,
		})
		return
	}

	iv, err := r.store.CreateInterview(req.Context(), authUser.ID, header.Filename, audioHash)
	if err != nil {
		captureError(req, err, "failed to create interview")
		http.Error(w, `{"error": "database error"}`, http.StatusInternalServerError)
		return
	}

	finalPath := filepath.Join(r.cfg.UploadDir, iv.ID+ext)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		r.logger.Printf("upload: failed to move audio into place: %v", err)
		http.Error(w, `{"error": "failed to store upload"}`, http.StatusInternalServerError)
		return
	}

	r.eventLog.LogAsync(iv.ID, eventlog.EventUploadReceived, map[string]any{
		"filename":   header.Filename,
		"size_bytes": header.Size,
	})
	r.logger.Printf("upload: interview %s queued for user %s (%s)", iv.ID, authUser.ID, header.Filename)

	writeJSON(w, http.StatusCreated, map[string]any{"interview": iv})
}

func (r *Router) handleListInterviews(w http.ResponseWriter, req *http.Request) {
	authUser := getAuthUser(req.Context())
	if authUser == nil {
		http.Error(w, `{"error": "not authenticated"}`, http.StatusUnauthorized)
		return
	}

	interviews, err := r.store.ListInterviewsByUser(req.Context(), authUser.ID, 100)
	if err != nil {
		captureError(req, err, "failed to list interviews")
		http.Error(w, `{"error": "database error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"interviews": interviews})
}

// ownedInterview loads the interview and verifies it belongs to the caller.
// Unowned interviews read as not found.
func (r *Router) ownedInterview(w http.ResponseWriter, req *http.Request) *store.Interview {
	authUser := getAuthUser(req.Context())
	if authUser == nil {
		http.Error(w, `{"error": "not authenticated"}`, http.StatusUnauthorized)
		return nil
	}

	id := req.PathValue("id")
	if id == "" {
		http.Error(w, `{"error": "missing interview id"}`, http.StatusBadRequest)
		return nil
	}

	iv, err := r.store.GetInterview(req.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error": "interview not found"}`, http.StatusNotFound)
			return nil
		}
		captureError(req, err, "failed to load interview")
		http.Error(w, `{"error": "database error"}`, http.StatusInternalServerError)
		return nil
	}
	if iv.UserID != authUser.ID {
		http.Error(w, `{"error": "interview not found"}`, http.StatusNotFound)
		return nil
	}
	return iv
}

func (r *Router) handleGetInterview(w http.ResponseWriter, req *http.Request) {
	iv := r.ownedInterview(w, req)
	if iv == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"interview": iv})
}

func (r *Router) handleDeleteInterview(w http.ResponseWriter, req *http.Request) {
	iv := r.ownedInterview(w, req)
	if iv == nil {
		return
	}

	if err := r.store.DeleteInterview(req.Context(), iv.ID); err != nil {
		captureError(req, err, "failed to delete interview")
		http.Error(w, `{"error": "database error"}`, http.StatusInternalServerError)
		return
	}

	// Remove the audio file if processing hasn't cleaned it up yet.
	audioPath := filepath.Join(r.cfg.UploadDir, iv.ID+filepath.Ext(iv.Filename))
	if err := os.Remove(audioPath); err != nil && !os.IsNotExist(err) {
		r.logger.Printf("delete: failed to remove audio for %s: %v", iv.ID, err)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleRetryInterview re-queues a failed interview for processing.
func (r *Router) handleRetryInterview(w http.ResponseWriter, req *http.Request) {
	iv := r.ownedInterview(w, req)
	if iv == nil {
		return
	}

	if iv.Status != store.StatusFailed {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": fmt.Sprintf("interview is %s, only failed interviews can be retried", iv.Status),
		})
		return
	}

	if err := r.store.RequeueInterview(req.Context(), iv.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error": "interview is no longer failed"}`, http.StatusConflict)
			return
		}
		captureError(req, err, "failed to requeue interview")
		http.Error(w, `{"error": "database error"}`, http.StatusInternalServerError)
		return
	}

	r.logger.Printf("retry: interview %s re-queued", iv.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (r *Router) handleListChunks(w http.ResponseWriter, req *http.Request) {
	iv := r.ownedInterview(w, req)
	if iv == nil {
		return
	}

	chunks, err := r.index.ListChunks(req.Context(), iv.ID)
	if err != nil {
		captureError(req, err, "failed to list chunks")
		http.Error(w, `{"error": "database error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"chunks": chunks})
}

func (r *Router) handleListEvents(w http.ResponseWriter, req *http.Request) {
	iv := r.ownedInterview(w, req)
	if iv == nil {
		return
	}

	events, err := r.eventLog.ListEvents(req.Context(), iv.ID, 200)
	if err != nil {
		captureError(req, err, "failed to list events")
		http.Error(w, `{"error": "database error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
