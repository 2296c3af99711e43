package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/brunobiangulo/docsect"
	"github.com/brunobiangulo/docsect/continuation"
)

type handler struct {
	engine    docsect.Engine
	uploadDir string
}

func newHandler(e docsect.Engine, uploadDir string) *handler {
	return &handler{engine: e, uploadDir: uploadDir}
}

// POST /extract
// Accepts multipart file upload or JSON with file path.
func (h *handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	// Try multipart upload first
	if err := r.ParseMultipartForm(100 << 20); err == nil { // 100MB max
		file, header, err := r.FormFile("file")
		if err == nil {
			defer file.Close()

			// Sanitise filename to prevent path traversal.
			safeName := filepath.Base(header.Filename)
			path, err := h.saveUpload(safeName, file)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to save file")
				slog.Error("saving uploaded file", "error", err)
				return
			}

			var opts []docsect.ExtractOption
			if r.FormValue("force") != "" {
				opts = append(opts, docsect.WithForce())
			}
			res, err := h.engine.Extract(ctx, path, opts...)
			if err != nil {
				writeEngineError(w, "extraction failed", err)
				slog.Error("extract error", "file", safeName, "error", err)
				return
			}
			writeJSON(w, http.StatusOK, res)
			return
		}
	}

	// Try JSON body with path
	var req struct {
		Path    string            `json:"path"`
		Options map[string]string `json:"options,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: expected multipart file or JSON with 'path'")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	// Validate that path is a real file (prevents directory traversal probing).
	absPath, err := filepath.Abs(req.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(absPath)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusBadRequest, "path must be an existing file")
		return
	}

	var opts []docsect.ExtractOption
	if _, ok := req.Options["force"]; ok {
		opts = append(opts, docsect.WithForce())
	}
	if source, ok := req.Options["source"]; ok {
		opts = append(opts, docsect.WithSource(source))
	}
	if layout, ok := req.Options["layout"]; ok {
		opts = append(opts, docsect.WithLayoutFile(layout))
	}

	res, err := h.engine.Extract(ctx, absPath, opts...)
	if err != nil {
		writeEngineError(w, "extraction failed", err)
		slog.Error("extract error", "path", absPath, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// saveUpload keeps uploads under a stable name so a re-upload of the same
// file is recognised as unchanged.
func (h *handler) saveUpload(name string, src io.Reader) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(h.uploadDir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	return path, dst.Close()
}

// POST /load
func (h *handler) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Dir string `json:"dir"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Dir == "" {
		writeError(w, http.StatusBadRequest, "dir is required")
		return
	}

	docID, err := h.engine.Load(r.Context(), req.Dir)
	if err != nil {
		writeEngineError(w, "load failed", err)
		slog.Error("load error", "dir", req.Dir, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": docID,
		"dir":         req.Dir,
	})
}

// POST /continuations
func (h *handler) handleContinuations(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PagesPath  string `json:"pages_path"`
		Policy     string `json:"policy,omitempty"`
		DocumentID int64  `json:"document_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.PagesPath == "" {
		writeError(w, http.StatusBadRequest, "pages_path is required")
		return
	}

	var opts []docsect.ContinuationOption
	if req.Policy != "" {
		policy, err := continuation.ParsePolicy(req.Policy)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts = append(opts, docsect.WithPolicy(policy))
	}
	if req.DocumentID != 0 {
		opts = append(opts, docsect.WithDocument(req.DocumentID))
	}

	res, err := h.engine.Continuations(r.Context(), req.PagesPath, opts...)
	if err != nil {
		writeEngineError(w, "continuation detection failed", err)
		slog.Error("continuations error", "pages", req.PagesPath, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /documents
func (h *handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.engine.ListDocuments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		slog.Error("list documents error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
	})
}

// GET /documents/{id}/sections
func (h *handler) handleSections(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(w, r)
	if !ok {
		return
	}
	sections, err := h.engine.Sections(r.Context(), id)
	if err != nil {
		writeEngineError(w, "failed to read sections", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": id,
		"sections":    sections,
	})
}

// GET /documents/{id}/report
func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(w, r)
	if !ok {
		return
	}

	tmp, err := os.CreateTemp("", "docsect-report-*.xlsx")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create report")
		slog.Error("creating temp report", "error", err)
		return
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	if err := h.engine.Report(r.Context(), id, tmp.Name()); err != nil {
		writeEngineError(w, "report failed", err)
		slog.Error("report error", "document_id", id, "error", err)
		return
	}

	f, err := os.Open(tmp.Name())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "report failed")
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=\"document_"+strconv.FormatInt(id, 10)+".xlsx\"")
	http.ServeContent(w, r, "", time.Time{}, f)
}

// DELETE /documents/{id}
func (h *handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(w, r)
	if !ok {
		return
	}
	if err := h.engine.Delete(r.Context(), id); err != nil {
		writeEngineError(w, "delete failed", err)
		slog.Error("delete error", "document_id", id, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func documentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return 0, false
	}
	return id, true
}

// writeEngineError maps engine sentinels to status codes.
func writeEngineError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, docsect.ErrDocumentNotFound):
		writeError(w, http.StatusNotFound, "document not found")
	case errors.Is(err, docsect.ErrUnsupportedSource), errors.Is(err, docsect.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, docsect.ErrOpenFailed), errors.Is(err, docsect.ErrNoItems):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, msg)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
