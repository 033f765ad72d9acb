package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/parisxmas/OxiForms/internal/service"
	"github.com/parisxmas/OxiForms/internal/storage"
)

type UploadHandler struct {
	svc       *service.UploadService
	maxUpload int64
	log       logrus.FieldLogger
}

func NewUploadHandler(svc *service.UploadService, maxUpload int64, log logrus.FieldLogger) *UploadHandler {
	return &UploadHandler{svc: svc, maxUpload: maxUpload, log: log}
}

// Upload stores one "file" part for a published form. The returned id is
// what a file field's answer refers to.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+maxJSONBody)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	doc, err := h.svc.Store(r.Context(), chi.URLParam(r, "formId"), header.Filename, file)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]any{
		"id":       doc.ID,
		"url":      doc.URL,
		"filename": doc.FileName,
		"size":     doc.Size,
	})
}

// Serve returns a stored upload at /uploads/{formId}/{key}.
func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	f, err := h.svc.Open(chi.URLParam(r, "formId"), key)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	contentType := storage.DetectContentType(key)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if !storage.Inline(contentType) {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, key))
	}
	http.ServeContent(w, r, key, info.ModTime(), f)
}
