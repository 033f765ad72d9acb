package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/parisxmas/OxiForms/internal/service"
)

type FormHandler struct {
	svc *service.FormService
	log logrus.FieldLogger
}

func NewFormHandler(svc *service.FormService, log logrus.FieldLogger) *FormHandler {
	return &FormHandler{svc: svc, log: log}
}

func (h *FormHandler) List(w http.ResponseWriter, r *http.Request) {
	forms, err := h.svc.List(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, forms)
}

func (h *FormHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.FormInput
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	form, err := h.svc.Create(r.Context(), userID(r), in)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, form)
}

func (h *FormHandler) Get(w http.ResponseWriter, r *http.Request) {
	form, err := h.svc.Get(r.Context(), userID(r), chi.URLParam(r, "formId"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, form)
}

func (h *FormHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch service.FormPatch
	if err := readJSON(w, r, &patch); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	form, err := h.svc.Update(r.Context(), userID(r), chi.URLParam(r, "formId"), patch)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, form)
}

func (h *FormHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), userID(r), chi.URLParam(r, "formId")); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

// Public serves a published form to respondents.
func (h *FormHandler) Public(w http.ResponseWriter, r *http.Request) {
	form, err := h.svc.GetPublic(r.Context(), chi.URLParam(r, "shareId"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, form)
}

func (h *FormHandler) Templates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, service.Templates())
}

func (h *FormHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.svc.Dashboard(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dash)
}
