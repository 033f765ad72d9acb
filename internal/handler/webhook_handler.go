package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/parisxmas/OxiForms/internal/service"
)

type WebhookHandler struct {
	svc *service.WebhookService
	log logrus.FieldLogger
}

func NewWebhookHandler(svc *service.WebhookService, log logrus.FieldLogger) *WebhookHandler {
	return &WebhookHandler{svc: svc, log: log}
}

func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	hooks, err := h.svc.List(r.Context(), userID(r), chi.URLParam(r, "formId"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, hooks)
}

func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL    string   `json:"url"`
		Events []string `json:"events"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	hook, err := h.svc.Create(r.Context(), userID(r), chi.URLParam(r, "formId"), req.URL, req.Events)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, hook)
}

func (h *WebhookHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active *bool `json:"active"`
	}
	if err := readJSON(w, r, &req); err != nil || req.Active == nil {
		writeError(w, r, http.StatusBadRequest, "active is required")
		return
	}
	hook, err := h.svc.SetActive(r.Context(), userID(r), chi.URLParam(r, "formId"), chi.URLParam(r, "webhookId"), *req.Active)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, hook)
}

func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), userID(r), chi.URLParam(r, "formId"), chi.URLParam(r, "webhookId")); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}
