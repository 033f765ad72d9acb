package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/parisxmas/OxiForms/internal/auth"
	"github.com/parisxmas/OxiForms/internal/engine"
	"github.com/parisxmas/OxiForms/internal/service"
)

const maxJSONBody = 1 << 20

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	return render.DecodeJSON(r.Body, v)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeServiceError maps a service error to its HTTP status. Unexpected
// errors are logged and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	var verr *engine.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, r, http.StatusUnprocessableEntity, map[string]any{
			"error":      "validation failed",
			"violations": verr.Violations,
		})
	case errors.Is(err, service.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrNotPublished):
		writeError(w, r, http.StatusNotFound, "form not found or not published")
	case errors.Is(err, service.ErrUnauthorizedOwner):
		writeError(w, r, http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrFileTooLarge):
		writeError(w, r, http.StatusRequestEntityTooLarge, err.Error())
	default:
		log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Errorf("request failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

// userID returns the authenticated caller. Routes using it sit behind
// auth.Middleware.
func userID(r *http.Request) string {
	if claims := auth.GetUser(r.Context()); claims != nil {
		return claims.UserID
	}
	return ""
}
