package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/parisxmas/OxiForms/internal/engine"
	"github.com/parisxmas/OxiForms/internal/export"
	"github.com/parisxmas/OxiForms/internal/models"
	"github.com/parisxmas/OxiForms/internal/service"
)

type SubmissionHandler struct {
	subs      *service.SubmissionService
	analytics *service.AnalyticsService
	maxUpload int64
	log       logrus.FieldLogger
}

func NewSubmissionHandler(subs *service.SubmissionService, analytics *service.AnalyticsService, maxUpload int64, log logrus.FieldLogger) *SubmissionHandler {
	return &SubmissionHandler{subs: subs, analytics: analytics, maxUpload: maxUpload, log: log}
}

// Submit accepts a respondent's answers either as a JSON object keyed by
// field id or as multipart form data with the answers in a "data" part and
// one file part per file field, named after the field id.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formId")
	meta := engine.Metadata{
		UserAgent: r.UserAgent(),
		IP:        clientIP(r),
	}

	var (
		sub *models.Submission
		err error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload*4+maxJSONBody)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid multipart body")
			return
		}
		defer r.MultipartForm.RemoveAll()

		answers, parts, ok := multipartAnswers(w, r)
		if !ok {
			return
		}
		sub, err = h.subs.SubmitWithFiles(r.Context(), formID, answers, parts, meta)
	} else {
		var answers engine.Answers
		if err := readJSON(w, r, &answers); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid request body")
			return
		}
		sub, err = h.subs.Submit(r.Context(), formID, answers, meta)
	}
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"success":      true,
		"submissionId": sub.ID,
	})
}

// multipartAnswers reads the "data" part and collects the file parts of a
// parsed multipart form. Nothing is stored here.
func multipartAnswers(w http.ResponseWriter, r *http.Request) (engine.Answers, []service.FilePart, bool) {
	answers := engine.Answers{}
	if raw := r.FormValue("data"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &answers); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid data JSON")
			return nil, nil, false
		}
	}

	var parts []service.FilePart
	for fieldID, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			fh := fh
			parts = append(parts, service.FilePart{
				FieldID:  fieldID,
				FileName: fh.Filename,
				Open: func() (io.ReadCloser, error) {
					return fh.Open()
				},
			})
		}
	}
	return answers, parts, true
}

func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.subs.List(r.Context(), userID(r), chi.URLParam(r, "formId"), service.ListQuery{
		Page:   page,
		Limit:  limit,
		Search: q.Get("q"),
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (h *SubmissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subs.Get(r.Context(), userID(r), chi.URLParam(r, "formId"), chi.URLParam(r, "subId"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sub)
}

func (h *SubmissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	subID := chi.URLParam(r, "subId")
	if err := h.subs.Delete(r.Context(), userID(r), chi.URLParam(r, "formId"), subID); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"deleted": subID})
}

func (h *SubmissionHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SubmissionIDs []string `json:"submissionIds"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	n, err := h.subs.BulkDelete(r.Context(), userID(r), chi.URLParam(r, "formId"), req.SubmissionIDs)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"success": true, "deleted": n})
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Export streams the form's submissions as CSV. ?format selects the
// submissions (default) or responses layout.
func (h *SubmissionHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	opts, ok := export.Preset(format)
	if !ok {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown export format %q", format))
		return
	}
	if format == "" {
		format = "submissions"
	}

	formID := chi.URLParam(r, "formId")
	var buf bytes.Buffer
	if err := h.subs.Export(r.Context(), userID(r), formID, &buf, opts); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	name := strings.Trim(unsafeFileChars.ReplaceAllString(formID, "-"), "-")
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s.csv"`, name, format))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *SubmissionHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	report, err := h.analytics.Report(r.Context(), userID(r), chi.URLParam(r, "formId"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
