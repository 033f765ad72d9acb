package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/parisxmas/OxiForms/internal/engine"
	"github.com/parisxmas/OxiForms/internal/export"
	"github.com/parisxmas/OxiForms/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type SubmissionService struct {
	forms    FormStore
	subs     SubmissionStore
	hooks    WebhookStore
	uploads  *UploadService
	notifier Notifier
	log      logrus.FieldLogger
}

func NewSubmissionService(forms FormStore, subs SubmissionStore, hooks WebhookStore, uploads *UploadService, notifier Notifier, log logrus.FieldLogger) *SubmissionService {
	return &SubmissionService{forms: forms, subs: subs, hooks: hooks, uploads: uploads, notifier: notifier, log: log}
}

type ListQuery struct {
	Page   int
	Limit  int
	Search string
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type SubmissionPage struct {
	Submissions []models.Submission `json:"submissions"`
	Pagination  Pagination          `json:"pagination"`
}

// Submit runs one answer set through Received, Validated, Persisted and
// NotificationsAttempted. A rejected submission is neither stored nor
// announced; the returned *engine.ValidationError lists every violation.
func (s *SubmissionService) Submit(ctx context.Context, formID string, answers engine.Answers, meta engine.Metadata) (*models.Submission, error) {
	form, err := s.forms.FindByID(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, ErrNotFound
	}
	if !form.Published {
		return nil, ErrNotPublished
	}
	if answers == nil {
		answers = engine.Answers{}
	}

	visible, err := engine.Visible(form.Fields, answers)
	if err != nil {
		return nil, fmt.Errorf("form %s: %w", formID, err)
	}
	files, fileViolations, err := s.uploads.Resolve(ctx, formID, visible, answers)
	if err != nil {
		return nil, err
	}

	record, err := engine.Evaluate(form.Fields, answers, files, meta)
	var verr *engine.ValidationError
	switch {
	case errors.As(err, &verr):
		return nil, mergeViolations(form.Fields, fileViolations, verr.Violations)
	case err != nil:
		return nil, fmt.Errorf("form %s: %w", formID, err)
	case len(fileViolations) > 0:
		return nil, mergeViolations(form.Fields, fileViolations, nil)
	}

	sub := &models.Submission{
		ID:     uuid.New().String(),
		FormID: formID,
		Data:   record.Data,
		Metadata: models.SubmissionMetadata{
			UserAgent: record.Metadata.UserAgent,
			IP:        record.Metadata.IP,
		},
		CreatedAt: record.Metadata.SubmittedAt,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("store submission: %w", err)
	}

	hooks, err := s.hooks.FindActive(ctx, formID, models.EventSubmissionCreated)
	if err != nil {
		s.log.WithFields(logrus.Fields{"form_id": formID, "submission_id": sub.ID}).
			Warnf("load webhooks: %v", err)
		hooks = nil
	}
	s.notifier.Dispatch(form, sub, hooks)
	return sub, nil
}

// FilePart is one file sent along with a submission, named after the file
// field it answers.
type FilePart struct {
	FieldID  string
	FileName string
	Open     func() (io.ReadCloser, error)
}

// SubmitWithFiles stores the parts that answer a visible file field, adds
// their upload ids to the answers and submits. Parts for hidden or unknown
// fields are ignored. When the submission is rejected or fails, the
// uploads stored for it are removed again.
func (s *SubmissionService) SubmitWithFiles(ctx context.Context, formID string, answers engine.Answers, parts []FilePart, meta engine.Metadata) (*models.Submission, error) {
	form, err := s.forms.FindByID(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, ErrNotFound
	}
	if !form.Published {
		return nil, ErrNotPublished
	}
	if answers == nil {
		answers = engine.Answers{}
	}

	visible, err := engine.Visible(form.Fields, answers)
	if err != nil {
		return nil, fmt.Errorf("form %s: %w", formID, err)
	}
	fileFields := make(map[string]bool)
	for _, f := range visible {
		if f.Type == models.FieldFile {
			fileFields[f.ID] = true
		}
	}

	var stored []models.Document
	ids := make(map[string][]any)
	for _, p := range parts {
		if !fileFields[p.FieldID] {
			continue
		}
		doc, err := s.storePart(ctx, formID, p)
		if err != nil {
			s.discard(ctx, formID, stored)
			return nil, err
		}
		stored = append(stored, *doc)
		ids[p.FieldID] = append(ids[p.FieldID], doc.ID)
	}
	for fieldID, list := range ids {
		answers[fieldID] = list
	}

	sub, err := s.Submit(ctx, formID, answers, meta)
	if err != nil {
		s.discard(ctx, formID, stored)
		return nil, err
	}
	return sub, nil
}

func (s *SubmissionService) storePart(ctx context.Context, formID string, p FilePart) (*models.Document, error) {
	r, err := p.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable file part %q", ErrInvalidInput, p.FieldID)
	}
	defer r.Close()
	return s.uploads.store(ctx, formID, p.FileName, r)
}

func (s *SubmissionService) discard(ctx context.Context, formID string, docs []models.Document) {
	if len(docs) == 0 {
		return
	}
	if err := s.uploads.Discard(ctx, docs); err != nil {
		s.log.WithField("form_id", formID).Warnf("discard rejected uploads: %v", err)
	}
}

// mergeViolations keeps one violation per field, file resolution first,
// ordered as the fields are.
func mergeViolations(fields []models.Field, first, second []engine.Violation) *engine.ValidationError {
	order := make(map[string]int, len(fields))
	for i, f := range fields {
		order[f.ID] = i
	}
	seen := make(map[string]bool)
	var out []engine.Violation
	for _, v := range append(append([]engine.Violation{}, first...), second...) {
		if seen[v.Field] {
			continue
		}
		seen[v.Field] = true
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return order[out[i].Field] < order[out[j].Field] })
	return &engine.ValidationError{Violations: out}
}

func (s *SubmissionService) List(ctx context.Context, ownerID, formID string, q ListQuery) (*SubmissionPage, error) {
	if _, err := ownedForm(ctx, s.forms, ownerID, formID); err != nil {
		return nil, err
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}

	subs, total, err := s.subs.FindByForm(ctx, formID, strings.TrimSpace(q.Search), (q.Page-1)*q.Limit, q.Limit)
	if err != nil {
		return nil, err
	}
	return &SubmissionPage{
		Submissions: subs,
		Pagination: Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: (total + q.Limit - 1) / q.Limit,
		},
	}, nil
}

func (s *SubmissionService) Get(ctx context.Context, ownerID, formID, subID string) (*models.Submission, error) {
	if _, err := ownedForm(ctx, s.forms, ownerID, formID); err != nil {
		return nil, err
	}
	sub, err := s.subs.FindByID(ctx, formID, subID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrNotFound
	}
	return sub, nil
}

func (s *SubmissionService) Delete(ctx context.Context, ownerID, formID, subID string) error {
	if _, err := ownedForm(ctx, s.forms, ownerID, formID); err != nil {
		return err
	}
	ok, err := s.subs.Delete(ctx, formID, subID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// BulkDelete removes the listed submissions of one form and reports how
// many were deleted.
func (s *SubmissionService) BulkDelete(ctx context.Context, ownerID, formID string, ids []string) (int, error) {
	if _, err := ownedForm(ctx, s.forms, ownerID, formID); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: submissionIds must not be empty", ErrInvalidInput)
	}
	return s.subs.DeleteMany(ctx, formID, ids)
}

func (s *SubmissionService) Count(ctx context.Context, ownerID, formID string) (int, error) {
	if _, err := ownedForm(ctx, s.forms, ownerID, formID); err != nil {
		return 0, err
	}
	return s.subs.CountByForm(ctx, formID)
}

// Export writes an owner's form as CSV.
func (s *SubmissionService) Export(ctx context.Context, ownerID, formID string, w io.Writer, o export.Options) error {
	form, err := ownedForm(ctx, s.forms, ownerID, formID)
	if err != nil {
		return err
	}
	return s.export(ctx, form, w, o)
}

// ExportForm writes any form as CSV without an ownership check.
func (s *SubmissionService) ExportForm(ctx context.Context, formID string, w io.Writer, o export.Options) error {
	form, err := s.forms.FindByID(ctx, formID)
	if err != nil {
		return err
	}
	if form == nil {
		return ErrNotFound
	}
	return s.export(ctx, form, w, o)
}

func (s *SubmissionService) export(ctx context.Context, form *models.Form, w io.Writer, o export.Options) error {
	subs, err := s.subs.FindAllByForm(ctx, form.ID)
	if err != nil {
		return err
	}
	return export.WriteCSV(w, form, subs, o)
}
