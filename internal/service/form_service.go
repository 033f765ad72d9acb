package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/parisxmas/OxiForms/internal/engine"
	"github.com/parisxmas/OxiForms/internal/models"
	"github.com/parisxmas/OxiForms/internal/storage"
)

const defaultFormName = "Untitled Form"

type FormService struct {
	forms FormStore
	subs  SubmissionStore
	files storage.FileStore
	log   logrus.FieldLogger
}

func NewFormService(forms FormStore, subs SubmissionStore, files storage.FileStore, log logrus.FieldLogger) *FormService {
	return &FormService{forms: forms, subs: subs, files: files, log: log}
}

// FormInput describes a new form. A Template key seeds the fields; explicit
// Fields win over the template.
type FormInput struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Template    string               `json:"template"`
	Fields      []models.Field       `json:"fields"`
	Settings    *models.FormSettings `json:"settings"`
}

// FormPatch carries the fields of an update; nil members are left alone.
type FormPatch struct {
	Name        *string              `json:"name"`
	Description *string              `json:"description"`
	Fields      *[]models.Field      `json:"fields"`
	Settings    *models.FormSettings `json:"settings"`
	Published   *bool                `json:"published"`
}

type FormSummary struct {
	models.Form
	SubmissionCount int `json:"submissionCount"`
}

type Dashboard struct {
	FormCount       int           `json:"formCount"`
	PublishedCount  int           `json:"publishedCount"`
	SubmissionCount int           `json:"submissionCount"`
	Forms           []FormSummary `json:"forms"`
}

func (s *FormService) Create(ctx context.Context, ownerID string, in FormInput) (*models.Form, error) {
	name := strings.TrimSpace(in.Name)
	fields := in.Fields

	if in.Template != "" {
		tpl, tplFields, ok := TemplateFields(in.Template)
		if !ok {
			return nil, fmt.Errorf("%w: unknown template %q", ErrInvalidInput, in.Template)
		}
		if fields == nil {
			fields = tplFields
		}
		if name == "" && in.Template != "blank" {
			name = tpl.Name
		}
	}
	if name == "" {
		name = defaultFormName
	}
	if fields == nil {
		fields = []models.Field{}
	}
	if err := checkFields(fields); err != nil {
		return nil, err
	}

	settings := models.DefaultSettings()
	if in.Settings != nil {
		settings = *in.Settings
	}

	now := time.Now().UTC()
	form := &models.Form{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Name:        name,
		Description: in.Description,
		Fields:      fields,
		Settings:    settings,
		ShareID:     newShareID(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.forms.Create(ctx, form); err != nil {
		return nil, fmt.Errorf("create form: %w", err)
	}
	return form, nil
}

// List returns the owner's forms, most recently updated first, with their
// submission counts.
func (s *FormService) List(ctx context.Context, ownerID string) ([]FormSummary, error) {
	forms, err := s.forms.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	counts, err := s.subs.CountsByForm(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]FormSummary, len(forms))
	for i, f := range forms {
		out[i] = FormSummary{Form: f, SubmissionCount: counts[f.ID]}
	}
	return out, nil
}

func (s *FormService) Get(ctx context.Context, ownerID, formID string) (*models.Form, error) {
	return ownedForm(ctx, s.forms, ownerID, formID)
}

func (s *FormService) Update(ctx context.Context, ownerID, formID string, patch FormPatch) (*models.Form, error) {
	form, err := ownedForm(ctx, s.forms, ownerID, formID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		form.Name = name
	}
	if patch.Description != nil {
		form.Description = *patch.Description
	}
	if patch.Fields != nil {
		fields := *patch.Fields
		if fields == nil {
			fields = []models.Field{}
		}
		if err := checkFields(fields); err != nil {
			return nil, err
		}
		form.Fields = fields
	}
	if patch.Settings != nil {
		form.Settings = *patch.Settings
	}
	if patch.Published != nil {
		form.Published = *patch.Published
	}
	form.UpdatedAt = time.Now().UTC()

	if err := s.forms.Update(ctx, form); err != nil {
		return nil, fmt.Errorf("update form: %w", err)
	}
	return form, nil
}

// Delete removes the form with its submissions, webhooks and uploaded
// files.
func (s *FormService) Delete(ctx context.Context, ownerID, formID string) error {
	if _, err := ownedForm(ctx, s.forms, ownerID, formID); err != nil {
		return err
	}
	if err := s.forms.Delete(ctx, formID); err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	if err := s.files.RemoveForm(formID); err != nil {
		s.log.WithField("form_id", formID).Warnf("remove uploaded files: %v", err)
	}
	return nil
}

// GetPublic looks a form up by share id. Unpublished forms are not
// visible.
func (s *FormService) GetPublic(ctx context.Context, shareID string) (*models.PublicForm, error) {
	form, err := s.forms.FindByShareID(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, ErrNotFound
	}
	if !form.Published {
		return nil, ErrNotPublished
	}
	pub := form.Public()
	return &pub, nil
}

func (s *FormService) Dashboard(ctx context.Context, ownerID string) (*Dashboard, error) {
	forms, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	total, published, err := s.forms.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	subs, err := s.subs.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		FormCount:       total,
		PublishedCount:  published,
		SubmissionCount: subs,
		Forms:           forms,
	}, nil
}

func checkFields(fields []models.Field) error {
	if err := engine.CheckRules(fields); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

func newShareID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}
