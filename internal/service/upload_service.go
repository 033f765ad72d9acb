package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/parisxmas/OxiForms/internal/engine"
	"github.com/parisxmas/OxiForms/internal/models"
	"github.com/parisxmas/OxiForms/internal/storage"
)

// UploadService stores respondent files and turns upload ids found in an
// answer set into file references the validator can check.
type UploadService struct {
	forms    FormStore
	docs     DocumentStore
	files    storage.FileStore
	maxBytes int64
}

func NewUploadService(forms FormStore, docs DocumentStore, files storage.FileStore, maxBytes int64) *UploadService {
	return &UploadService{forms: forms, docs: docs, files: files, maxBytes: maxBytes}
}

// Store saves one file for a published form.
func (s *UploadService) Store(ctx context.Context, formID, fileName string, r io.Reader) (*models.Document, error) {
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
	return s.store(ctx, formID, fileName, r)
}

func (s *UploadService) store(ctx context.Context, formID, fileName string, r io.Reader) (*models.Document, error) {
	fileName = filepath.Base(strings.TrimSpace(fileName))
	if fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}

	obj, err := s.files.Save(formID, fileName, r, s.maxBytes)
	if errors.Is(err, storage.ErrTooLarge) {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxBytes)
	}
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		ID:          uuid.New().String(),
		FormID:      formID,
		FileName:    fileName,
		ContentType: obj.ContentType,
		Size:        obj.Size,
		StorageKey:  obj.Key,
		URL:         obj.URL,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("record upload: %w", err)
	}
	return doc, nil
}

// Discard removes uploads that ended up unused: their records and their
// files. Every document is attempted.
func (s *UploadService) Discard(ctx context.Context, docs []models.Document) error {
	var result *multierror.Error
	for _, d := range docs {
		if _, err := s.docs.Delete(ctx, d.FormID, d.ID); err != nil {
			result = multierror.Append(result, fmt.Errorf("document %s: %w", d.ID, err))
		}
		if err := s.files.Remove(d.FormID, d.StorageKey); err != nil {
			result = multierror.Append(result, fmt.Errorf("file %s: %w", d.StorageKey, err))
		}
	}
	return result.ErrorOrNil()
}

// Open returns a stored upload for download.
func (s *UploadService) Open(formID, key string) (*os.File, error) {
	f, err := s.files.Open(formID, key)
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, storage.ErrInvalidKey) {
		return nil, ErrNotFound
	}
	return f, err
}

// Resolve looks up the upload ids answered for the visible file fields.
// Answers that are not upload ids of this form yield a wrong_type
// violation for their field.
func (s *UploadService) Resolve(ctx context.Context, formID string, visible []models.Field, answers engine.Answers) (engine.Files, []engine.Violation, error) {
	files := engine.Files{}
	var violations []engine.Violation

	for i := range visible {
		f := &visible[i]
		if f.Type != models.FieldFile {
			continue
		}
		ids, ok := uploadIDs(answers[f.ID])
		if !ok {
			violations = append(violations, engine.Violation{Field: f.ID, Reason: engine.ReasonWrongType})
			continue
		}
		if len(ids) == 0 {
			continue
		}

		refs := make([]engine.FileRef, 0, len(ids))
		for _, id := range ids {
			doc, err := s.docs.FindByID(ctx, formID, id)
			if err != nil {
				return nil, nil, err
			}
			if doc == nil {
				refs = nil
				break
			}
			refs = append(refs, engine.FileRef{
				ID:          doc.ID,
				Name:        doc.FileName,
				ContentType: doc.ContentType,
				Size:        doc.Size,
				URL:         doc.URL,
			})
		}
		if refs == nil {
			violations = append(violations, engine.Violation{Field: f.ID, Reason: engine.ReasonWrongType})
			continue
		}
		files[f.ID] = refs
	}
	return files, violations, nil
}

// uploadIDs accepts a single id or a list of ids. An absent or empty
// answer is a valid empty list.
func uploadIDs(v any) ([]string, bool) {
	switch val := v.(type) {
	case nil:
		return nil, true
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, true
		}
		return []string{val}, true
	case []string:
		return val, true
	case []any:
		ids := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok || s == "" {
				return nil, false
			}
			ids = append(ids, s)
		}
		return ids, true
	}
	return nil, false
}
