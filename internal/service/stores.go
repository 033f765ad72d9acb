package service

import (
	"context"
	"time"

	"github.com/parisxmas/OxiForms/internal/models"
)

// The store interfaces are satisfied by the repository package. Lookups
// return (nil, nil) when nothing matches.

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type FormStore interface {
	Create(ctx context.Context, f *models.Form) error
	FindByID(ctx context.Context, id string) (*models.Form, error)
	FindByShareID(ctx context.Context, shareID string) (*models.Form, error)
	FindByOwner(ctx context.Context, ownerID string) ([]models.Form, error)
	Update(ctx context.Context, f *models.Form) error
	Delete(ctx context.Context, id string) error
	CountByOwner(ctx context.Context, ownerID string) (total, published int, err error)
}

type SubmissionStore interface {
	Create(ctx context.Context, s *models.Submission) error
	FindByID(ctx context.Context, formID, id string) (*models.Submission, error)
	FindByForm(ctx context.Context, formID, query string, skip, limit int) ([]models.Submission, int, error)
	FindAllByForm(ctx context.Context, formID string) ([]models.Submission, error)
	FindSince(ctx context.Context, formID string, since time.Time) ([]models.Submission, error)
	Delete(ctx context.Context, formID, id string) (bool, error)
	DeleteMany(ctx context.Context, formID string, ids []string) (int, error)
	CountByForm(ctx context.Context, formID string) (int, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	CountsByForm(ctx context.Context, ownerID string) (map[string]int, error)
}

type WebhookStore interface {
	Create(ctx context.Context, w *models.Webhook) error
	FindByID(ctx context.Context, formID, id string) (*models.Webhook, error)
	FindByForm(ctx context.Context, formID string) ([]models.Webhook, error)
	FindActive(ctx context.Context, formID, event string) ([]models.Webhook, error)
	SetActive(ctx context.Context, formID, id string, active bool) (bool, error)
	Delete(ctx context.Context, formID, id string) (bool, error)
}

type DocumentStore interface {
	Create(ctx context.Context, d *models.Document) error
	FindByID(ctx context.Context, formID, id string) (*models.Document, error)
	Delete(ctx context.Context, formID, id string) (bool, error)
}

// Notifier hands a stored submission to the notification sinks without
// waiting for delivery.
type Notifier interface {
	Dispatch(form *models.Form, sub *models.Submission, hooks []models.Webhook)
}

// ownedForm loads a form and checks that ownerID owns it.
func ownedForm(ctx context.Context, forms FormStore, ownerID, formID string) (*models.Form, error) {
	form, err := forms.FindByID(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, ErrNotFound
	}
	if form.OwnerID != ownerID {
		return nil, ErrUnauthorizedOwner
	}
	return form, nil
}
