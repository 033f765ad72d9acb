package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/parisxmas/OxiForms/internal/models"
)

type WebhookService struct {
	forms FormStore
	hooks WebhookStore
}

func NewWebhookService(forms FormStore, hooks WebhookStore) *WebhookService {
	return &WebhookService{forms: forms, hooks: hooks}
}

func (s *WebhookService) List(ctx context.Context, ownerID, formID string) ([]models.Webhook, error) {
	if _, err := ownedForm(ctx, s.forms, ownerID, formID); err != nil {
		return nil, err
	}
	return s.hooks.FindByForm(ctx, formID)
}

// Create registers an endpoint with a fresh signing secret. Without events
// it subscribes to submission.created.
func (s *WebhookService) Create(ctx context.Context, ownerID, formID, rawURL string, events []string) (*models.Webhook, error) {
	if _, err := ownedForm(ctx, s.forms, ownerID, formID); err != nil {
		return nil, err
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: webhook url must be an absolute http(s) URL", ErrInvalidInput)
	}
	if len(events) == 0 {
		events = []string{models.EventSubmissionCreated}
	}
	secret, err := newSecret()
	if err != nil {
		return nil, err
	}

	hook := &models.Webhook{
		ID:        uuid.New().String(),
		FormID:    formID,
		URL:       u.String(),
		Secret:    secret,
		Active:    true,
		Events:    events,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.hooks.Create(ctx, hook); err != nil {
		return nil, fmt.Errorf("create webhook: %w", err)
	}
	return hook, nil
}

func (s *WebhookService) SetActive(ctx context.Context, ownerID, formID, hookID string, active bool) (*models.Webhook, error) {
	if _, err := ownedForm(ctx, s.forms, ownerID, formID); err != nil {
		return nil, err
	}
	ok, err := s.hooks.SetActive(ctx, formID, hookID, active)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return s.hooks.FindByID(ctx, formID, hookID)
}

func (s *WebhookService) Delete(ctx context.Context, ownerID, formID, hookID string) error {
	if _, err := ownedForm(ctx, s.forms, ownerID, formID); err != nil {
		return err
	}
	ok, err := s.hooks.Delete(ctx, formID, hookID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// newSecret returns 32 random bytes, hex encoded.
func newSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
