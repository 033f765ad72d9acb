package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/parisxmas/OxiForms/internal/models"
)

const (
	SignatureHeader = "X-Webhook-Signature"
	EventHeader     = "X-Webhook-Event"

	// timestampLayout is ISO-8601 in UTC with millisecond precision.
	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// Payload is the body POSTed to webhook endpoints. Field order is part of
// the wire format.
type Payload struct {
	Event     string         `json:"event"`
	FormID    string         `json:"formId"`
	Data      map[string]any `json:"data"`
	Timestamp string         `json:"timestamp"`
}

func NewPayload(event, formID string, data map[string]any, at time.Time) Payload {
	if data == nil {
		data = map[string]any{}
	}
	return Payload{
		Event:     event,
		FormID:    formID,
		Data:      data,
		Timestamp: at.UTC().Format(timestampLayout),
	}
}

// Encode serializes the payload without HTML escaping and without a
// trailing newline. The signature covers exactly these bytes.
func (p Payload) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Sign returns hex(HMAC-SHA256(secret, body)).
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature in constant time.
func Verify(secret string, body []byte, signature string) bool {
	want, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}

// WebhookSender POSTs payloads to webhook endpoints.
type WebhookSender struct {
	client *http.Client
}

func NewWebhookSender(timeout time.Duration) *WebhookSender {
	return &WebhookSender{client: &http.Client{Timeout: timeout}}
}

// Send delivers body to the webhook, signing it when the webhook has a
// secret. Any non-2xx answer is an error.
func (s *WebhookSender) Send(ctx context.Context, hook *models.Webhook, event string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook %s: build request: %w", hook.ID, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "OxiForms-Webhook/1.0")
	req.Header.Set(EventHeader, event)
	if hook.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(hook.Secret, body))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", hook.ID, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook %s: unexpected status %d", hook.ID, resp.StatusCode)
	}
	return nil
}
