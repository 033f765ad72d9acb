package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/parisxmas/OxiForms/internal/models"
)

type WebhookRepo struct {
	db *sql.DB
}

func NewWebhookRepo(db *sql.DB) *WebhookRepo {
	return &WebhookRepo{db: db}
}

const webhookColumns = `id, form_id, url, secret, active, events, created_at`

func (r *WebhookRepo) Create(ctx context.Context, w *models.Webhook) error {
	events := w.Events
	if events == nil {
		events = []string{}
	}
	encoded, err := toJSON(events)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO webhooks (`+webhookColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.FormID, w.URL, w.Secret, boolToInt(w.Active), encoded, formatTime(w.CreatedAt))
	return err
}

func (r *WebhookRepo) FindByID(ctx context.Context, formID, id string) (*models.Webhook, error) {
	return scanWebhook(r.db.QueryRowContext(ctx,
		`SELECT `+webhookColumns+` FROM webhooks WHERE id = ? AND form_id = ?`, id, formID))
}

// FindByForm lists a form's webhooks, newest first.
func (r *WebhookRepo) FindByForm(ctx context.Context, formID string) ([]models.Webhook, error) {
	return r.query(ctx, `SELECT `+webhookColumns+` FROM webhooks WHERE form_id = ? ORDER BY created_at DESC, id`, formID)
}

// FindActive returns the form's active webhooks subscribed to event.
func (r *WebhookRepo) FindActive(ctx context.Context, formID, event string) ([]models.Webhook, error) {
	all, err := r.query(ctx, `SELECT `+webhookColumns+` FROM webhooks WHERE form_id = ? AND active = 1 ORDER BY created_at, id`, formID)
	if err != nil {
		return nil, err
	}
	hooks := all[:0]
	for _, h := range all {
		if h.Subscribed(event) {
			hooks = append(hooks, h)
		}
	}
	return hooks, nil
}

func (r *WebhookRepo) SetActive(ctx context.Context, formID, id string, active bool) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE webhooks SET active = ? WHERE id = ? AND form_id = ?`, boolToInt(active), id, formID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *WebhookRepo) Delete(ctx context.Context, formID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM webhooks WHERE id = ? AND form_id = ?`, id, formID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *WebhookRepo) query(ctx context.Context, q string, args ...any) ([]models.Webhook, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hooks := make([]models.Webhook, 0)
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, *w)
	}
	return hooks, rows.Err()
}

func scanWebhook(row scanner) (*models.Webhook, error) {
	var (
		w               models.Webhook
		active          int
		events, created string
	)
	err := row.Scan(&w.ID, &w.FormID, &w.URL, &w.Secret, &active, &events, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	w.Active = active != 0
	if err := fromJSON(events, &w.Events, "webhook events"); err != nil {
		return nil, err
	}
	if w.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &w, nil
}
