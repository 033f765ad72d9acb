// Package notify fans a stored submission out to webhooks and email.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/parisxmas/OxiForms/internal/models"
)

// Dispatcher delivers submission notifications. Dispatch returns at once;
// deliveries run in the background and Wait drains them.
type Dispatcher struct {
	webhooks *WebhookSender
	mailer   Mailer // nil disables email
	log      logrus.FieldLogger
	timeout  time.Duration

	wg sync.WaitGroup
}

func NewDispatcher(webhooks *WebhookSender, mailer Mailer, log logrus.FieldLogger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{webhooks: webhooks, mailer: mailer, log: log, timeout: timeout}
}

// Dispatch schedules delivery of sub to every hook subscribed to
// submission.created and to the form's email recipients. Failures are
// logged and never reach the caller.
func (d *Dispatcher) Dispatch(form *models.Form, sub *models.Submission, hooks []models.Webhook) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.WithField("submission_id", sub.ID).Errorf("notification panic: %v", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.Deliver(ctx, form, sub, hooks); err != nil {
			d.log.WithFields(logrus.Fields{
				"form_id":       form.ID,
				"submission_id": sub.ID,
			}).Warnf("notification delivery failed: %v", err)
		}
	}()
}

// Deliver runs every sink concurrently and waits for all of them. The
// returned error aggregates each failed sink.
func (d *Dispatcher) Deliver(ctx context.Context, form *models.Form, sub *models.Submission, hooks []models.Webhook) error {
	var (
		mu     sync.Mutex
		result *multierror.Error
		wg     sync.WaitGroup
	)
	record := func(err error) {
		mu.Lock()
		result = multierror.Append(result, err)
		mu.Unlock()
	}

	payload := NewPayload(models.EventSubmissionCreated, form.ID, sub.Data, sub.CreatedAt)
	body, err := payload.Encode()
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	for i := range hooks {
		hook := &hooks[i]
		if !hook.Active || !hook.Subscribed(models.EventSubmissionCreated) {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry := d.log.WithFields(logrus.Fields{
				"form_id":       form.ID,
				"submission_id": sub.ID,
				"webhook_id":    hook.ID,
				"url":           hook.URL,
			})
			if err := d.webhooks.Send(ctx, hook, models.EventSubmissionCreated, body); err != nil {
				entry.WithField("status", "failed").Warn(err)
				record(err)
				return
			}
			entry.WithField("status", "delivered").Debug("webhook delivered")
		}()
	}

	if d.mailer != nil && EmailEnabled(form) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg := EmailMessage(form, sub)
			entry := d.log.WithFields(logrus.Fields{
				"form_id":       form.ID,
				"submission_id": sub.ID,
				"recipients":    len(msg.To),
			})
			if err := d.mailer.Send(ctx, msg); err != nil {
				entry.WithField("status", "failed").Warn(err)
				record(fmt.Errorf("email: %w", err))
				return
			}
			entry.WithField("status", "delivered").Debug("email sent")
		}()
	}

	wg.Wait()
	return result.ErrorOrNil()
}

// Wait blocks until every dispatched delivery has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
