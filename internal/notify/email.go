package notify

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/parisxmas/OxiForms/internal/models"
)

type Message struct {
	To      []string
	Subject string
	Text    string
}

// Mailer is the transactional email collaborator.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ResendMailer sends mail through the Resend API.
type ResendMailer struct {
	client *resend.Client
	from   string
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey), from: from}
}

func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      msg.To,
		Subject: msg.Subject,
		Text:    msg.Text,
	}
	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

// EmailEnabled reports whether the form wants email notifications and has
// someone to send them to.
func EmailEnabled(form *models.Form) bool {
	en := form.Settings.EmailNotifications
	return en != nil && en.Enabled && len(en.Recipients) > 0
}

// EmailMessage builds the notification for one submission: a
// "label: value" line per answered field, in form order, with list values
// joined by ", ".
func EmailMessage(form *models.Form, sub *models.Submission) Message {
	en := form.Settings.EmailNotifications
	subject := "New submission: " + form.Name
	var to []string
	if en != nil {
		to = en.Recipients
		if en.Subject != "" {
			subject = en.Subject
		}
	}
	return Message{To: to, Subject: subject, Text: EmailBody(form, sub)}
}

func EmailBody(form *models.Form, sub *models.Submission) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New submission received for form: %s\n\n", form.Name)

	seen := make(map[string]bool, len(sub.Data))
	for _, f := range form.Fields {
		v, ok := sub.Data[f.ID]
		if !ok {
			continue
		}
		seen[f.ID] = true
		fmt.Fprintf(&b, "%s: %s\n", f.Label, emailValue(v))
	}

	// Keys without a field definition (the form changed since) keep their id.
	var rest []string
	for k := range sub.Data {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		fmt.Fprintf(&b, "%s: %s\n", k, emailValue(sub.Data[k]))
	}
	return b.String()
}

func emailValue(v any) string {
	switch s := v.(type) {
	case []string:
		return strings.Join(s, ", ")
	case []any:
		parts := make([]string, len(s))
		for i, item := range s {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ", ")
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}
