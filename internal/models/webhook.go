package models

import "time"

const EventSubmissionCreated = "submission.created"

type Webhook struct {
	ID        string    `json:"id"`
	FormID    string    `json:"formId"`
	URL       string    `json:"url"`
	Secret    string    `json:"secret,omitempty"`
	Active    bool      `json:"active"`
	Events    []string  `json:"events"`
	CreatedAt time.Time `json:"createdAt"`
}

// Subscribed reports whether the webhook listens for event.
func (w *Webhook) Subscribed(event string) bool {
	for _, e := range w.Events {
		if e == event {
			return true
		}
	}
	return false
}
