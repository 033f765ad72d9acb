package models

import "time"

// Document is an uploaded file waiting to be referenced by a submission.
type Document struct {
	ID          string    `json:"id"`
	FormID      string    `json:"formId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	StorageKey  string    `json:"-"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"createdAt"`
}
