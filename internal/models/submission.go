package models

import "time"

type SubmissionMetadata struct {
	UserAgent string `json:"userAgent,omitempty"`
	IP        string `json:"ip,omitempty"`
}

// Submission is one respondent's answer set. It is never modified after
// creation, only deleted.
type Submission struct {
	ID        string             `json:"id"`
	FormID    string             `json:"formId"`
	Data      map[string]any     `json:"data"`
	Metadata  SubmissionMetadata `json:"metadata"`
	CreatedAt time.Time          `json:"createdAt"`
}
