package engine

import (
	"time"

	"github.com/parisxmas/OxiForms/internal/models"
)

// Metadata describes the request a submission arrived with.
type Metadata struct {
	SubmittedAt time.Time
	UserAgent   string
	IP          string
}

// Record is a validated, normalized submission ready to be persisted.
type Record struct {
	Data     map[string]any
	Metadata Metadata
}

// Assemble merges the answers of the visible fields and their resolved file
// references into one flat mapping keyed by field id. Only answerable
// fields with a non-empty, valid answer appear. Multi-value answers stay
// ordered lists and files become lists of URLs.
func Assemble(visible []models.Field, answers Answers, files Files, meta Metadata) Record {
	data := make(map[string]any, len(visible))
	for i := range visible {
		r := checkField(&visible[i], answers, files)
		if r.present {
			data[visible[i].ID] = r.value
		}
	}
	if meta.SubmittedAt.IsZero() {
		meta.SubmittedAt = time.Now().UTC()
	}
	return Record{Data: data, Metadata: meta}
}

// Evaluate runs visibility, validation and assembly for one submission.
// It returns a *ValidationError listing every violation when the answers
// are rejected.
func Evaluate(fields []models.Field, answers Answers, files Files, meta Metadata) (Record, error) {
	visible, err := Visible(fields, answers)
	if err != nil {
		return Record{}, err
	}
	if violations := Validate(visible, answers, files); len(violations) > 0 {
		return Record{}, &ValidationError{Violations: violations}
	}
	return Assemble(visible, answers, files, meta), nil
}
