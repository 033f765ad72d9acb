package engine

import "github.com/parisxmas/OxiForms/internal/models"

// fieldResult is the outcome of checking one visible field.
type fieldResult struct {
	value     any
	present   bool
	violation *Violation
}

func answerFor(f *models.Field, answers Answers, files Files) any {
	if f.Type == models.FieldFile {
		if refs, ok := files[f.ID]; ok {
			return refs
		}
		return nil
	}
	return answers[f.ID]
}

func checkField(f *models.Field, answers Answers, files Files) fieldResult {
	k, ok := kinds[f.Type]
	if !ok || !k.answerable {
		return fieldResult{}
	}

	missing := func() fieldResult {
		if f.Required {
			return fieldResult{violation: &Violation{Field: f.ID, Reason: ReasonMissing}}
		}
		return fieldResult{}
	}

	raw := answerFor(f, answers, files)
	if isEmpty(raw) {
		return missing()
	}
	value, reason := k.check(f, raw)
	if reason != "" {
		return fieldResult{violation: &Violation{Field: f.ID, Reason: reason}}
	}
	// A lone checkbox sent as "false" only becomes empty once normalized.
	if isEmpty(value) {
		return missing()
	}
	return fieldResult{value: value, present: true}
}

// Validate checks the answers of the visible fields. Fields outside the
// visible set are never looked at. Every offending field yields exactly one
// violation, in field order.
func Validate(visible []models.Field, answers Answers, files Files) []Violation {
	var violations []Violation
	for i := range visible {
		if r := checkField(&visible[i], answers, files); r.violation != nil {
			violations = append(violations, *r.violation)
		}
	}
	return violations
}
