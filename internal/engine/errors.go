package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRuleCycle is returned when conditional rules depend on each other.
	ErrRuleCycle = errors.New("conditional rule cycle")

	// ErrUnknownControl is returned when a rule names a field that is not
	// part of the form.
	ErrUnknownControl = errors.New("conditional rule references unknown field")

	// ErrInvalidField is returned for malformed field definitions.
	ErrInvalidField = errors.New("invalid field definition")
)

// Reason is the machine readable cause of a field violation.
type Reason string

const (
	ReasonMissing         Reason = "missing"
	ReasonWrongType       Reason = "wrong_type"
	ReasonTooLarge        Reason = "too_large"
	ReasonUnsupportedType Reason = "unsupported_type"
	ReasonInvalidOption   Reason = "invalid_option"
	ReasonOutOfRange      Reason = "out_of_range"
	ReasonPatternMismatch Reason = "pattern_mismatch"
)

type Violation struct {
	Field  string `json:"field"`
	Reason Reason `json:"reason"`
}

// ValidationError carries every violation found in one submission.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("%s: %s", v.Field, v.Reason)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
