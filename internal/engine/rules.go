package engine

import (
	"fmt"
	"strings"

	"github.com/parisxmas/OxiForms/internal/models"
)

// CheckRules validates a form's field definitions: unique ids, known types,
// options for choice fields, compilable patterns, and conditional rules that
// point at another field of the same form without forming a cycle.
func CheckRules(fields []models.Field) error {
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		if f.ID == "" {
			return fmt.Errorf("%w: field %d has no id", ErrInvalidField, i)
		}
		if _, dup := index[f.ID]; dup {
			return fmt.Errorf("%w: duplicate field id %q", ErrInvalidField, f.ID)
		}
		index[f.ID] = i

		if !f.Type.Valid() {
			return fmt.Errorf("%w: field %q has unknown type %q", ErrInvalidField, f.ID, f.Type)
		}
		if (f.Type == models.FieldSelect || f.Type == models.FieldRadio) && len(f.Options) == 0 {
			return fmt.Errorf("%w: field %q needs at least one option", ErrInvalidField, f.ID)
		}
		if f.Validation != nil && f.Validation.Pattern != "" {
			if _, err := compilePattern(f.Validation.Pattern); err != nil {
				return fmt.Errorf("%w: field %q has a bad pattern: %v", ErrInvalidField, f.ID, err)
			}
		}
		if rule := f.Conditional; rule != nil {
			if !rule.Operator.Valid() {
				return fmt.Errorf("%w: field %q has unknown operator %q", ErrInvalidField, f.ID, rule.Operator)
			}
			if !rule.Action.Valid() {
				return fmt.Errorf("%w: field %q has unknown action %q", ErrInvalidField, f.ID, rule.Action)
			}
		}
	}

	for _, f := range fields {
		if f.Conditional == nil {
			continue
		}
		if _, ok := index[f.Conditional.FieldID]; !ok {
			return fmt.Errorf("%w: %q depends on %q", ErrUnknownControl, f.ID, f.Conditional.FieldID)
		}
	}

	// Every field has at most one controller, so following the chain from
	// each field either terminates or revisits a field on the same chain.
	done := make(map[string]bool, len(fields))
	for _, f := range fields {
		var path []string
		onPath := map[string]bool{}
		id := f.ID
		for !done[id] {
			if onPath[id] {
				return fmt.Errorf("%w: %s", ErrRuleCycle, strings.Join(append(path, id), " -> "))
			}
			onPath[id] = true
			path = append(path, id)
			rule := fields[index[id]].Conditional
			if rule == nil {
				break
			}
			id = rule.FieldID
		}
		for _, p := range path {
			done[p] = true
		}
	}
	return nil
}
