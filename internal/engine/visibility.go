package engine

import (
	"fmt"
	"strings"

	"github.com/parisxmas/OxiForms/internal/models"
)

type visState uint8

const (
	stateUnknown visState = iota
	stateVisiting
	stateVisible
	stateHidden
)

// Visible returns the fields that should be displayed for the current,
// possibly partial, answers, in their original order. A field whose
// controlling field is hidden is hidden as well. The result depends only
// on the arguments.
func Visible(fields []models.Field, answers Answers) ([]models.Field, error) {
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		index[f.ID] = i
	}
	states := make([]visState, len(fields))

	var visit func(i int) (bool, error)
	visit = func(i int) (bool, error) {
		switch states[i] {
		case stateVisible:
			return true, nil
		case stateHidden:
			return false, nil
		case stateVisiting:
			return false, fmt.Errorf("%w: at %q", ErrRuleCycle, fields[i].ID)
		}

		rule := fields[i].Conditional
		if rule == nil {
			states[i] = stateVisible
			return true, nil
		}
		j, ok := index[rule.FieldID]
		if !ok {
			return false, fmt.Errorf("%w: %q depends on %q", ErrUnknownControl, fields[i].ID, rule.FieldID)
		}

		states[i] = stateVisiting
		controllerVisible, err := visit(j)
		if err != nil {
			return false, err
		}

		met := ConditionMet(rule, answers[rule.FieldID])
		shown := met
		if rule.Action == models.ActionHide {
			shown = !met
		}
		shown = shown && controllerVisible

		if shown {
			states[i] = stateVisible
		} else {
			states[i] = stateHidden
		}
		return shown, nil
	}

	visible := make([]models.Field, 0, len(fields))
	for i := range fields {
		shown, err := visit(i)
		if err != nil {
			return nil, err
		}
		if shown {
			visible = append(visible, fields[i])
		}
	}
	return visible, nil
}

// ConditionMet evaluates one rule against the controlling field's answer.
// A missing answer is treated as the empty string.
func ConditionMet(rule *models.ConditionalRule, answer any) bool {
	switch rule.Operator {
	case models.OpEquals:
		return strictEquals(answer, rule.Value)
	case models.OpNotEquals:
		return !strictEquals(answer, rule.Value)
	case models.OpContains:
		return strings.Contains(stringify(answer), rule.Value)
	case models.OpGreaterThan:
		a, okA := toNumber(answer)
		b, okB := toNumber(rule.Value)
		return okA && okB && a > b
	case models.OpLessThan:
		a, okA := toNumber(answer)
		b, okB := toNumber(rule.Value)
		return okA && okB && a < b
	}
	return false
}

// strictEquals compares without coercion: only a string answer can equal
// the rule's string value.
func strictEquals(answer any, value string) bool {
	if answer == nil {
		return value == ""
	}
	s, ok := answer.(string)
	return ok && s == value
}
