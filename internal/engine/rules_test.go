package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parisxmas/OxiForms/internal/models"
)

func TestCheckRules(t *testing.T) {
	show := func(field string) *models.ConditionalRule {
		return rule(field, models.OpEquals, "x", models.ActionShow)
	}

	tests := []struct {
		name    string
		fields  []models.Field
		wantErr error
		msg     string
	}{
		{
			name:   "valid chain",
			fields: []models.Field{{ID: "a", Type: models.FieldText}, {ID: "b", Type: models.FieldText, Conditional: show("a")}, {ID: "c", Type: models.FieldText, Conditional: show("b")}},
		},
		{
			name:    "missing id",
			fields:  []models.Field{{Type: models.FieldText}},
			wantErr: ErrInvalidField,
		},
		{
			name:    "duplicate id",
			fields:  []models.Field{{ID: "a", Type: models.FieldText}, {ID: "a", Type: models.FieldEmail}},
			wantErr: ErrInvalidField,
			msg:     "duplicate",
		},
		{
			name:    "unknown type",
			fields:  []models.Field{{ID: "a", Type: "slider"}},
			wantErr: ErrInvalidField,
		},
		{
			name:    "select without options",
			fields:  []models.Field{{ID: "a", Type: models.FieldSelect}},
			wantErr: ErrInvalidField,
		},
		{
			name:    "bad pattern",
			fields:  []models.Field{{ID: "a", Type: models.FieldText, Validation: &models.Validation{Pattern: "("}}},
			wantErr: ErrInvalidField,
		},
		{
			name:    "bad operator",
			fields:  []models.Field{{ID: "a", Type: models.FieldText}, {ID: "b", Type: models.FieldText, Conditional: rule("a", "like", "x", models.ActionShow)}},
			wantErr: ErrInvalidField,
		},
		{
			name:    "bad action",
			fields:  []models.Field{{ID: "a", Type: models.FieldText}, {ID: "b", Type: models.FieldText, Conditional: rule("a", models.OpEquals, "x", "toggle")}},
			wantErr: ErrInvalidField,
		},
		{
			name:    "dangling controller",
			fields:  []models.Field{{ID: "a", Type: models.FieldText, Conditional: show("zz")}},
			wantErr: ErrUnknownControl,
		},
		{
			name:    "self reference",
			fields:  []models.Field{{ID: "a", Type: models.FieldText, Conditional: show("a")}},
			wantErr: ErrRuleCycle,
			msg:     "a -> a",
		},
		{
			name: "three field cycle",
			fields: []models.Field{
				{ID: "root", Type: models.FieldText},
				{ID: "a", Type: models.FieldText, Conditional: show("c")},
				{ID: "b", Type: models.FieldText, Conditional: show("a")},
				{ID: "c", Type: models.FieldText, Conditional: show("b")},
			},
			wantErr: ErrRuleCycle,
			msg:     "a -> c -> b -> a",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRules(tt.fields)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestEveryFieldTypeIsRegistered(t *testing.T) {
	for _, ft := range models.FieldTypes() {
		_, ok := kinds[ft]
		assert.True(t, ok, "field type %q has no validation entry", ft)
	}
	assert.False(t, Answerable(models.FieldHeading))
	assert.True(t, Answerable(models.FieldFile))
}
