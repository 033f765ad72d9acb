package models

// FieldType is the closed set of field kinds a form can contain.
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldEmail     FieldType = "email"
	FieldNumber    FieldType = "number"
	FieldTextarea  FieldType = "textarea"
	FieldSelect    FieldType = "select"
	FieldCheckbox  FieldType = "checkbox"
	FieldRadio     FieldType = "radio"
	FieldDate      FieldType = "date"
	FieldFile      FieldType = "file"
	FieldHeading   FieldType = "heading"
	FieldParagraph FieldType = "paragraph"
)

var fieldTypes = []FieldType{
	FieldText, FieldEmail, FieldNumber, FieldTextarea, FieldSelect,
	FieldCheckbox, FieldRadio, FieldDate, FieldFile, FieldHeading, FieldParagraph,
}

// FieldTypes returns every known field type in palette order.
func FieldTypes() []FieldType {
	out := make([]FieldType, len(fieldTypes))
	copy(out, fieldTypes)
	return out
}

func (t FieldType) Valid() bool {
	for _, ft := range fieldTypes {
		if ft == t {
			return true
		}
	}
	return false
}

// Operator compares the controlling field's answer with a rule value.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
)

func (o Operator) Valid() bool {
	switch o {
	case OpEquals, OpNotEquals, OpContains, OpGreaterThan, OpLessThan:
		return true
	}
	return false
}

// Action says what a satisfied rule does to the field.
type Action string

const (
	ActionShow Action = "show"
	ActionHide Action = "hide"
)

func (a Action) Valid() bool {
	return a == ActionShow || a == ActionHide
}

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Validation struct {
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Pattern string   `json:"pattern,omitempty"`
}

// ConditionalRule controls whether a field is shown, based on the current
// answer of another field in the same form.
type ConditionalRule struct {
	FieldID  string   `json:"fieldId"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
	Action   Action   `json:"action"`
}

// Field is one question or static element of a form.
type Field struct {
	ID          string           `json:"id"`
	Type        FieldType        `json:"type"`
	Label       string           `json:"label"`
	Placeholder string           `json:"placeholder,omitempty"`
	Required    bool             `json:"required,omitempty"`
	Options     []Option         `json:"options,omitempty"`
	Validation  *Validation      `json:"validation,omitempty"`
	Conditional *ConditionalRule `json:"conditional,omitempty"`
	Accept      string           `json:"accept,omitempty"`  // file fields only, e.g. ".pdf,image/*"
	MaxSize     int64            `json:"maxSize,omitempty"` // bytes, file fields only
}

// HasOption reports whether v is one of the declared option values.
func (f *Field) HasOption(v string) bool {
	for _, o := range f.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}
