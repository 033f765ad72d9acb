package service

import (
	"sort"

	"github.com/google/uuid"

	"github.com/parisxmas/OxiForms/internal/models"
)

// Template is a built-in starting point for a new form.
type Template struct {
	Key         string         `json:"key"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Fields      []models.Field `json:"fields"`
}

func opts(values ...string) []models.Option {
	out := make([]models.Option, len(values))
	for i, v := range values {
		out[i] = models.Option{Label: v, Value: v}
	}
	return out
}

var templates = map[string]Template{
	"blank": {
		Key:         "blank",
		Name:        "Blank Form",
		Description: "Start from scratch",
	},
	"contact": {
		Key:         "contact",
		Name:        "Contact Form",
		Description: "Collect contact information from visitors",
		Fields: []models.Field{
			{Type: models.FieldText, Label: "Full Name", Placeholder: "Enter your name", Required: true},
			{Type: models.FieldEmail, Label: "Email Address", Placeholder: "your@email.com", Required: true},
			{Type: models.FieldText, Label: "Phone Number", Placeholder: "+1 (555) 000-0000"},
			{Type: models.FieldText, Label: "Subject", Placeholder: "What is this about?", Required: true},
			{Type: models.FieldTextarea, Label: "Message", Placeholder: "Tell us more...", Required: true},
		},
	},
	"survey": {
		Key:         "survey",
		Name:        "Survey",
		Description: "Gather opinions and feedback with structured questions",
		Fields: []models.Field{
			{Type: models.FieldText, Label: "Your Name", Placeholder: "Optional"},
			{Type: models.FieldSelect, Label: "How did you hear about us?", Required: true,
				Options: opts("Social Media", "Search Engine", "Friend/Referral", "Advertisement", "Other")},
			{Type: models.FieldSelect, Label: "Overall Satisfaction", Required: true,
				Options: opts("Very Satisfied", "Satisfied", "Neutral", "Dissatisfied", "Very Dissatisfied")},
			{Type: models.FieldSelect, Label: "How likely are you to recommend us?", Required: true,
				Options: opts("Very Likely", "Likely", "Neutral", "Unlikely", "Very Unlikely")},
			{Type: models.FieldTextarea, Label: "Additional Comments", Placeholder: "Share your thoughts..."},
		},
	},
	"feedback": {
		Key:         "feedback",
		Name:        "Feedback Form",
		Description: "Collect product or service feedback",
		Fields: []models.Field{
			{Type: models.FieldEmail, Label: "Email", Placeholder: "your@email.com"},
			{Type: models.FieldSelect, Label: "Rating", Required: true,
				Options: opts("1 Star", "2 Stars", "3 Stars", "4 Stars", "5 Stars")},
			{Type: models.FieldSelect, Label: "Category", Required: true,
				Options: opts("Product Quality", "Customer Service", "Website Experience", "Pricing", "Other")},
			{Type: models.FieldTextarea, Label: "What did you like?", Placeholder: "Tell us what went well..."},
			{Type: models.FieldTextarea, Label: "What could be improved?", Placeholder: "Help us get better..."},
			{Type: models.FieldCheckbox, Label: "I would like a follow-up response"},
		},
	},
	"registration": {
		Key:         "registration",
		Name:        "Registration Form",
		Description: "Event or account registration",
		Fields: []models.Field{
			{Type: models.FieldText, Label: "First Name", Placeholder: "First name", Required: true},
			{Type: models.FieldText, Label: "Last Name", Placeholder: "Last name", Required: true},
			{Type: models.FieldEmail, Label: "Email Address", Placeholder: "your@email.com", Required: true},
			{Type: models.FieldText, Label: "Phone Number", Placeholder: "+1 (555) 000-0000"},
			{Type: models.FieldText, Label: "Organization", Placeholder: "Company or organization"},
			{Type: models.FieldSelect, Label: "Role",
				Options: opts("Student", "Professional", "Manager", "Executive", "Other")},
			{Type: models.FieldDate, Label: "Date of Birth"},
			{Type: models.FieldCheckbox, Label: "I agree to the terms and conditions", Required: true},
		},
	},
	"order": {
		Key:         "order",
		Name:        "Order Form",
		Description: "Collect orders and purchase information",
		Fields: []models.Field{
			{Type: models.FieldText, Label: "Full Name", Placeholder: "Your full name", Required: true},
			{Type: models.FieldEmail, Label: "Email Address", Placeholder: "your@email.com", Required: true},
			{Type: models.FieldText, Label: "Phone Number", Placeholder: "+1 (555) 000-0000", Required: true},
			{Type: models.FieldSelect, Label: "Product", Required: true,
				Options: opts("Basic Plan", "Standard Plan", "Premium Plan", "Enterprise Plan")},
			{Type: models.FieldNumber, Label: "Quantity", Placeholder: "1", Required: true},
			{Type: models.FieldText, Label: "Shipping Address", Placeholder: "123 Main St, City, State, ZIP", Required: true},
			{Type: models.FieldTextarea, Label: "Special Instructions", Placeholder: "Any special requests?"},
		},
	},
}

// Templates lists the built-in templates ordered by key.
func Templates() []Template {
	out := make([]Template, 0, len(templates))
	for _, t := range templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// TemplateFields returns fresh copies of a template's fields, each with a
// new id.
func TemplateFields(key string) (Template, []models.Field, bool) {
	t, ok := templates[key]
	if !ok {
		return Template{}, nil, false
	}
	fields := make([]models.Field, len(t.Fields))
	for i, f := range t.Fields {
		f.ID = uuid.New().String()
		f.Options = append([]models.Option(nil), f.Options...)
		fields[i] = f
	}
	return t, fields, true
}
