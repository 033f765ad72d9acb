package models

import "time"

type EmailNotifications struct {
	Enabled    bool     `json:"enabled"`
	Recipients []string `json:"recipients,omitempty"`
	Subject    string   `json:"subject,omitempty"`
}

type Styling struct {
	PrimaryColor    string `json:"primaryColor,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	FontFamily      string `json:"fontFamily,omitempty"`
}

type FormSettings struct {
	SubmitButtonText   string              `json:"submitButtonText,omitempty"`
	SuccessMessage     string              `json:"successMessage,omitempty"`
	RedirectURL        string              `json:"redirectUrl,omitempty"`
	EmailNotifications *EmailNotifications `json:"emailNotifications,omitempty"`
	Styling            *Styling            `json:"styling,omitempty"`
}

// DefaultSettings are applied to every newly created form.
func DefaultSettings() FormSettings {
	return FormSettings{
		SubmitButtonText: "Submit",
		SuccessMessage:   "Thank you for your submission!",
	}
}

// Form is an ordered list of fields plus settings. Only published forms
// accept submissions.
type Form struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"ownerId"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Fields      []Field      `json:"fields"`
	Settings    FormSettings `json:"settings"`
	Published   bool         `json:"published"`
	ShareID     string       `json:"shareId"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// PublicForm is the unauthenticated view of a published form.
type PublicForm struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Fields      []Field      `json:"fields"`
	Settings    FormSettings `json:"settings"`
	Published   bool         `json:"published"`
}

func (f *Form) Public() PublicForm {
	return PublicForm{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		Fields:      f.Fields,
		Settings:    f.Settings,
		Published:   f.Published,
	}
}
