package models

import "io"

// Upload is a file received with a contact form, not yet stored
type Upload struct {
	Filename     string
	Size         int64
	DeclaredType string
	Open         func() (io.ReadCloser, error)
}

// ContactInput is a raw contact-form submission together with its provenance
type ContactInput struct {
	Name              string   `json:"name" validate:"required,min=2,max=100"`
	Email             string   `json:"email" validate:"required,max=254,mailaddr"`
	Phone             string   `json:"phone" validate:"omitempty,max=50"`
	Subject           string   `json:"subject" validate:"omitempty,min=2,max=200"`
	Message           string   `json:"message" validate:"required,min=10,max=2000"`
	Attachments       []Upload `json:"-" validate:"-"`
	SourceIP          string   `json:"-" validate:"-"`
	UserAgent         string   `json:"-" validate:"-"`
	VerificationToken string   `json:"-" validate:"-"`
}
