package services

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/welldanyogia/brochure-contact-backend/internal/models"
)

// NotificationMessage is one rendered admin notification
type NotificationMessage struct {
	Subject string
	Text    string
	HTML    string
}

const notificationText = `New contact form submission

Name:    {{.Name}}
Email:   {{.Email}}
{{- if .Phone}}
Phone:   {{.Phone}}
{{- end}}
Subject: {{.Subject}}
Received: {{.Received}}
{{- if .Attachments}}
Attachments: {{.Attachments}}
{{- end}}

{{.Message}}

Open in the admin console: {{.Link}}
`

const notificationHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>New contact form submission</h2>
  <table cellpadding="4">
    <tr><td><strong>Name</strong></td><td>{{.Name}}</td></tr>
    <tr><td><strong>Email</strong></td><td><a href="mailto:{{.Email}}">{{.Email}}</a></td></tr>
    {{- if .Phone}}
    <tr><td><strong>Phone</strong></td><td>{{.Phone}}</td></tr>
    {{- end}}
    <tr><td><strong>Subject</strong></td><td>{{.Subject}}</td></tr>
    <tr><td><strong>Received</strong></td><td>{{.Received}}</td></tr>
    {{- if .Attachments}}
    <tr><td><strong>Attachments</strong></td><td>{{.Attachments}}</td></tr>
    {{- end}}
  </table>
  <p style="white-space: pre-wrap;">{{.Message}}</p>
  <p><a href="{{.Link}}">View submission</a></p>
</body>
</html>
`

// NotificationRenderer renders admin notifications for new submissions
type NotificationRenderer struct {
	clientURL string
	location  *time.Location
	text      *texttemplate.Template
	html      *htmltemplate.Template
}

// NewNotificationRenderer parses the notification templates. Links point at
// clientURL; times are shown in loc (local time when nil).
func NewNotificationRenderer(clientURL string, loc *time.Location) *NotificationRenderer {
	if loc == nil {
		loc = time.Local
	}
	return &NotificationRenderer{
		clientURL: strings.TrimRight(clientURL, "/"),
		location:  loc,
		text:      texttemplate.Must(texttemplate.New("text").Parse(notificationText)),
		html:      htmltemplate.Must(htmltemplate.New("html").Parse(notificationHTML)),
	}
}

type notificationView struct {
	Name        string
	Email       string
	Phone       string
	Subject     string
	Message     string
	Received    string
	Attachments string
	Link        string
}

// Render builds the text and HTML bodies for submission
func (r *NotificationRenderer) Render(submission *models.Submission) (*NotificationMessage, error) {
	subject := submission.Subject
	if subject == "" {
		subject = "(no subject)"
	}

	names := make([]string, 0, len(submission.Attachments))
	for _, a := range submission.Attachments {
		names = append(names, a.Filename)
	}

	view := notificationView{
		Name:        submission.Name,
		Email:       submission.Email,
		Phone:       submission.Phone,
		Subject:     subject,
		Message:     submission.Message,
		Received:    submission.CreatedAt.In(r.location).Format("2006-01-02 15:04:05 MST"),
		Attachments: strings.Join(names, ", "),
		Link:        fmt.Sprintf("%s/admin/submissions/%d", r.clientURL, submission.ID),
	}

	var text, html bytes.Buffer
	if err := r.text.Execute(&text, view); err != nil {
		return nil, fmt.Errorf("failed to render text notification: %w", err)
	}
	if err := r.html.Execute(&html, view); err != nil {
		return nil, fmt.Errorf("failed to render html notification: %w", err)
	}

	return &NotificationMessage{
		Subject: fmt.Sprintf("New contact submission from %s: %s", submission.Name, subject),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
