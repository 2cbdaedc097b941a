package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	texttemplate "text/template"

	"github.com/chtmcooks/auth-service/application/port/outbound"
)

//go:embed templates/*
var templatesFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templatesFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templatesFS, "templates/*.txt"))
)

const (
	passwordResetSubject     = "Password Reset Request"
	emailVerificationSubject = "Verify Your Email"
)

type templateData struct {
	AppName   string
	Name      string
	Link      string
	ExpiresIn string
}

// Mailer renders account emails and hands them to a Sender.
type Mailer struct {
	sender  outbound.EmailSender
	appURL  string
	appName string
}

func NewMailer(sender outbound.EmailSender, appURL, appName string) *Mailer {
	return &Mailer{sender: sender, appURL: appURL, appName: appName}
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to, name, token string) error {
	return m.send(ctx, to, m.appName+" - "+passwordResetSubject, "password_reset", templateData{
		AppName:   m.appName,
		Name:      name,
		Link:      m.link("/reset-password", token),
		ExpiresIn: "30 minutes",
	})
}

func (m *Mailer) SendEmailVerification(ctx context.Context, to, name, token string) error {
	return m.send(ctx, to, emailVerificationSubject+" - "+m.appName, "email_verification", templateData{
		AppName:   m.appName,
		Name:      name,
		Link:      m.link("/verify-email", token),
		ExpiresIn: "24 hours",
	})
}

func (m *Mailer) link(path, token string) string {
	return m.appURL + path + "?token=" + url.QueryEscape(token)
}

func (m *Mailer) send(ctx context.Context, to, subject, name string, data templateData) error {
	var html, text bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html", data); err != nil {
		return fmt.Errorf("render %s html: %w", name, err)
	}
	if err := textTemplates.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return fmt.Errorf("render %s text: %w", name, err)
	}

	return m.sender.Send(ctx, outbound.EmailMessage{
		To:      to,
		Subject: subject,
		HTML:    html.String(),
		Text:    text.String(),
	})
}
