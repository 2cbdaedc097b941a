package outbound

import "context"

type EmailMessage struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// Mailer renders and sends the account emails.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, name, token string) error
	SendEmailVerification(ctx context.Context, to, name, token string) error
}
