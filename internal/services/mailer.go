package services

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	applog "roomfit/internal/log"
)

// Mailer delivers password reset links.
type Mailer interface {
	SendResetLink(ctx context.Context, to, link string) error
}

// LogMailer writes the link to the audit log instead of sending mail.
type LogMailer struct{}

func (LogMailer) SendResetLink(_ context.Context, to, link string) error {
	applog.Event("auth.reset_link", map[string]any{"to": to, "link": link})
	return nil
}

type SMTPMailer struct {
	From   string
	dialer *gomail.Dialer
}

func NewSMTPMailer(host string, port int, user, pass, from string) *SMTPMailer {
	return &SMTPMailer{From: from, dialer: gomail.NewDialer(host, port, user, pass)}
}

func (m *SMTPMailer) SendResetLink(_ context.Context, to, link string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Reset your password")
	msg.SetBody("text/plain", fmt.Sprintf("Open this link on your device to choose a new password:\n\n%s\n", link))
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}
