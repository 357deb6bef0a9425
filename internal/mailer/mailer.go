// Package mailer sends transactional email over SMTP. When no host is
// configured it degrades to a no-op so local development never needs a relay.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
)

// Mailer sends account email.
type Mailer interface {
	SendVerification(to, username, token string) error
	SendPasswordReset(to, username, token string) error
	SendLimitReminder(to, username string, totalMinutes float64, limitMinutes int) error
}

type smtpMailer struct {
	host        string
	port        int
	username    string
	password    string
	from        string
	frontendURL string
	logger      zerolog.Logger
}

// New builds a Mailer. An empty host returns a no-op implementation.
func New(host string, port int, username, password, from, frontendURL string, logger zerolog.Logger) Mailer {
	if host == "" {
		logger.Warn().Msg("SMTP host not configured, email delivery disabled")
		return &nopMailer{logger: logger}
	}
	return &smtpMailer{
		host:        host,
		port:        port,
		username:    username,
		password:    password,
		from:        from,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

func (m *smtpMailer) send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	m.logger.Debug().Str("to", to).Str("subject", subject).Msg("email sent")
	return nil
}

func (m *smtpMailer) SendVerification(to, username, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", m.frontendURL, token)
	body := fmt.Sprintf("Hi %s,\n\nConfirm your email address by opening the link below:\n\n%s\n\nIf you did not create an account, ignore this message.\n", username, link)
	return m.send(to, "Verify your email", body)
}

func (m *smtpMailer) SendPasswordReset(to, username, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.frontendURL, token)
	body := fmt.Sprintf("Hi %s,\n\nReset your password by opening the link below. The link expires in one hour.\n\n%s\n\nIf you did not request a reset, ignore this message.\n", username, link)
	return m.send(to, "Reset your password", body)
}

func (m *smtpMailer) SendLimitReminder(to, username string, totalMinutes float64, limitMinutes int) error {
	body := fmt.Sprintf("Hi %s,\n\nYou have used %.0f of your %d minute daily screen time budget today.\n", username, totalMinutes, limitMinutes)
	return m.send(to, "Screen time reminder", body)
}

type nopMailer struct {
	logger zerolog.Logger
}

func (m *nopMailer) SendVerification(to, _, _ string) error {
	m.logger.Debug().Str("to", to).Msg("skipping verification email, mailer disabled")
	return nil
}

func (m *nopMailer) SendPasswordReset(to, _, _ string) error {
	m.logger.Debug().Str("to", to).Msg("skipping reset email, mailer disabled")
	return nil
}

func (m *nopMailer) SendLimitReminder(to, _ string, _ float64, _ int) error {
	m.logger.Debug().Str("to", to).Msg("skipping reminder email, mailer disabled")
	return nil
}
