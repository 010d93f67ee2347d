package infra

import (
	"bytes"
	"fmt"
	"net/smtp"

	"tiendapos/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for receipts and account emails.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// Enabled is false when no SMTP host is configured; workers then log and skip.
func (m *Mailer) Enabled() bool { return m.host != "" }

// SendText sends a plain-text email.
func (m *Mailer) SendText(to, subject, body string) error {
	e := m.newEmail(to, subject, body)
	return e.Send(m.addr, m.auth())
}

// SendReceipt sends body with an in-memory PDF attached.
func (m *Mailer) SendReceipt(to, subject, body, filename string, pdf []byte) error {
	e := m.newEmail(to, subject, body)
	if len(pdf) > 0 {
		if _, err := e.Attach(bytes.NewReader(pdf), filename, "application/pdf"); err != nil {
			return fmt.Errorf("mailer: attach PDF: %w", err)
		}
	}
	return e.Send(m.addr, m.auth())
}

func (m *Mailer) newEmail(to, subject, body string) *email.Email {
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)
	return e
}

func (m *Mailer) auth() smtp.Auth {
	if m.user == "" {
		return nil
	}
	return smtp.PlainAuth("", m.user, m.password, m.host)
}
