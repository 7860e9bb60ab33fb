package service

import (
	"fmt"
	"net/smtp"

	"contentflow/internal/config"
	"contentflow/internal/middleware"
)

// Mailer sends transactional email over SMTP. When no SMTP host is
// configured it degrades to logging the message, which keeps local
// development working without a mail server.
type Mailer struct {
	host     string
	port     string
	from     string
	password string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		password: cfg.SMTPPassword,
	}
}

func (m *Mailer) Send(to, subject, body string) error {
	if m.host == "" {
		middleware.Logger.Info("smtp not configured, logging email instead",
			"to", to, "subject", subject, "body", body)
		return nil
	}

	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.from, to, subject, body))

	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	var auth smtp.Auth
	if m.password != "" {
		auth = smtp.PlainAuth("", m.from, m.password, m.host)
	}
	return smtp.SendMail(addr, auth, m.from, []string{to}, msg)
}
