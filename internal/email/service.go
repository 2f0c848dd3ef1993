// Package email renders HTML templates and hands them to the SMTP relay.
package email

import (
	"bytes"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"innovatefund/internal/config"
)

type Service struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

func NewService(cfg config.EmailConfig) *Service {
	return &Service{
		dialer:   gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
		from:     cfg.FromEmail,
		fromName: cfg.FromName,
	}
}

// SendTemplate renders the named template with data and sends it. Template
// names: "notification", "welcome".
func (s *Service) SendTemplate(to, subject, template string, data map[string]any) error {
	body, err := Render(template, data)
	if err != nil {
		return fmt.Errorf("failed to render %q template: %w", template, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.from, s.fromName))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// Render is split out so templates are testable without an SMTP server.
func Render(name string, data map[string]any) (string, error) {
	tmpl := templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("unknown email template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
