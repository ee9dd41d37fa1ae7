// Package mailer delivers transactional email: login codes, password reset
// links and new-account notifications.
package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

// Mailer is what the services depend on, so tests can capture outgoing mail
// without an SMTP server.
type Mailer interface {
	SendLoginCode(to, name, code string) error
	SendPasswordReset(to, name, resetLink string) error
	SendAccountCreated(to, name, resetLink string) error
}

// SMTP sends mail through an SMTP relay using gomail.
type SMTP struct {
	dialer    *gomail.Dialer
	from      string
	templates *template.Template
}

func NewSMTP(host string, port int, username, password, from string) (*SMTP, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("mailer: parse templates: %w", err)
	}

	return &SMTP{
		dialer:    gomail.NewDialer(host, port, username, password),
		from:      from,
		templates: templates,
	}, nil
}

func (s *SMTP) SendLoginCode(to, name, code string) error {
	body, err := s.render("login_code.html", map[string]string{
		"Name": name,
		"Code": code,
	})
	if err != nil {
		return err
	}
	return s.send(to, "Your login verification code", body)
}

func (s *SMTP) SendPasswordReset(to, name, resetLink string) error {
	body, err := s.render("password_reset.html", map[string]string{
		"Name":      name,
		"ResetLink": resetLink,
	})
	if err != nil {
		return err
	}
	return s.send(to, "Password reset request", body)
}

func (s *SMTP) SendAccountCreated(to, name, resetLink string) error {
	body, err := s.render("account_created.html", map[string]string{
		"Name":      name,
		"ResetLink": resetLink,
	})
	if err != nil {
		return err
	}
	return s.send(to, "Your account has been created", body)
}

func (s *SMTP) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to, err)
	}
	return nil
}

func (s *SMTP) render(name string, data any) (string, error) {
	buf := new(bytes.Buffer)
	if err := s.templates.ExecuteTemplate(buf, name, data); err != nil {
		return "", fmt.Errorf("mailer: execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
