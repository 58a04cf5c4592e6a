// internal/services/mailer.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/b2b-marketplace/internal/config"
)

type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// NewMailer returns an SMTP mailer, or a logging mailer when SMTP is not
// configured.
func NewMailer(cfg config.EmailConfig) Mailer {
	if cfg.SMTPHost == "" {
		return &LogMailer{}
	}
	return &SMTPMailer{cfg: cfg}
}

type SMTPMailer struct {
	cfg config.EmailConfig
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	auth := smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)

	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		m.cfg.FromName, m.cfg.FromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", m.cfg.SMTPHost, m.cfg.SMTPPort)
	return smtp.SendMail(addr, auth, m.cfg.FromEmail, []string{to}, msg)
}

// LogMailer logs instead of sending and keeps the last messages.
type LogMailer struct {
	mu   sync.Mutex
	Sent []SentMail
}

type SentMail struct {
	To      string
	Subject string
	Body    string
}

func (m *LogMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	m.Sent = append(m.Sent, SentMail{To: to, Subject: subject, Body: body})
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email not configured, message logged only")
	return nil
}

func (m *LogMailer) Last() (SentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return SentMail{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}

type EmailTemplate struct {
	Subject string
	Body    string
}

var emailTemplates = map[string]EmailTemplate{
	"password_reset": {
		Subject: "Password Reset Request",
		Body: `<!DOCTYPE html>
<html>
<body>
  <p>Hello {{.Name}},</p>
  <p>We received a request to reset your password. The link below is valid for {{.ExpiresIn}}.</p>
  <p><a href="{{.ResetURL}}">Reset your password</a></p>
  <p>If you did not request this, you can ignore this email.</p>
</body>
</html>`,
	},
	"order_placed": {
		Subject: "New order {{.OrderNumber}}",
		Body: `<!DOCTYPE html>
<html>
<body>
  <p>Hello {{.Name}},</p>
  <p>Order <strong>{{.OrderNumber}}</strong> includes {{.ItemCount}} item(s) from your catalogue.</p>
  <p><a href="{{.OrderURL}}">View the order</a></p>
</body>
</html>`,
	},
}

func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
