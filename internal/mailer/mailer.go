package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/go-mail/mail/v2"
)

//go:embed templates
var templateFS embed.FS

// Mailer sends transactional mail over SMTP. A nil *Mailer is valid and
// drops every send, which is how the server runs when SMTP is not
// configured.
type Mailer struct {
	dialer *mail.Dialer
	sender string
}

func New(host string, port int, username, password, sender string) *Mailer {
	return &Mailer{
		dialer: mail.NewDialer(host, port, username, password),
		sender: sender,
	}
}

// SendRegistrationNotice notifies the configured recipient that a new
// account was created. Accounts carry no email address, so this goes to an
// operator mailbox rather than the user. Transient dial failures are
// retried a few times before giving up.
func (m *Mailer) SendRegistrationNotice(to, username string) error {
	if m == nil {
		return nil
	}

	tmpl, err := template.ParseFS(templateFS, "templates/registration.tmpl")
	if err != nil {
		return fmt.Errorf("parse registration template: %w", err)
	}

	data := map[string]string{"Username": username}

	var subject bytes.Buffer
	if err := tmpl.ExecuteTemplate(&subject, "subject", data); err != nil {
		return fmt.Errorf("render subject: %w", err)
	}
	var plainBody bytes.Buffer
	if err := tmpl.ExecuteTemplate(&plainBody, "plainBody", data); err != nil {
		return fmt.Errorf("render plain body: %w", err)
	}
	var htmlBody bytes.Buffer
	if err := tmpl.ExecuteTemplate(&htmlBody, "htmlBody", data); err != nil {
		return fmt.Errorf("render html body: %w", err)
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/plain", plainBody.String())
	msg.AddAlternative("text/html", htmlBody.String())

	for i := 0; i < 3; i++ {
		err = m.dialer.DialAndSend(msg)
		if err == nil {
			return nil
		}
	}
	return fmt.Errorf("send registration notice: %w", err)
}
