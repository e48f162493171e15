// Package mailer relays contact-form submissions over SMTP.
package mailer

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"os"
)

// Mailer sends contact-form messages to the site owner's inbox. All settings
// come from the environment; when SMTP_HOST is unset, Enabled reports false
// and the contact endpoint rejects submissions with a clear error.
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	to       string
	useSSL   bool
}

func NewFromEnv() *Mailer {
	return &Mailer{
		host:     os.Getenv("SMTP_HOST"),
		port:     envOr("SMTP_PORT", "587"),
		username: os.Getenv("SMTP_USERNAME"),
		password: os.Getenv("SMTP_PASSWORD"),
		from:     os.Getenv("SMTP_FROM"),
		to:       os.Getenv("CONTACT_TO"),
		useSSL:   os.Getenv("SMTP_USE_SSL") == "true",
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (m *Mailer) Enabled() bool {
	return m.host != "" && m.from != "" && m.to != ""
}

// SendContactMessage relays one sanitized contact-form submission. The
// visitor's address goes into Reply-To so the owner can answer directly.
func (m *Mailer) SendContactMessage(name, email, message string) error {
	if !m.Enabled() {
		return fmt.Errorf("SMTP is not configured")
	}

	subject := fmt.Sprintf("Portfolio contact from %s", name)
	body := fmt.Sprintf("Name: %s\r\nEmail: %s\r\n\r\n%s\r\n", name, email, message)

	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nReply-To: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n",
		m.from, m.to, email, subject)
	msg := []byte(headers + body)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	if m.useSSL {
		return m.sendWithSSL(addr, auth, msg)
	}
	return smtp.SendMail(addr, auth, m.from, []string{m.to}, msg)
}

// sendWithSSL handles servers that expect implicit TLS rather than STARTTLS.
func (m *Mailer) sendWithSSL(addr string, auth smtp.Auth, msg []byte) error {
	tlsConfig := &tls.Config{ServerName: m.host}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err = client.Mail(m.from); err != nil {
		return err
	}
	if err = client.Rcpt(m.to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(msg); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}

	return client.Quit()
}
