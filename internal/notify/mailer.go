package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"sync"

	"github.com/ksred/pageturn-api/internal/config"
	"github.com/rs/zerolog/log"
)

type Email struct {
	To      string
	Subject string
	HTML    string
	ReplyTo string
}

type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// NewMailer picks the transport named by MAIL_PROVIDER
func NewMailer(cfg config.Mail) Mailer {
	if cfg.Provider == "smtp" {
		return NewSMTPMailer(cfg)
	}
	return &LogMailer{}
}

// SMTPMailer sends HTML email over an implicit-TLS SMTP connection
type SMTPMailer struct {
	cfg config.Mail
}

func NewSMTPMailer(cfg config.Mail) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)

	dialer := &tls.Dialer{Config: &tls.Config{ServerName: m.cfg.Host}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer conn.Close()

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer c.Close()

	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := c.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := c.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(email.To); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := wc.Write([]byte(buildMessage(m.cfg.From, email))); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}
	return c.Quit()
}

func buildMessage(from string, email Email) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: PageTurn <%s>\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", email.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", email.Subject)
	if email.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", email.ReplyTo)
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n" + email.HTML + "\r\n")
	return b.String()
}

// LogMailer records emails in the log instead of sending them. Sent keeps a copy for inspection.
type LogMailer struct {
	mu   sync.Mutex
	Sent []Email
}

func (m *LogMailer) Send(_ context.Context, email Email) error {
	m.mu.Lock()
	m.Sent = append(m.Sent, email)
	m.mu.Unlock()

	log.Info().
		Str("service", "mailer").
		Str("to", email.To).
		Str("subject", email.Subject).
		Msg("email logged")
	return nil
}

// Emails returns a snapshot of everything sent so far
func (m *LogMailer) Emails() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Email, len(m.Sent))
	copy(out, m.Sent)
	return out
}
