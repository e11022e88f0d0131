// Package mail provides outbound email delivery. Delivery is best-effort:
// callers never roll back a state change because a send failed.
package mail

import (
	"fmt"
	"mime/quotedprintable"
	"net/smtp"
	"strings"

	"github.com/gift-exchange/internal/config"
)

// Message is a single outbound email.
type Message struct {
	Subject    string
	Recipients []string
	TextBody   string
	HTMLBody   string // optional
}

// Sender delivers email. The domain layer depends on this interface; tests
// substitute a recording fake.
type Sender interface {
	Send(msg *Message) error
}

// SMTPSender delivers email over SMTP with STARTTLS.
type SMTPSender struct {
	cfg *config.SMTPConfig
}

// NewSMTPSender creates an SMTP-backed sender.
func NewSMTPSender(cfg *config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send delivers the message to all recipients.
func (s *SMTPSender) Send(msg *Message) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	body, err := buildBody(s.cfg.Sender, msg)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.Sender, msg.Recipients, body); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

func buildBody(from string, msg *Message) ([]byte, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.Recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")

	if msg.HTMLBody == "" {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
		b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
		if err := writeQP(&b, msg.TextBody); err != nil {
			return nil, err
		}
		return []byte(b.String()), nil
	}

	const boundary = "gift-exchange-alt"
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
	if err := writeQP(&b, msg.TextBody); err != nil {
		return nil, err
	}

	fmt.Fprintf(&b, "\r\n--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
	if err := writeQP(&b, msg.HTMLBody); err != nil {
		return nil, err
	}

	fmt.Fprintf(&b, "\r\n--%s--\r\n", boundary)
	return []byte(b.String()), nil
}

func writeQP(b *strings.Builder, body string) error {
	w := quotedprintable.NewWriter(b)
	if _, err := w.Write([]byte(body)); err != nil {
		return err
	}
	return w.Close()
}
