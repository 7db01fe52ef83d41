package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPConfig holds SMTP connection settings for the email backend.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
	To   []string // reception or host distribution list
}

// IsConfigured returns true if SMTP settings are present.
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.From != "" && len(c.To) > 0
}

// EmailPublisher mails each event to a fixed recipient list.
type EmailPublisher struct {
	cfg  SMTPConfig
	send func(cfg SMTPConfig, msg []byte) error
}

// NewEmailPublisher creates an email publisher.
func NewEmailPublisher(cfg SMTPConfig) (*EmailPublisher, error) {
	if !cfg.IsConfigured() {
		return nil, fmt.Errorf("smtp host, from and to are required for the email backend")
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	return &EmailPublisher{cfg: cfg, send: sendSMTP}, nil
}

// Publish sends one plain-text message for e.
func (p *EmailPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := buildEmail(p.cfg.From, p.cfg.To, Subject(e), FormatEmail(e))
	if err := p.send(p.cfg, msg); err != nil {
		return fmt.Errorf("emailing %s event: %w", e.Type, err)
	}
	return nil
}

// Close is a no-op; connections are per message.
func (p *EmailPublisher) Close() error { return nil }

// Subject returns the email subject line for e.
func Subject(e Event) string {
	switch e.Type {
	case SignedIn:
		return fmt.Sprintf("%s is here to see %s", e.Name, e.Host)
	case Arrived:
		return fmt.Sprintf("%s has arrived for %s", e.Name, e.Host)
	case SignedOut:
		return fmt.Sprintf("%s has signed out", e.Name)
	case Swept:
		return fmt.Sprintf("%s was signed out at end of day", e.Name)
	}
	return fmt.Sprintf("Visitor update: %s", e.Name)
}

// FormatEmail builds the plain-text body for e.
func FormatEmail(e Event) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Hi %s,\n\n", e.Host)
	fmt.Fprintf(&buf, "%s.\n\n", Subject(e))
	fmt.Fprintf(&buf, "   Visitor: %s\n", e.Name)
	if e.Company != "" {
		fmt.Fprintf(&buf, "   Company: %s\n", e.Company)
	}
	fmt.Fprintf(&buf, "   Time:    %s\n", e.Time)
	fmt.Fprintf(&buf, "   Record:  #%d\n", e.VisitorID)
	fmt.Fprintf(&buf, "\nFront desk\n")

	return buf.String()
}

// headerValue folds CR and LF to spaces so a value cannot start a new header.
var headerValue = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func buildEmail(from string, to []string, subject, body string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", headerValue.Replace(from))
	fmt.Fprintf(&sb, "To: %s\r\n", headerValue.Replace(strings.Join(to, ", ")))
	fmt.Fprintf(&sb, "Subject: %s\r\n", headerValue.Replace(subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}

// sendSMTP supports both port 465 (implicit TLS) and 587 (STARTTLS).
func sendSMTP(cfg SMTPConfig, msg []byte) error {
	addr := cfg.Host + ":" + cfg.Port
	if cfg.Port == "465" {
		return sendImplicitTLS(cfg, addr, msg)
	}

	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, cfg.From, cfg.To, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

// sendImplicitTLS connects over TLS directly (port 465/SMTPS).
func sendImplicitTLS(cfg SMTPConfig, addr string, msg []byte) (err error) {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: cfg.Host})
	if err != nil {
		return fmt.Errorf("TLS dial: %w", err)
	}

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer func() {
		if quitErr := c.Quit(); quitErr != nil && err == nil {
			err = fmt.Errorf("quit: %w", quitErr)
		}
	}()

	if cfg.User != "" {
		if err := c.Auth(smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range cfg.To {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}
	return nil
}
