// Package mailer composes and submits the daily report email: a
// plain-text part, an HTML alternative, and the CSV artifact as an
// attachment, delivered in one submission over implicit-TLS SMTP.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"path/filepath"
	"time"

	"taskpulse/pkg/config"
	"taskpulse/pkg/logger"
)

// Distinct failure modes, never silently swallowed. Auth and attachment
// failures need operator action; send failures may clear on a later run.
var (
	ErrAttachmentNotFound = errors.New("attachment file not found")
	ErrAuthFailed         = errors.New("mail authentication failed")
	ErrSendFailed         = errors.New("mail submission failed")
)

const dialTimeout = 30 * time.Second

// Mailer submits report messages through an authenticated SMTPS
// channel. Credentials come from SMTP_USERNAME / SMTP_PASSWORD at send
// time; they are never stored.
type Mailer struct {
	host string
	port int
	from string
}

// NewMailer creates a mailer for the configured submission host.
func NewMailer(cfg config.MailConfig) *Mailer {
	return &Mailer{
		host: cfg.Host,
		port: cfg.Port,
		from: cfg.From,
	}
}

// Send composes one multipart message (plain + HTML alternative + one
// attachment) and submits it to all recipients in a single call. The
// attachment is read fully before any network activity; a missing file
// aborts with ErrAttachmentNotFound. No retries, no per-recipient
// tracking: success or failure covers the whole submission.
func (m *Mailer) Send(ctx context.Context, recipients []string, subject, plainBody, htmlBody, attachmentPath string) error {
	attachment, err := os.ReadFile(attachmentPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrAttachmentNotFound, attachmentPath)
		}
		return fmt.Errorf("%w: reading %s: %v", ErrAttachmentNotFound, attachmentPath, err)
	}

	username := os.Getenv("SMTP_USERNAME")
	password := os.Getenv("SMTP_PASSWORD")
	if username == "" || password == "" {
		return fmt.Errorf("%w: SMTP_USERNAME / SMTP_PASSWORD not set", ErrAuthFailed)
	}

	from := m.from
	if from == "" {
		from = username
	}

	msg, err := Compose(from, recipients, subject, plainBody, htmlBody, filepath.Base(attachmentPath), attachment)
	if err != nil {
		return fmt.Errorf("%w: composing message: %v", ErrSendFailed, err)
	}

	if err := m.submit(from, recipients, username, password, msg); err != nil {
		return err
	}

	logger.InfoCtx(ctx, "report email sent to %d recipients", len(recipients))
	return nil
}

// submit delivers the composed message over implicit TLS (port 465
// style) with PLAIN auth.
func (m *Mailer) submit(from string, recipients []string, username, password string, msg []byte) error {
	addr := net.JoinHostPort(m.host, fmt.Sprintf("%d", m.port))

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: m.host})
	if err != nil {
		return fmt.Errorf("%w: TLS dial to %s: %v", ErrSendFailed, addr, err)
	}

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("%w: creating SMTP client: %v", ErrSendFailed, err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", username, password, m.host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("%w: MAIL FROM: %v", ErrSendFailed, err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("%w: RCPT TO %s: %v", ErrSendFailed, rcpt, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("%w: DATA: %v", ErrSendFailed, err)
	}
	if _, err := writer.Write(msg); err != nil {
		return fmt.Errorf("%w: writing message body: %v", ErrSendFailed, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("%w: closing message body: %v", ErrSendFailed, err)
	}

	return client.Quit()
}
