package mailer

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
)

// Compose renders a complete RFC 5322 message: a multipart/alternative
// inline section carrying the plain-text and HTML bodies, plus the CSV
// report as a named attachment.
func Compose(from string, recipients []string, subject, plainBody, htmlBody, attachmentName string, attachment []byte) ([]byte, error) {
	to := make([]*mail.Address, 0, len(recipients))
	for _, rcpt := range recipients {
		to = append(to, &mail.Address{Address: rcpt})
	}

	var header mail.Header
	header.SetDate(time.Now())
	header.SetAddressList("From", []*mail.Address{{Address: from}})
	header.SetAddressList("To", to)
	header.SetSubject(subject)

	var buf bytes.Buffer
	writer, err := mail.CreateWriter(&buf, header)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}

	inline, err := writer.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("creating inline section: %w", err)
	}
	if err := writeInlinePart(inline, "text/plain", plainBody); err != nil {
		return nil, err
	}
	if err := writeInlinePart(inline, "text/html", htmlBody); err != nil {
		return nil, err
	}
	if err := inline.Close(); err != nil {
		return nil, fmt.Errorf("closing inline section: %w", err)
	}

	var attachHeader mail.AttachmentHeader
	attachHeader.SetContentType("text/csv", map[string]string{"charset": "utf-8"})
	attachHeader.SetFilename(attachmentName)
	attach, err := writer.CreateAttachment(attachHeader)
	if err != nil {
		return nil, fmt.Errorf("creating attachment part: %w", err)
	}
	if _, err := attach.Write(attachment); err != nil {
		return nil, fmt.Errorf("writing attachment: %w", err)
	}
	if err := attach.Close(); err != nil {
		return nil, fmt.Errorf("closing attachment part: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing message writer: %w", err)
	}
	return buf.Bytes(), nil
}

func writeInlinePart(inline *mail.InlineWriter, contentType, body string) error {
	var header mail.InlineHeader
	header.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	part, err := inline.CreatePart(header)
	if err != nil {
		return fmt.Errorf("creating %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(part, body); err != nil {
		return fmt.Errorf("writing %s part: %w", contentType, err)
	}
	return part.Close()
}
