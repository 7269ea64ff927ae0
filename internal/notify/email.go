package notify

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"net/smtp"
	"os"
	"path/filepath"
)

// EmailSink delivers alerts over SMTP with the snapshot attached.
type EmailSink struct {
	Sender    string
	Password  string
	Recipient string
	Server    string
	Port      int
}

// NewEmailSink creates an SMTP alert sink.
func NewEmailSink(sender, password, recipient, server string, port int) *EmailSink {
	return &EmailSink{
		Sender:    sender,
		Password:  password,
		Recipient: recipient,
		Server:    server,
		Port:      port,
	}
}

// Dispatch sends one alert email. smtp.SendMail negotiates STARTTLS
// when the server offers it.
func (s *EmailSink) Dispatch(event Event) error {
	message, err := s.buildMessage(event)
	if err != nil {
		return fmt.Errorf("failed to build alert email: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.Server, s.Port)
	auth := smtp.PlainAuth("", s.Sender, s.Password, s.Server)

	if err := smtp.SendMail(addr, auth, s.Sender, []string{s.Recipient}, message); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}

	return nil
}

// buildMessage assembles a multipart MIME message with a text body and
// the snapshot image attached.
func (s *EmailSink) buildMessage(event Event) ([]byte, error) {
	const boundary = "opensentry-alert"

	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", s.Sender)
	fmt.Fprintf(&buf, "To: %s\r\n", s.Recipient)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8",
		fmt.Sprintf("OpenSentry Alert: %s Detected", event.Label)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString("OpenSentry Security Alert\r\n\r\n")
	fmt.Fprintf(&buf, "Object Detected: %s\r\n", event.Label)
	fmt.Fprintf(&buf, "Confidence: %.2f\r\n", event.Confidence)
	fmt.Fprintf(&buf, "Time: %s\r\n\r\n", event.Timestamp.Format("2006-01-02 15:04:05"))
	buf.WriteString("A snapshot image is attached.\r\n")

	if event.SnapshotPath != "" {
		image, err := os.ReadFile(event.SnapshotPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot: %w", err)
		}

		fmt.Fprintf(&buf, "\r\n--%s\r\n", boundary)
		buf.WriteString("Content-Type: image/jpeg\r\n")
		buf.WriteString("Content-Transfer-Encoding: base64\r\n")
		fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n\r\n",
			filepath.Base(event.SnapshotPath))

		encoded := base64.StdEncoding.EncodeToString(image)
		for len(encoded) > 76 {
			buf.WriteString(encoded[:76])
			buf.WriteString("\r\n")
			encoded = encoded[76:]
		}
		buf.WriteString(encoded)
		buf.WriteString("\r\n")
	}

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes(), nil
}
