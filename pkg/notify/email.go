package notify

import (
	"context"
	"fmt"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
)

// MailTransport delivers a composed email. htmlBody may be empty, in which
// case the mail is plain text only.
type MailTransport interface {
	SendMail(ctx context.Context, to, subject, textBody, htmlBody string) error
}

// EmailNotifier composes severity-labeled emails and hands them to a mail
// transport. The destination passed to Send is the recipient address.
type EmailNotifier struct {
	transport MailTransport
}

// NewEmailNotifier creates an email notifier over the given transport.
func NewEmailNotifier(transport MailTransport) *EmailNotifier {
	return &EmailNotifier{transport: transport}
}

func (e *EmailNotifier) Channel() Channel { return ChannelEmail }

func (e *EmailNotifier) Send(ctx context.Context, to string, msg Message) Result {
	subject := fmt.Sprintf("%s [%s] %s", severityEmoji(msg.Severity), strings.ToUpper(string(msg.Severity)), msg.Title)

	body := msg.Body
	if msg.ActionURL != "" {
		body += "\n\nView details: " + msg.ActionURL
	}

	if err := e.transport.SendMail(ctx, to, subject, body, ""); err != nil {
		return Result{Channel: ChannelEmail, Error: fmt.Sprintf("send email: %v", err)}
	}
	return Result{Channel: ChannelEmail, Success: true}
}

// SendDigest delivers a weekly digest with parallel text and HTML bodies.
func (e *EmailNotifier) SendDigest(ctx context.Context, to string, digest Digest) Result {
	if err := e.transport.SendMail(ctx, to, digest.Subject, digest.Body, digest.HTML); err != nil {
		return Result{Channel: ChannelEmail, Error: fmt.Sprintf("send digest: %v", err)}
	}
	return Result{Channel: ChannelEmail, Success: true}
}

// SMTPTransport sends mail through a plain SMTP relay.
type SMTPTransport struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

func (s *SMTPTransport) SendMail(_ context.Context, to, subject, textBody, htmlBody string) error {
	raw, err := buildMIME(s.From, to, subject, textBody, htmlBody)
	if err != nil {
		return fmt.Errorf("compose mail: %w", err)
	}

	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}

	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	if err := smtp.SendMail(addr, auth, s.From, []string{to}, raw); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// buildMIME renders an RFC 822 message, multipart/alternative when an HTML
// body is present.
func buildMIME(from, to, subject, textBody, htmlBody string) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")

	if htmlBody == "" {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(textBody)
		return []byte(b.String()), nil
	}

	var parts strings.Builder
	w := multipart.NewWriter(&parts)

	text, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=utf-8"}})
	if err != nil {
		return nil, err
	}
	if _, err := text.Write([]byte(textBody)); err != nil {
		return nil, err
	}

	html, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=utf-8"}})
	if err != nil {
		return nil, err
	}
	if _, err := html.Write([]byte(htmlBody)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", w.Boundary())
	b.WriteString(parts.String())
	return []byte(b.String()), nil
}
