package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// VerificationSubject is the subject line of verification mail.
const VerificationSubject = "IoT App Email Confirmation"

var verificationBody = template.Must(template.New("verification").Parse(
	`<p>Hi {{.Name}},</p>
<p>Please use the token below to confirm your email address:</p>
<p><b>TOKEN: [{{.Token}}]</b></p>
<p>If you did not request this, you can ignore this message.</p>
`))

// SMTPConfig holds the SMTP server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier mails verification tokens through an SMTP relay. STARTTLS
// is used whenever the server offers it; credentials are only sent over
// an encrypted connection.
type SMTPNotifier struct {
	cfg  SMTPConfig
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewSMTPNotifier creates an SMTP notifier.
func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	var d net.Dialer
	return &SMTPNotifier{cfg: cfg, dial: d.DialContext}
}

// SendVerification mails token to email. The whole exchange is bounded by
// the deadline on ctx.
func (n *SMTPNotifier) SendVerification(ctx context.Context, email, token string) error {
	msg, err := buildVerificationMessage(n.cfg.From, email, token)
	if err != nil {
		return err
	}
	sender, err := mail.ParseAddress(n.cfg.From)
	if err != nil {
		return fmt.Errorf("parsing sender address: %w", err)
	}

	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	conn, err := n.dial(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dialing smtp %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline) //nolint:errcheck // best effort
	}

	c, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: n.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if n.cfg.Username != "" {
		// PlainAuth refuses to send credentials over an unencrypted
		// connection to a non-local host.
		auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := c.Mail(sender.Address); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(email); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finishing message: %w", err)
	}
	return c.Quit()
}

// buildVerificationMessage renders the RFC 5322 message for a token.
func buildVerificationMessage(from, to, token string) ([]byte, error) {
	if strings.ContainsAny(from+to, "\r\n") {
		return nil, fmt.Errorf("invalid address: contains line break")
	}

	name, _, _ := strings.Cut(to, "@")
	var body bytes.Buffer
	if err := verificationBody.Execute(&body, struct{ Name, Token string }{name, token}); err != nil {
		return nil, fmt.Errorf("rendering verification mail: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", VerificationSubject)
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(strings.ReplaceAll(body.String(), "\n", "\r\n"))
	return msg.Bytes(), nil
}
