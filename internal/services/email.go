package services

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"log"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"net/url"
	texttemplate "text/template"
	"time"

	"github.com/google/uuid"
)

// SMTPConfig points the mailer at a relay. Without Host or User the mailer
// only logs what it would have sent.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

func (c SMTPConfig) configured() bool {
	return c.Host != "" && c.User != ""
}

type resetMailData struct {
	Link    string
	Expires string
}

var (
	resetSubject = "Restablece tu contraseña de HangOut Guide"

	resetHTML = htmltemplate.Must(htmltemplate.New("reset.html").Parse(`<!DOCTYPE html>
<html lang="es">
<body style="margin:0;padding:24px;background:#f1f5f9;font-family:Helvetica,Arial,sans-serif;color:#0f172a">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0">
<tr><td align="center">
<table role="presentation" width="460" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:10px">
<tr><td style="padding:24px 28px;border-bottom:3px solid #14b8a6;font-size:20px;font-weight:bold">HangOut Guide</td></tr>
<tr><td style="padding:28px;font-size:14px;line-height:1.6">
<p style="margin:0 0 12px">Alguien pidió cambiar la contraseña de esta cuenta.</p>
<p style="margin:0 0 24px"><a href="{{.Link}}" style="background:#14b8a6;color:#ffffff;padding:10px 24px;border-radius:6px;text-decoration:none">Elegir una contraseña nueva</a></p>
<p style="margin:0;color:#64748b;font-size:12px">El enlace deja de funcionar en {{.Expires}}. Si no fuiste tú, no hace falta hacer nada.</p>
</td></tr>
</table>
</td></tr>
</table>
</body>
</html>
`))

	resetText = texttemplate.Must(texttemplate.New("reset.txt").Parse(`Alguien pidió cambiar la contraseña de tu cuenta de HangOut Guide.

Elige una contraseña nueva aquí:
{{.Link}}

El enlace deja de funcionar en {{.Expires}}. Si no fuiste tú, no hace falta hacer nada.
`))
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type EmailService struct {
	smtp        SMTPConfig
	frontendURL string
	send        sendMailFunc
	now         func() time.Time
}

func NewEmailService(cfg SMTPConfig, frontendURL string) *EmailService {
	if !cfg.configured() {
		log.Println("⚠ Email service running in DEV MODE (logging to console)")
	}
	return &EmailService{
		smtp:        cfg,
		frontendURL: frontendURL,
		send:        smtp.SendMail,
		now:         time.Now,
	}
}

func (s *EmailService) resetLink(token string) string {
	return s.frontendURL + "/reset-password?" + url.Values{"token": {token}}.Encode()
}

func (s *EmailService) SendPasswordResetEmail(to, token string) error {
	link := s.resetLink(token)
	if !s.smtp.configured() {
		log.Printf("📧 [DEV EMAIL] password reset for %s: %s", to, link)
		return nil
	}

	data := resetMailData{Link: link, Expires: "1 hora"}
	var htmlBody, textBody bytes.Buffer
	if err := resetHTML.Execute(&htmlBody, data); err != nil {
		return fmt.Errorf("failed to render reset email: %w", err)
	}
	if err := resetText.Execute(&textBody, data); err != nil {
		return fmt.Errorf("failed to render reset email: %w", err)
	}

	msg, err := s.compose(to, resetSubject, textBody.Bytes(), htmlBody.Bytes())
	if err != nil {
		return err
	}
	return s.deliver(to, msg)
}

// compose builds a multipart/alternative message so clients without HTML
// still get a usable link.
func (s *EmailService) compose(to, subject string, text, html []byte) ([]byte, error) {
	from, err := mail.ParseAddress(s.smtp.From)
	if err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", s.smtp.From, err)
	}
	rcpt, err := mail.ParseAddress(to)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", to, err)
	}

	var body bytes.Buffer
	parts := multipart.NewWriter(&body)
	for _, p := range []struct {
		contentType string
		data        []byte
	}{
		{"text/plain; charset=UTF-8", text},
		{"text/html; charset=UTF-8", html},
	} {
		w, err := parts.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, err
		}
		qp := quotedprintable.NewWriter(w)
		if _, err := qp.Write(p.data); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
	}
	if err := parts.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	for _, h := range [][2]string{
		{"From", from.String()},
		{"To", rcpt.String()},
		{"Subject", mime.QEncoding.Encode("utf-8", subject)},
		{"Date", s.now().Format(time.RFC1123Z)},
		{"Message-ID", fmt.Sprintf("<%s@%s>", uuid.New(), s.smtp.Host)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "multipart/alternative; boundary=" + parts.Boundary()},
	} {
		fmt.Fprintf(&msg, "%s: %s\r\n", h[0], h[1])
	}
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

func (s *EmailService) deliver(to string, msg []byte) error {
	from, err := mail.ParseAddress(s.smtp.From)
	if err != nil {
		return fmt.Errorf("invalid sender address %q: %w", s.smtp.From, err)
	}
	auth := smtp.PlainAuth("", s.smtp.User, s.smtp.Pass, s.smtp.Host)
	if err := s.send(net.JoinHostPort(s.smtp.Host, s.smtp.Port), auth, from.Address, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	log.Printf("📧 Password reset email sent to %s", to)
	return nil
}
