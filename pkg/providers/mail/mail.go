// Package mail renders stored templates and delivers them over authenticated SMTP.
package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
)

// Render replaces every {{name}} placeholder with its value. Unknown placeholders stay as they are.
func Render(tmpl string, vars map[string]string) string {
	if len(vars) == 0 {
		return tmpl
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(vars)*2)
	for _, k := range keys {
		pairs = append(pairs, "{{"+k+"}}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// Credentials are the sending account, stored per deployment in email_settings.
type Credentials struct {
	Email      string
	Password   string
	SenderName string
}

// Message is an HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends through one SMTP host.
type Mailer struct {
	Host string
	Port int
	Send SendFunc
}

func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{Host: cfg.Host, Port: cfg.Port, Send: smtp.SendMail}
}

// Deliver sends msg from creds. ctx is checked before the connection is opened.
func (m *Mailer) Deliver(ctx context.Context, creds Credentials, msg Message) error {
	if creds.Email == "" || creds.Password == "" {
		return apperr.Configuration("email_settings.gmail_email")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
	auth := smtp.PlainAuth("", creds.Email, creds.Password, m.Host)
	if err := m.Send(addr, auth, creds.Email, []string{msg.To}, Build(creds, msg, time.Now())); err != nil {
		return apperr.Backend("", "failed to send email", err)
	}
	return nil
}

// Build renders the RFC 5322 message with a base64 UTF-8 body.
func Build(creds Credentials, msg Message, now time.Time) []byte {
	from := creds.Email
	if creds.SenderName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", creds.SenderName), creds.Email)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")

	encoded := base64.StdEncoding.EncodeToString([]byte(msg.HTML))
	for len(encoded) > 76 {
		b.WriteString(encoded[:76] + "\r\n")
		encoded = encoded[76:]
	}
	b.WriteString(encoded + "\r\n")
	return b.Bytes()
}
