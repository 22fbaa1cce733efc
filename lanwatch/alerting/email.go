package alerting

import (
	"fmt"
	"net/smtp"
	"strings"
)

// EmailNotifier delivers alerts over SMTP. STARTTLS is negotiated by
// net/smtp when the server offers it.
type EmailNotifier struct {
	Server   string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Notify implements Notifier.
func (n *EmailNotifier) Notify(alert Alert) error {
	from := n.From
	if from == "" {
		from = n.Username
	}

	subject := fmt.Sprintf("[%s] LanWatch Alert: %s", strings.ToUpper(alert.Severity), alert.EventType)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", n.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(Format(alert))

	addr := fmt.Sprintf("%s:%d", n.Server, n.Port)
	var auth smtp.Auth
	if n.Username != "" && n.Password != "" {
		auth = smtp.PlainAuth("", n.Username, n.Password, n.Server)
	}

	if err := smtp.SendMail(addr, auth, from, []string{n.To}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}
	return nil
}
