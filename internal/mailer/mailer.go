// Package mailer sends transactional email over SMTP. Messages are
// plain MIME HTML built from small inline templates; delivery failures
// are returned to the caller, which treats notification as best effort.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Mailer sends email through a single SMTP account.
type Mailer struct {
	cfg Config
}

// New returns a Mailer for the given SMTP configuration.
func New(cfg Config) *Mailer {
	return &Mailer{cfg: cfg}
}

// Enabled reports whether the mailer has enough configuration to send.
// When disabled, callers skip notification entirely.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != "" && m.cfg.From != ""
}

func (m *Mailer) send(to, subject, htmlBody string) error {
	if !m.Enabled() {
		return fmt.Errorf("mailer: not configured")
	}
	if to == "" {
		return fmt.Errorf("mailer: empty recipient")
	}

	var msg strings.Builder
	msg.WriteString("From: " + m.cfg.From + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	addr := m.cfg.Host + ":" + m.cfg.Port
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to, err)
	}
	return nil
}

// FormatNaira renders a kobo amount as a naira string, e.g. 6000000
// kobo becomes "₦60,000.00".
func FormatNaira(kobo int64) string {
	naira := kobo / 100
	frac := kobo % 100
	if frac < 0 {
		frac = -frac
	}

	digits := fmt.Sprintf("%d", naira)
	neg := false
	if strings.HasPrefix(digits, "-") {
		neg = true
		digits = digits[1:]
	}
	var grouped strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(d)
	}
	out := fmt.Sprintf("₦%s.%02d", grouped.String(), frac)
	if neg {
		out = "-" + out
	}
	return out
}

// SendPaymentReceived notifies a student that a partial payment was
// applied and tells them what is still outstanding.
func (m *Mailer) SendPaymentReceived(to, fullName, packageName string, amountKobo, totalPaidKobo, outstandingKobo int64) error {
	subject := "Payment received"
	body := fmt.Sprintf(`<html><body>
<p>Hi %s,</p>
<p>We received your payment of <strong>%s</strong> towards the <strong>%s</strong> package.</p>
<p>Total paid so far: %s<br>Outstanding balance: %s</p>
<p>Complete your balance to receive your invite.</p>
</body></html>`,
		fullName, FormatNaira(amountKobo), packageName, FormatNaira(totalPaidKobo), FormatNaira(outstandingKobo))
	return m.send(to, subject, body)
}

// SendPaymentComplete notifies a student that their package is fully
// paid and links their invite.
func (m *Mailer) SendPaymentComplete(to, fullName, packageName, inviteURL string, totalPaidKobo int64) error {
	subject := "Payment complete, your invite is ready"
	var inviteLine string
	if inviteURL != "" {
		inviteLine = fmt.Sprintf(`<p>Your invite: <a href="%s">%s</a></p>`, inviteURL, inviteURL)
	}
	body := fmt.Sprintf(`<html><body>
<p>Hi %s,</p>
<p>Your <strong>%s</strong> package is fully paid (%s). See you there!</p>
%s
</body></html>`,
		fullName, packageName, FormatNaira(totalPaidKobo), inviteLine)
	return m.send(to, subject, body)
}

// SendInvite re-delivers an existing invite link to a student.
func (m *Mailer) SendInvite(to, fullName, packageName, inviteURL string) error {
	subject := "Your event invite"
	body := fmt.Sprintf(`<html><body>
<p>Hi %s,</p>
<p>Here is your invite for the <strong>%s</strong> package:</p>
<p><a href="%s">%s</a></p>
</body></html>`,
		fullName, packageName, inviteURL, inviteURL)
	return m.send(to, subject, body)
}
