package smtp

import (
	"context"
	"fmt"
	"mime"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/finletter/internal/models"
)

// Mailer собирает MIME-сообщение и отправляет его через Dialer.
type Mailer struct {
	dialer Dialer
	from   string
	now    func() time.Time
}

// NewMailer создает Mailer. Пустой from заменяется на пользователя SMTP.
func NewMailer(dialer Dialer, from string) *Mailer {
	if from == "" {
		from = dialer.GetSMTPUser()
	}
	return &Mailer{dialer: dialer, from: from, now: time.Now}
}

// Send отправляет письмо и возвращает сгенерированный Message-ID.
func (m *Mailer) Send(ctx context.Context, email models.Email) (string, error) {
	const op = "smtp.Send"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	messageID := m.messageID()
	msg := m.compose(email, messageID)

	client, err := m.dialer.Connect()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer client.Close() //nolint:errcheck

	if err := client.Mail(m.from); err != nil {
		return "", fmt.Errorf("%s: mail from: %w", op, err)
	}
	if err := client.Rcpt(email.To); err != nil {
		return "", fmt.Errorf("%s: rcpt to %s: %w", op, email.To, err)
	}
	wc, err := client.Data()
	if err != nil {
		return "", fmt.Errorf("%s: data: %w", op, err)
	}
	if _, err := wc.Write(msg); err != nil {
		return "", fmt.Errorf("%s: write body: %w", op, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("%s: close body: %w", op, err)
	}
	if err := client.Quit(); err != nil {
		return "", fmt.Errorf("%s: quit: %w", op, err)
	}
	return messageID, nil
}

func (m *Mailer) messageID() string {
	domain := "localhost"
	if at := strings.LastIndex(m.from, "@"); at >= 0 && at < len(m.from)-1 {
		domain = strings.Trim(m.from[at+1:], "> ")
	}
	return "<" + uuid.NewString() + "@" + domain + ">"
}

func (m *Mailer) compose(email models.Email, messageID string) []byte {
	headers := []string{
		"From: " + m.from,
		"To: " + email.To,
		"Subject: " + mime.QEncoding.Encode("utf-8", email.Subject),
		"Date: " + m.now().UTC().Format(time.RFC1123Z),
		"Message-ID: " + messageID,
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
	}

	// Пользовательские заголовки в стабильном порядке, служебные не переопределяются.
	keys := make([]string, 0, len(email.Headers))
	for k := range email.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if reservedHeader(k) {
			continue
		}
		v := strings.NewReplacer("\r", "", "\n", "").Replace(email.Headers[k])
		headers = append(headers, k+": "+v)
	}

	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + email.HTML)
}

func reservedHeader(name string) bool {
	switch strings.ToLower(name) {
	case "from", "to", "subject", "date", "message-id", "mime-version", "content-type":
		return true
	}
	return strings.ContainsAny(name, "\r\n:")
}
