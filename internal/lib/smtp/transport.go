package smtp

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"time"

	"github.com/magabrotheeeer/finletter/internal/config"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
)

const dialTimeout = 10 * time.Second

// Transport реализует Dialer поверх net/smtp.
type Transport struct {
	cfg config.SMTP
	log *slog.Logger
}

type clientWrapper struct {
	client *smtp.Client
}

func (w *clientWrapper) Mail(from string) error { return w.client.Mail(from) }
func (w *clientWrapper) Rcpt(to string) error { return w.client.Rcpt(to) }
func (w *clientWrapper) Data() (io.WriteCloser, error) { return w.client.Data() }
func (w *clientWrapper) Quit() error { return w.client.Quit() }
func (w *clientWrapper) Close() error { return w.client.Close() }

// NewTransport создает новый экземпляр Transport.
func NewTransport(cfg config.SMTP, log *slog.Logger) *Transport {
	return &Transport{cfg: cfg, log: log}
}

// Connect устанавливает соединение, включает STARTTLS и авторизуется.
func (t *Transport) Connect() (Client, error) {
	const op = "smtp.Connect"
	addr := net.JoinHostPort(t.cfg.SMTPHost, t.cfg.SMTPPort)

	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("%s: dial %s: %w", op, addr, err)
	}

	client, err := smtp.NewClient(conn, t.cfg.SMTPHost)
	if err != nil {
		t.closeQuietly(conn)
		return nil, fmt.Errorf("%s: new client: %w", op, err)
	}

	if ok, _ := client.Extension("STARTTLS"); !ok {
		t.closeQuietly(client)
		return nil, fmt.Errorf("%s: server does not support STARTTLS", op)
	}
	tlsConfig := &tls.Config{
		ServerName: t.cfg.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}
	if err = client.StartTLS(tlsConfig); err != nil {
		t.closeQuietly(client)
		return nil, fmt.Errorf("%s: starttls: %w", op, err)
	}

	if t.cfg.SMTPUser != "" {
		auth := smtp.PlainAuth("", t.cfg.SMTPUser, t.cfg.SMTPPass, t.cfg.SMTPHost)
		if err = client.Auth(auth); err != nil {
			t.closeQuietly(client)
			return nil, fmt.Errorf("%s: auth: %w", op, err)
		}
	}

	return &clientWrapper{client: client}, nil
}

// GetSMTPUser возвращает имя пользователя SMTP.
func (t *Transport) GetSMTPUser() string {
	return t.cfg.SMTPUser
}

func (t *Transport) closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		t.log.Error("failed to close smtp connection", sl.Err(err))
	}
}
