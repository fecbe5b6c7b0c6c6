// Package smtp отправляет HTML-письма через SMTP-сервер с STARTTLS.
package smtp

import "io"

// Client интерфейс для SMTP клиента.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer открывает новое SMTP-соединение.
type Dialer interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
