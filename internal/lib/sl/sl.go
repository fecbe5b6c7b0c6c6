// Package sl содержит вспомогательные функции для логгера slog.
package sl

import (
	"log/slog"
	"os"
)

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
// Для nil-ошибки значение пустое, чтобы логирование не падало в горячих путях рассылки.
//
//	log.Error("failed to send email", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Discard логгер, который ничего не пишет. Используется в тестах и утилитах.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

const (
	envLocal = "local"
	envProd  = "prod"
)

// SetupLogger логгер для окружения: текст для local, JSON для остальных.
// В prod уровень Info, иначе Debug.
func SetupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
