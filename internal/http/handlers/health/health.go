// Package health реализует проверку готовности сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/finletter/internal/http/response"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
)

// Pinger зависимость, доступность которой проверяется.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler проверяет зависимости сервиса.
type Handler struct {
	log     *slog.Logger
	checks  map[string]Pinger
	timeout time.Duration
}

// New создает Handler. checks сопоставляет имя зависимости и проверку.
func New(log *slog.Logger, checks map[string]Pinger, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Handler{log: log, checks: checks, timeout: timeout}
}

// ServeHTTP godoc
// @Summary Проверка готовности
// @Tags Health
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	results := make([]error, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			results[i] = h.checks[name].Ping(ctx)
			return nil
		})
	}
	_ = g.Wait()

	status := make(map[string]string, len(names))
	healthy := true
	for i, name := range names {
		if results[i] != nil {
			healthy = false
			status[name] = "down"
			h.log.Warn("health check failed", slog.String("dependency", name), sl.Err(results[i]))
			continue
		}
		status[name] = "ok"
	}

	if !healthy {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Response{Status: response.StatusError, Error: "dependency unavailable", Data: status})
		return
	}
	render.JSON(w, r, response.StatusOKWithData(status))
}
