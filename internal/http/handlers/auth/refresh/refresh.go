// Package refresh перевыпускает токен по текущей сессии. Это единственный
// способ обновить снимок роли и подписки до истечения токена.
package refresh

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/finletter/internal/config"
	"github.com/magabrotheeeer/finletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/finletter/internal/http/response"
	"github.com/magabrotheeeer/finletter/internal/http/sessioncookie"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/models"
	authservice "github.com/magabrotheeeer/finletter/internal/services/auth"
)

// Service перевыпуск токена.
type Service interface {
	Refresh(ctx context.Context, session *models.Session) (*authservice.Issued, error)
}

// Handler обрабатывает POST /auth/refresh.
type Handler struct {
	log     *slog.Logger
	service Service
	cookie  config.SessionCookie
}

// New создает Handler.
func New(log *slog.Logger, service Service, cookie config.SessionCookie) *Handler {
	return &Handler{log: log, service: service, cookie: cookie}
}

// ServeHTTP godoc
// @Summary Перевыпуск токена
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /auth/refresh [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.refresh"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	issued, err := h.service.Refresh(r.Context(), middlewarectx.SessionFromContext(r.Context()))
	switch {
	case errors.Is(err, models.ErrUserInactive):
		sessioncookie.Clear(w, h.cookie)
		response.JSONError(w, r, http.StatusForbidden, "user is inactive")
		return
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrInvalidCredentials):
		sessioncookie.Clear(w, h.cookie)
		response.JSONError(w, r, http.StatusUnauthorized, "session is no longer valid")
		return
	case err != nil:
		log.Error("failed to refresh session", sl.Err(err))
		response.JSONError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	sessioncookie.Set(w, h.cookie, issued.Token, issued.ExpiresAt)
	render.JSON(w, r, response.StatusOKWithData(issued))
}
