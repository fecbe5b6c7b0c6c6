// Package subscription возвращает подписку текущего пользователя.
package subscription

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/finletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/finletter/internal/http/response"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/models"
)

// Service описывает чтение подписки.
type Service interface {
	Current(ctx context.Context, userUID string) (*models.Subscription, error)
}

// Handler обрабатывает GET /billing/subscription.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Текущая подписка
// @Description Возвращает подписку из базы, а не из снимка сессии.
// @Tags Billing
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /billing/subscription [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.subscription"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	session := middlewarectx.SessionFromContext(r.Context())
	if session == nil {
		response.JSONError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	sub, err := h.service.Current(r.Context(), session.UserUID)
	if err != nil {
		log.Error("failed to get subscription", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(sub))
}
