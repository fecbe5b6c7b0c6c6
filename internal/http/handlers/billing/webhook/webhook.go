// Package webhook принимает события платежного провайдера.
//
// Подпись проверяется по заголовку Stripe-Signature. Повторное событие
// подтверждается ответом 200, чтобы провайдер прекратил повторную доставку.
package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/finletter/internal/http/response"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/models"
	"github.com/magabrotheeeer/finletter/internal/paymentprovider"
)

// SignatureHeader заголовок подписи события.
const SignatureHeader = "Stripe-Signature"

// MaxBodyBytes ограничение размера тела события.
const MaxBodyBytes = 1 << 16

// Service описывает обработку события.
type Service interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// Handler обрабатывает события провайдера.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Событие Stripe
// @Tags Billing
// @Accept  json
// @Produce  json
// @Param Stripe-Signature header string true "Подпись события"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Неверная подпись"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /billing/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		response.JSONError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	err = h.service.HandleWebhook(r.Context(), payload, r.Header.Get(SignatureHeader))
	switch {
	case errors.Is(err, paymentprovider.ErrInvalidSignature):
		log.Warn("webhook signature rejected", sl.Err(err))
		response.JSONError(w, r, http.StatusBadRequest, "invalid signature")
		return
	case errors.Is(err, models.ErrDuplicateEvent):
		render.JSON(w, r, response.StatusOKWithData(map[string]string{"status": "duplicate"}))
		return
	case err != nil:
		log.Error("failed to handle webhook", sl.Err(err))
		response.JSONError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]string{"status": "processed"}))
}
