// Package checkout реализует создание сессии оплаты подписки.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/finletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/finletter/internal/http/response"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/models"
	"github.com/magabrotheeeer/finletter/internal/paymentprovider"
	billingservice "github.com/magabrotheeeer/finletter/internal/services/billing"
)

// Request выбранный план и период оплаты.
type Request struct {
	Plan  models.Plan         `json:"plan" validate:"required,oneof=PREMIUM ENTERPRISE"`
	Cycle models.BillingCycle `json:"cycle" validate:"required,oneof=MONTHLY YEARLY"`
}

// Service описывает создание сессии оплаты.
type Service interface {
	Checkout(ctx context.Context, session *models.Session, plan models.Plan,
		cycle models.BillingCycle) (*paymentprovider.CheckoutSession, error)
}

// Handler обрабатывает HTTP-запросы на оплату.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Оформить подписку
// @Description Создает Stripe Checkout сессию и возвращает ссылку на оплату.
// @Tags Billing
// @Accept  json
// @Produce  json
// @Param request body Request true "План и период"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 409 {object} response.ErrorResponse "Подписка уже оформлена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /billing/checkout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.checkout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	session := middlewarectx.SessionFromContext(r.Context())
	if session == nil {
		response.JSONError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.JSONError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		response.Validation(w, r, err)
		return
	}

	checkout, err := h.service.Checkout(r.Context(), session, req.Plan, req.Cycle)
	switch {
	case errors.Is(err, billingservice.ErrAlreadySubscribed):
		response.JSONError(w, r, http.StatusConflict, billingservice.ErrAlreadySubscribed.Error())
		return
	case errors.Is(err, billingservice.ErrNotPaidPlan), errors.Is(err, paymentprovider.ErrUnknownPrice):
		log.Warn("checkout rejected", sl.Err(err))
		response.JSONError(w, r, http.StatusUnprocessableEntity, "plan is not available")
		return
	case err != nil:
		log.Error("failed to create checkout", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(checkout))
}
