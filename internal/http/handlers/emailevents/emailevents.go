// Package emailevents принимает события почтового провайдера о доставке,
// открытии, переходе и отказе.
package emailevents

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/finletter/internal/http/response"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/models"
	notificationservice "github.com/magabrotheeeer/finletter/internal/services/notification"
)

// SecretHeader заголовок с общим секретом провайдера.
const SecretHeader = "X-Email-Events-Secret"

// Service описывает запись события.
type Service interface {
	RecordEvent(ctx context.Context, ev notificationservice.EmailEvent) error
}

// Handler обрабатывает события почтового провайдера.
type Handler struct {
	log      *slog.Logger
	service  Service
	secret   string
	validate *validator.Validate
}

// New создает новый экземпляр Handler. Пустой secret отклоняет все запросы.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		secret:   secret,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Событие почтового провайдера
// @Tags Email
// @Accept  json
// @Produce  json
// @Param X-Email-Events-Secret header string true "Общий секрет"
// @Param request body notificationservice.EmailEvent true "Событие"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Неверный секрет"
// @Failure 404 {object} response.ErrorResponse "Письмо не найдено"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /email/events [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.emailevents"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	got := r.Header.Get(SecretHeader)
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
		log.Warn("email event with wrong secret")
		response.JSONError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	var ev notificationservice.EmailEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.JSONError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(ev); err != nil {
		response.Validation(w, r, err)
		return
	}
	switch ev.Status {
	case models.EmailDelivered, models.EmailOpened, models.EmailClicked, models.EmailBounced:
	default:
		response.JSONError(w, r, http.StatusUnprocessableEntity, "unsupported status "+string(ev.Status))
		return
	}

	err := h.service.RecordEvent(r.Context(), ev)
	switch {
	case errors.Is(err, notificationservice.ErrStaleEvent):
		log.Info("stale email event ignored", slog.String("message_id", ev.MessageID))
		render.JSON(w, r, response.StatusOKWithData(map[string]string{"status": "ignored"}))
		return
	case err != nil:
		log.Info("failed to record email event", slog.String("message_id", ev.MessageID), sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]string{"status": "recorded"}))
}
