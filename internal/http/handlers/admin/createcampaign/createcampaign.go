// Package createcampaign реализует постановку массовой рассылки в очередь.
package createcampaign

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/finletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/finletter/internal/http/response"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/models"
)

const (
	// AudienceAll все активные пользователи.
	AudienceAll = "all"
	// AudiencePremium только пользователи с действующей платной подпиской.
	AudiencePremium = "premium"
)

// Request параметры рассылки.
type Request struct {
	Subject  string `json:"subject" validate:"required,max=200"`
	HTML     string `json:"html" validate:"required"`
	Audience string `json:"audience" validate:"required,oneof=all premium"`
}

// Service описывает постановку рассылки в очередь.
type Service interface {
	EnqueueCampaign(ctx context.Context, campaign models.Campaign) (string, error)
}

// Handler обрабатывает HTTP-запросы на рассылку.
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
// @Summary Запустить рассылку
// @Description Ставит рассылку в очередь. Отправка идет пачками в отдельном процессе.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Параметры рассылки"
// @Success 202 {object} response.Response "Рассылка поставлена в очередь"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /admin/campaigns [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.createcampaign"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	campaign := models.Campaign{
		Subject:  req.Subject,
		HTML:     req.HTML,
		Audience: models.AudienceFilter{PremiumOnly: req.Audience == AudiencePremium},
	}
	if s := middlewarectx.SessionFromContext(r.Context()); s != nil {
		campaign.RequestedBy = s.UserUID
	}

	id, err := h.service.EnqueueCampaign(r.Context(), campaign)
	if err != nil {
		log.Error("failed to enqueue campaign", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}

	log.Info("campaign enqueued", slog.String("campaign_id", id))
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, response.StatusOKWithData(map[string]string{"campaign_id": id}))
}
