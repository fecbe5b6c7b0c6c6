// Package campaignlogs реализует просмотр журнала рассылки.
package campaignlogs

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/finletter/internal/http/params"
	"github.com/magabrotheeeer/finletter/internal/http/response"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	notificationservice "github.com/magabrotheeeer/finletter/internal/services/notification"
)

// Service описывает чтение журнала рассылки.
type Service interface {
	CampaignLogs(ctx context.Context, campaignID string, limit, offset int) (*notificationservice.CampaignReport, error)
}

// Handler обрабатывает HTTP-запросы журнала рассылки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Журнал рассылки
// @Tags Admin
// @Produce  json
// @Param id path string true "ID рассылки"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Рассылка не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /admin/campaigns/{id}/logs [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.campaignlogs"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	limit, offset := params.Page(r)

	report, err := h.service.CampaignLogs(r.Context(), id, limit, offset)
	if err != nil {
		log.Info("failed to load campaign logs", slog.String("campaign_id", id), sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(report))
}
