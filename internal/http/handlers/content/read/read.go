// Package read реализует HTTP-обработчик получения материала редактором.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/finletter/internal/http/params"
	"github.com/magabrotheeeer/finletter/internal/http/response"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/models"
)

// Service описывает получение материала в любом статусе.
type Service interface {
	Get(ctx context.Context, kind models.ContentKind, id int) (*models.Content, error)
}

// Handler обрабатывает HTTP-запросы на получение материала.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить материал
// @Description Возвращает материал в любом статусе. Доступно редакторам и администраторам.
// @Tags Content
// @Produce  json
// @Param kind path string true "Тип материала" Enums(newsletters, analyses, selections)
// @Param id path int true "ID материала"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Материал не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /content/{kind}/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.content.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	kind, ok := params.Kind(r)
	if !ok {
		response.JSONError(w, r, http.StatusNotFound, "unknown content kind")
		return
	}
	id, err := params.ID(r)
	if err != nil {
		response.JSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.service.Get(r.Context(), kind, id)
	if err != nil {
		log.Info("failed to get content", slog.Int("id", id), sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(item))
}
