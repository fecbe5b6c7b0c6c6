// Package remove реализует HTTP-обработчик удаления материала.
package remove

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

// Service описывает удаление материала.
type Service interface {
	Remove(ctx context.Context, kind models.ContentKind, id int) error
}

// Handler обрабатывает HTTP-запросы на удаление материала.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить материал
// @Tags Content
// @Produce  json
// @Param kind path string true "Тип материала" Enums(newsletters, analyses, selections)
// @Param id path int true "ID материала"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Материал не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /content/{kind}/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.content.remove"

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

	if err := h.service.Remove(r.Context(), kind, id); err != nil {
		log.Error("failed to remove content", slog.Int("id", id), sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}

	log.Info("content removed", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]int{"deleted": id}))
}
