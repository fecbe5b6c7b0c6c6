// Package list реализует ленту опубликованных материалов для читателя.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/finletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/finletter/internal/http/params"
	"github.com/magabrotheeeer/finletter/internal/http/response"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/models"
)

// Service описывает выборку ленты.
type Service interface {
	Feed(ctx context.Context, session *models.Session, kind models.ContentKind, limit, offset int) ([]models.FeedItem, error)
}

// Handler обрабатывает HTTP-запросы ленты.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Лента материалов
// @Description Опубликованные материалы. Премиум-материалы без доступа приходят без текста и с locked=true.
// @Tags Feed
// @Produce  json
// @Param kind path string true "Тип материала" Enums(newsletters, analyses, selections)
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 404 {object} response.ErrorResponse "Неизвестный тип материала"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /feed/{kind} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.feed.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	kind, ok := params.Kind(r)
	if !ok {
		response.JSONError(w, r, http.StatusNotFound, "unknown content kind")
		return
	}
	limit, offset := params.Page(r)

	items, err := h.service.Feed(r.Context(), middlewarectx.SessionFromContext(r.Context()), kind, limit, offset)
	if err != nil {
		log.Error("failed to load feed", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(items))
}
