// Package list реализует HTTP-обработчик списка материалов для редакторов.
//
// Параметр status можно повторять: ?status=DRAFT&status=SCHEDULED.
// Без него возвращаются материалы в любом статусе.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/finletter/internal/http/params"
	"github.com/magabrotheeeer/finletter/internal/http/response"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/models"
)

// Service описывает выборку материалов.
type Service interface {
	List(ctx context.Context, kind models.ContentKind, statuses []models.ContentStatus, limit, offset int) ([]*models.Content, error)
}

// Handler обрабатывает HTTP-запросы на список материалов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список материалов
// @Tags Content
// @Produce  json
// @Param kind path string true "Тип материала" Enums(newsletters, analyses, selections)
// @Param status query []string false "Фильтр по статусу" collectionFormat(multi)
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Неизвестный статус"
// @Failure 404 {object} response.ErrorResponse "Неизвестный тип материала"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /content/{kind} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.content.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	kind, ok := params.Kind(r)
	if !ok {
		response.JSONError(w, r, http.StatusNotFound, "unknown content kind")
		return
	}

	var statuses []models.ContentStatus
	for _, raw := range r.URL.Query()["status"] {
		st := models.ContentStatus(strings.ToUpper(raw))
		if !st.Valid() {
			response.JSONError(w, r, http.StatusBadRequest, "unknown status "+raw)
			return
		}
		statuses = append(statuses, st)
	}
	limit, offset := params.Page(r)

	items, err := h.service.List(r.Context(), kind, statuses, limit, offset)
	if err != nil {
		log.Error("failed to list content", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(items))
}
