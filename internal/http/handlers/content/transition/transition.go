// Package transition реализует HTTP-обработчик действий над материалом:
// publish, archive, schedule, unschedule, restore и duplicate.
package transition

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/finletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/finletter/internal/http/params"
	"github.com/magabrotheeeer/finletter/internal/http/response"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/models"
	contentservice "github.com/magabrotheeeer/finletter/internal/services/content"
)

// Request тело запроса. ScheduledFor обязателен только для schedule.
type Request struct {
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}

// Service описывает смену статуса материала.
type Service interface {
	Transition(ctx context.Context, session *models.Session, kind models.ContentKind, id int,
		action contentservice.Action, at *time.Time) (*models.Content, error)
}

// Handler обрабатывает HTTP-запросы на действия над материалом.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Действие над материалом
// @Description Меняет статус материала по таблице переходов или создает копию (duplicate).
// @Tags Content
// @Accept  json
// @Produce  json
// @Param kind path string true "Тип материала" Enums(newsletters, analyses, selections)
// @Param id path int true "ID материала"
// @Param action path string true "Действие" Enums(publish, archive, schedule, unschedule, restore, duplicate)
// @Param request body Request false "Время публикации для schedule"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "Материал или действие не найдены"
// @Failure 409 {object} response.ErrorResponse "Переход недопустим"
// @Failure 422 {object} response.ErrorResponse "Время публикации в прошлом"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /content/{kind}/{id}/{action} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.content.transition"

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
	action := contentservice.Action(chi.URLParam(r, "action"))
	if !action.Valid() {
		response.JSONError(w, r, http.StatusNotFound, "unknown action")
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request body", sl.Err(err))
		response.JSONError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	session := middlewarectx.SessionFromContext(r.Context())
	item, err := h.service.Transition(r.Context(), session, kind, id, action, req.ScheduledFor)
	if err != nil {
		log.Info("transition failed",
			slog.Int("id", id),
			slog.String("action", string(action)),
			sl.Err(err),
		)
		response.ServiceError(w, r, err)
		return
	}

	log.Info("transition applied",
		slog.Int("id", id),
		slog.String("action", string(action)),
		slog.String("status", string(item.Status)),
	)
	if action == contentservice.ActionDuplicate {
		render.Status(r, http.StatusCreated)
	}
	render.JSON(w, r, response.StatusOKWithData(item))
}
