// Package read реализует чтение опубликованного материала.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/finletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/finletter/internal/http/params"
	"github.com/magabrotheeeer/finletter/internal/http/response"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/models"
	contentservice "github.com/magabrotheeeer/finletter/internal/services/content"
)

// Service описывает чтение материала читателем.
type Service interface {
	Read(ctx context.Context, session *models.Session, kind models.ContentKind, id int) (*models.Content, error)
}

// Handler обрабатывает HTTP-запросы на чтение материала.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Прочитать материал
// @Tags Feed
// @Produce  json
// @Param kind path string true "Тип материала" Enums(newsletters, analyses, selections)
// @Param id path int true "ID материала"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 403 {object} response.ErrorResponse "Нужна премиум-подписка"
// @Failure 404 {object} response.ErrorResponse "Материал не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /feed/{kind}/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.feed.read"

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

	session := middlewarectx.SessionFromContext(r.Context())
	item, err := h.service.Read(r.Context(), session, kind, id)
	switch {
	case errors.Is(err, contentservice.ErrLocked):
		log.Info("premium content locked", slog.Int("id", id))
		response.JSONError(w, r, http.StatusForbidden, "premium subscription required")
		return
	case err != nil:
		log.Info("failed to read content", slog.Int("id", id), sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(item))
}
