// Package update реализует HTTP-обработчик изменения текста материала.
// Статус материала здесь не меняется.
package update

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/finletter/internal/http/params"
	"github.com/magabrotheeeer/finletter/internal/http/response"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/models"
)

// Service описывает изменение материала.
type Service interface {
	Update(ctx context.Context, kind models.ContentKind, id int, req models.DummyContent) (*models.Content, error)
}

// Handler обрабатывает HTTP-запросы на изменение материала.
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
// @Summary Изменить материал
// @Tags Content
// @Accept  json
// @Produce  json
// @Param kind path string true "Тип материала" Enums(newsletters, analyses, selections)
// @Param id path int true "ID материала"
// @Param request body models.DummyContent true "Новые данные материала"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "Материал не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /content/{kind}/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.content.update"

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

	var req models.DummyContent
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

	item, err := h.service.Update(r.Context(), kind, id, req)
	if err != nil {
		log.Error("failed to update content", slog.Int("id", id), sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}

	log.Info("content updated", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(item))
}
