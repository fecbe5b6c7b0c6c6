// Package create реализует HTTP-обработчик создания материала.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/finletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/finletter/internal/http/params"
	"github.com/magabrotheeeer/finletter/internal/http/response"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/models"
)

// Service описывает создание материала.
type Service interface {
	Create(ctx context.Context, session *models.Session, kind models.ContentKind, req models.DummyContent) (*models.Content, error)
}

// Handler обрабатывает HTTP-запросы на создание материала.
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
// @Summary Создать материал
// @Description Создает черновик рассылки, обзора или подборки. Доступно редакторам и администраторам.
// @Tags Content
// @Accept  json
// @Produce  json
// @Param kind path string true "Тип материала" Enums(newsletters, analyses, selections)
// @Param request body models.DummyContent true "Данные материала"
// @Success 201 {object} response.Response "Черновик создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Неизвестный тип материала"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /content/{kind} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.content.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	kind, ok := params.Kind(r)
	if !ok {
		response.JSONError(w, r, http.StatusNotFound, "unknown content kind")
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

	item, err := h.service.Create(r.Context(), middlewarectx.SessionFromContext(r.Context()), kind, req)
	if err != nil {
		log.Error("failed to create content", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}

	log.Info("content created", slog.Int("id", item.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(item))
}
