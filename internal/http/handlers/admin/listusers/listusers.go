// Package listusers реализует список пользователей для администратора.
package listusers

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

// Service описывает выборку пользователей.
type Service interface {
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
}

// Handler обрабатывает HTTP-запросы списка пользователей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список пользователей
// @Tags Admin
// @Produce  json
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /admin/users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.listusers"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, offset := params.Page(r)
	users, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(users))
}
