// Package updateuser реализует смену роли и блокировку пользователя
// администратором.
package updateuser

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/finletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/finletter/internal/http/response"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/models"
	usersservice "github.com/magabrotheeeer/finletter/internal/services/users"
)

// Request частичное изменение пользователя. Отсутствующее поле не меняется.
type Request struct {
	Role     *models.Role `json:"role,omitempty" validate:"omitempty,oneof=USER EDITOR ADMIN"`
	IsActive *bool        `json:"is_active,omitempty"`
}

// Service описывает изменение пользователя.
type Service interface {
	Update(ctx context.Context, actor *models.Session, userUID string, patch models.UserPatch) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы на изменение пользователя.
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
// @Summary Изменить пользователя
// @Description Меняет роль и признак активности. Новая роль действует после перевыпуска токена пользователя.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param uid path string true "UID пользователя"
// @Param request body Request true "Изменения"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 409 {object} response.ErrorResponse "Нельзя понизить самого себя"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /admin/users/{uid} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.updateuser"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := chi.URLParam(r, "uid")
	var req Request
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
	if req.Role == nil && req.IsActive == nil {
		response.JSONError(w, r, http.StatusUnprocessableEntity, "nothing to update")
		return
	}

	actor := middlewarectx.SessionFromContext(r.Context())
	user, err := h.service.Update(r.Context(), actor, uid, models.UserPatch{Role: req.Role, IsActive: req.IsActive})
	switch {
	case errors.Is(err, usersservice.ErrSelfDemotion):
		log.Info("self demotion rejected", slog.String("user_uid", uid))
		response.JSONError(w, r, http.StatusConflict, usersservice.ErrSelfDemotion.Error())
		return
	case errors.Is(err, usersservice.ErrInvalidRole):
		response.JSONError(w, r, http.StatusUnprocessableEntity, usersservice.ErrInvalidRole.Error())
		return
	case err != nil:
		log.Error("failed to update user", slog.String("user_uid", uid), sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}

	log.Info("user updated", slog.String("user_uid", uid))
	render.JSON(w, r, response.StatusOKWithData(user))
}
