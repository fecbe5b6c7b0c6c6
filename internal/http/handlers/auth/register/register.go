// Package register реализует HTTP-обработчик регистрации пользователя.
//
// После успешной регистрации пользователь сразу входит в систему: обработчик
// выставляет cookie сессии и возвращает токен.
package register

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/finletter/internal/config"
	"github.com/magabrotheeeer/finletter/internal/http/response"
	"github.com/magabrotheeeer/finletter/internal/http/sessioncookie"
	"github.com/magabrotheeeer/finletter/internal/lib/password"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/models"
	authservice "github.com/magabrotheeeer/finletter/internal/services/auth"
)

// Request — структура входных данных для регистрации.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Service описывает регистрацию и вход.
type Service interface {
	Register(ctx context.Context, email, name, password string) (string, error)
	Login(ctx context.Context, email, password string) (*authservice.Issued, error)
}

// Handler обрабатывает HTTP-запросы регистрации.
type Handler struct {
	log      *slog.Logger
	service  Service
	cookie   config.SessionCookie
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, cookie config.SessionCookie) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		cookie:   cookie,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Регистрация пользователя
// @Description Создает пользователя с ролью USER, выставляет cookie сессии и возвращает токен.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные пользователя"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Email уже занят"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	uid, err := h.service.Register(r.Context(), req.Email, req.Name, req.Password)
	switch {
	case errors.Is(err, models.ErrAlreadyExists):
		response.JSONError(w, r, http.StatusConflict, "user with this email already exists")
		return
	case errors.Is(err, password.ErrTooLong):
		response.JSONError(w, r, http.StatusUnprocessableEntity, "password is too long")
		return
	case err != nil:
		log.Error("failed to register user", sl.Err(err))
		response.JSONError(w, r, http.StatusInternalServerError, "failed to register user")
		return
	}

	issued, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Error("failed to issue session after registration", sl.Err(err))
		response.JSONError(w, r, http.StatusInternalServerError, "failed to register user")
		return
	}
	sessioncookie.Set(w, h.cookie, issued.Token, issued.ExpiresAt)

	log.Info("user registered", slog.String("user_uid", uid))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"uid":        uid,
		"token":      issued.Token,
		"expires_at": issued.ExpiresAt,
		"session":    issued.Session,
	}))
}
