// Package login реализует HTTP-обработчик входа по email и паролю.
//
// При успешной аутентификации выставляется HttpOnly cookie сессии, а токен и
// снимок сессии возвращаются в теле ответа для API-клиентов.
package login

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
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/models"
	authservice "github.com/magabrotheeeer/finletter/internal/services/auth"
)

// Request — структура входных данных для авторизации.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Login(ctx context.Context, email, password string) (*authservice.Issued, error)
}

// Handler обрабатывает HTTP-запросы для авторизации.
type Handler struct {
	log      *slog.Logger         // Логгер для записи операций и ошибок
	service  Service              // Сервис аутентификации
	cookie   config.SessionCookie // Параметры cookie сессии
	validate *validator.Validate  // Валидатор для проверки входных данных
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
// @Summary Авторизация пользователя
// @Description Проверяет email и пароль, выставляет cookie сессии и возвращает токен.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные пользователя"
// @Success 200 {object} response.Response "Успешная авторизация"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 403 {object} response.ErrorResponse "Пользователь заблокирован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

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

	issued, err := h.service.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		log.Info("invalid credentials")
		response.JSONError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	case errors.Is(err, models.ErrUserInactive):
		log.Info("inactive user tried to log in")
		response.JSONError(w, r, http.StatusForbidden, "user is inactive")
		return
	case err != nil:
		log.Error("login failed", sl.Err(err))
		response.JSONError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	sessioncookie.Set(w, h.cookie, issued.Token, issued.ExpiresAt)
	log.Info("login success", slog.String("user_uid", issued.Session.UserUID))
	render.JSON(w, r, response.StatusOKWithData(issued))
}
