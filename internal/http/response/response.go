// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Пакет упрощает возврат
// успешных ответов, ошибок и сообщений валидации в едином формате.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/finletter/internal/lib/lifecycle"
	"github.com/magabrotheeeer/finletter/internal/models"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status — статус запроса ("OK" или "Error").
// Поле Error — текст ошибки (опционально, при неуспехе).
// Поле Data — данные ответа (опционально, при успехе).
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// JSONError пишет ошибку с HTTP-статусом code.
func JSONError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	render.Status(r, code)
	render.JSON(w, r, Error(msg))
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s characters", err.Field(), err.Param()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s characters", err.Field(), err.Param()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		case "alphanum":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers and letters", err.Field()))
		case "numeric":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers", err.Field()))
		case "uuid":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only uuid", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

// Validation пишет ответ 422 по ошибке валидатора. Ошибка другого типа
// считается некорректным телом запроса.
func Validation(w http.ResponseWriter, r *http.Request, err error) {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		JSONError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	render.Status(r, http.StatusUnprocessableEntity)
	render.JSON(w, r, ValidationError(verrs))
}

// StatusFor сопоставляет ошибку бизнес-логики HTTP-статусу и сообщению для
// клиента. Неизвестные ошибки считаются внутренними.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, models.ErrAlreadyExists):
		return http.StatusConflict, "already exists"
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return http.StatusConflict, lifecycle.ErrInvalidTransition.Error()
	case errors.Is(err, lifecycle.ErrScheduleInPast):
		return http.StatusUnprocessableEntity, lifecycle.ErrScheduleInPast.Error()
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, models.ErrUserInactive):
		return http.StatusForbidden, "user is inactive"
	}
	return http.StatusInternalServerError, "internal error"
}

// ServiceError пишет ответ по ошибке бизнес-логики.
func ServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := StatusFor(err)
	JSONError(w, r, code, msg)
}
