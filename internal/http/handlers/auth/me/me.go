// Package me возвращает снимок текущей сессии.
package me

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/finletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/finletter/internal/http/response"
	"github.com/magabrotheeeer/finletter/internal/lib/access"
)

// Handler обрабатывает GET /auth/me.
type Handler struct{}

// New создает Handler.
func New() *Handler {
	return &Handler{}
}

// ServeHTTP godoc
// @Summary Текущая сессия
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	session := middlewarectx.SessionFromContext(r.Context())
	if session == nil {
		response.JSONError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"session":        session,
		"premium_access": access.HasPremiumAccess(session),
	}))
}
