// Package logout сбрасывает cookie сессии. Токен остается действительным до
// истечения срока, отзыва токенов нет.
package logout

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/finletter/internal/config"
	"github.com/magabrotheeeer/finletter/internal/http/response"
	"github.com/magabrotheeeer/finletter/internal/http/sessioncookie"
)

// Handler обрабатывает POST /auth/logout.
type Handler struct {
	cookie config.SessionCookie
}

// New создает Handler.
func New(cookie config.SessionCookie) *Handler {
	return &Handler{cookie: cookie}
}

// ServeHTTP godoc
// @Summary Выход
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessioncookie.Clear(w, h.cookie)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"message": "logged out"}))
}
