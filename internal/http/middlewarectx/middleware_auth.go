// Package middlewarectx содержит HTTP middleware для проверки сессии,
// ролевых ограничений и ограничения частоты запросов.
//
// JWTMiddleware извлекает токен из заголовка Authorization или из cookie
// сессии, проверяет его и кладет снимок сессии в контекст запроса.
// Без действительной сессии запрос получает 401 и заголовок Location на
// страницу входа.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/finletter/internal/config"
	"github.com/magabrotheeeer/finletter/internal/http/response"
	"github.com/magabrotheeeer/finletter/internal/http/sessioncookie"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// SessionKey ключ снимка сессии в контексте.
const SessionKey Key = "session"

// LoginPath страница входа для неавторизованных запросов.
const LoginPath = "/login"

// Service описывает проверку токена сессии.
type Service interface {
	ValidateToken(token string) (*models.Session, error)
}

// WithSession кладет снимок сессии в контекст.
func WithSession(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

// SessionFromContext возвращает снимок сессии или nil.
func SessionFromContext(ctx context.Context) *models.Session {
	s, _ := ctx.Value(SessionKey).(*models.Session)
	return s
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// JWTMiddleware возвращает middleware, которое пропускает запрос только с
// действительной сессией. Заголовок Authorization имеет приоритет над cookie.
func JWTMiddleware(authService Service, cookie config.SessionCookie, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token := bearerToken(r)
			if token == "" {
				token = sessioncookie.Token(r, cookie)
			}
			if token == "" {
				log.Info("missing session token")
				unauthorized(w, r, "authentication required")
				return
			}

			session, err := authService.ValidateToken(token)
			if err != nil {
				log.Info("invalid or expired token", sl.Err(err))
				unauthorized(w, r, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("Location", LoginPath)
	response.JSONError(w, r, http.StatusUnauthorized, msg)
}
