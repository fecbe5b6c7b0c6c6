package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/finletter/internal/http/response"
	"github.com/magabrotheeeer/finletter/internal/lib/access"
)

// RequireCapability пропускает запрос, только если pred истинен для сессии
// из контекста. Ставится после JWTMiddleware.
func RequireCapability(log *slog.Logger, name string, pred access.Predicate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFromContext(r.Context())
			if session == nil {
				unauthorized(w, r, "authentication required")
				return
			}
			if !pred(session) {
				log.Warn("access denied",
					slog.String("capability", name),
					slog.String("user_uid", session.UserUID),
					slog.String("role", string(session.Role)),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				response.JSONError(w, r, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
