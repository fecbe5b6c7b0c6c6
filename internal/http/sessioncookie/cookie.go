// Package sessioncookie выставляет и сбрасывает cookie с токеном сессии.
package sessioncookie

import (
	"net/http"
	"time"

	"github.com/magabrotheeeer/finletter/internal/config"
)

// DefaultName имя cookie, если в настройках оно не задано.
const DefaultName = "session"

func name(cfg config.SessionCookie) string {
	if cfg.CookieName == "" {
		return DefaultName
	}
	return cfg.CookieName
}

// Set выставляет HttpOnly cookie с токеном до expires.
func Set(w http.ResponseWriter, cfg config.SessionCookie, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name(cfg),
		Value:    token,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear удаляет cookie сессии.
func Clear(w http.ResponseWriter, cfg config.SessionCookie) {
	http.SetCookie(w, &http.Cookie{
		Name:     name(cfg),
		Value:    "",
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Token читает токен из cookie.
func Token(r *http.Request, cfg config.SessionCookie) string {
	c, err := r.Cookie(name(cfg))
	if err != nil {
		return ""
	}
	return c.Value
}
