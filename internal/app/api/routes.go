// Package api собирает HTTP API: маршруты, middleware и зависимости.
package api

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/finletter/internal/config"
	"github.com/magabrotheeeer/finletter/internal/http/handlers/admin/campaignlogs"
	"github.com/magabrotheeeer/finletter/internal/http/handlers/admin/createcampaign"
	"github.com/magabrotheeeer/finletter/internal/http/handlers/admin/listusers"
	"github.com/magabrotheeeer/finletter/internal/http/handlers/admin/updateuser"
	"github.com/magabrotheeeer/finletter/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/finletter/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/finletter/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/finletter/internal/http/handlers/auth/refresh"
	"github.com/magabrotheeeer/finletter/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/finletter/internal/http/handlers/billing/checkout"
	"github.com/magabrotheeeer/finletter/internal/http/handlers/billing/subscription"
	"github.com/magabrotheeeer/finletter/internal/http/handlers/billing/webhook"
	"github.com/magabrotheeeer/finletter/internal/http/handlers/content/create"
	contentlist "github.com/magabrotheeeer/finletter/internal/http/handlers/content/list"
	contentread "github.com/magabrotheeeer/finletter/internal/http/handlers/content/read"
	"github.com/magabrotheeeer/finletter/internal/http/handlers/content/remove"
	"github.com/magabrotheeeer/finletter/internal/http/handlers/content/transition"
	"github.com/magabrotheeeer/finletter/internal/http/handlers/content/update"
	"github.com/magabrotheeeer/finletter/internal/http/handlers/emailevents"
	feedlist "github.com/magabrotheeeer/finletter/internal/http/handlers/feed/list"
	feedread "github.com/magabrotheeeer/finletter/internal/http/handlers/feed/read"
	"github.com/magabrotheeeer/finletter/internal/http/handlers/health"
	"github.com/magabrotheeeer/finletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/finletter/internal/lib/access"
)

// AuthService операции аутентификации, нужные маршрутам.
type AuthService interface {
	register.Service
	refresh.Service
	middlewarectx.Service
}

// ContentService операции над материалами для редакторов и читателей.
type ContentService interface {
	create.Service
	contentread.Service
	update.Service
	remove.Service
	contentlist.Service
	transition.Service
	feedlist.Service
	feedread.Service
}

// NotificationService рассылки и события почтового провайдера.
type NotificationService interface {
	createcampaign.Service
	campaignlogs.Service
	emailevents.Service
}

// BillingService оплата подписки.
type BillingService interface {
	checkout.Service
	subscription.Service
	webhook.Service
}

// UsersService управление пользователями.
type UsersService interface {
	listusers.Service
	updateuser.Service
}

// Deps зависимости маршрутов.
type Deps struct {
	Auth              AuthService
	Content           ContentService
	Notifications     NotificationService
	Billing           BillingService
	Users             UsersService
	Health            map[string]health.Pinger
	Limiter           *middlewarectx.IPLimiter // nil отключает ограничение частоты
	Cookie            config.SessionCookie
	EmailEventsSecret string
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	// Глобальные middleware. RealIP доверяет X-Forwarded-For, сервис
	// разворачивается только за доверенным прокси.
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Get("/health", health.New(logger, d.Health, 0).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)

	r.Route("/api/v1", func(r chi.Router) {
		if d.Limiter != nil {
			r.Use(middlewarectx.RateLimitMiddleware(logger, d.Limiter))
		}

		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, d.Auth, d.Cookie).ServeHTTP)
		r.Post("/auth/login", login.New(logger, d.Auth, d.Cookie).ServeHTTP)
		r.Post("/billing/webhook", webhook.New(logger, d.Billing).ServeHTTP)
		r.Post("/email/events", emailevents.New(logger, d.Notifications, d.EmailEventsSecret).ServeHTTP)

		// Группа с проверкой сессии
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(d.Auth, d.Cookie, logger))

			r.Post("/auth/refresh", refresh.New(logger, d.Auth, d.Cookie).ServeHTTP)
			r.Post("/auth/logout", logout.New(d.Cookie).ServeHTTP)
			r.Get("/auth/me", me.New().ServeHTTP)

			r.Get("/feed/{kind}", feedlist.New(logger, d.Content).ServeHTTP)
			r.Get("/feed/{kind}/{id}", feedread.New(logger, d.Content).ServeHTTP)

			r.Post("/billing/checkout", checkout.New(logger, d.Billing).ServeHTTP)
			r.Get("/billing/subscription", subscription.New(logger, d.Billing).ServeHTTP)

			r.Route("/content/{kind}", func(r chi.Router) {
				r.Use(middlewarectx.RequireCapability(logger, "manage_content", access.CanManageContent))
				r.Get("/", contentlist.New(logger, d.Content).ServeHTTP)
				r.Post("/", create.New(logger, d.Content).ServeHTTP)
				r.Get("/{id}", contentread.New(logger, d.Content).ServeHTTP)
				r.Put("/{id}", update.New(logger, d.Content).ServeHTTP)
				r.Delete("/{id}", remove.New(logger, d.Content).ServeHTTP)
				r.Post("/{id}/{action}", transition.New(logger, d.Content).ServeHTTP)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.RequireCapability(logger, "manage_users", access.CanManageUsers))
				r.Get("/users", listusers.New(logger, d.Users).ServeHTTP)
				r.Patch("/users/{uid}", updateuser.New(logger, d.Users).ServeHTTP)
				r.Post("/campaigns", createcampaign.New(logger, d.Notifications).ServeHTTP)
				r.Get("/campaigns/{id}/logs", campaignlogs.New(logger, d.Notifications).ServeHTTP)
			})
		})
	})
}
