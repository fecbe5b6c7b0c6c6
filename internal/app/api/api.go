package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/finletter/internal/cache"
	"github.com/magabrotheeeer/finletter/internal/config"
	"github.com/magabrotheeeer/finletter/internal/http/handlers/health"
	"github.com/magabrotheeeer/finletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/finletter/internal/lib/dispatch"
	"github.com/magabrotheeeer/finletter/internal/lib/jwt"
	"github.com/magabrotheeeer/finletter/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/lib/smtp"
	"github.com/magabrotheeeer/finletter/internal/metrics"
	"github.com/magabrotheeeer/finletter/internal/migrations"
	"github.com/magabrotheeeer/finletter/internal/paymentprovider"
	authservice "github.com/magabrotheeeer/finletter/internal/services/auth"
	billingservice "github.com/magabrotheeeer/finletter/internal/services/billing"
	contentservice "github.com/magabrotheeeer/finletter/internal/services/content"
	notificationservice "github.com/magabrotheeeer/finletter/internal/services/notification"
	usersservice "github.com/magabrotheeeer/finletter/internal/services/users"
	"github.com/magabrotheeeer/finletter/internal/storage/repository"
)

// MigrationsPath каталог SQL-миграций относительно рабочей директории.
const MigrationsPath = "./migrations"

// App HTTP API вместе с открытыми соединениями.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключает хранилище, кэш и брокер, накатывает миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err = migrations.Run(db.DB, MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.ConnRetries, cfg.ConnRetryWait)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues(), 0)
	if err != nil {
		_ = conn.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	notifications := notificationservice.NewService(logger, notificationservice.Deps{
		Mailer:      smtp.NewMailer(smtp.NewTransport(cfg.SMTP, logger), cfg.MailFrom),
		Logs:        db,
		Recipients:  db,
		Idempotency: cacheRedis,
		Publisher:   rabbitmq.NewPublisher(ch),
		Metrics:     m,
	}, notificationservice.Site{
		Name:        cfg.SiteName,
		URL:         cfg.SiteURL,
		AdminEmails: cfg.AdminEmails,
	}, dispatch.Options{
		BatchSize:           cfg.BatchSize,
		DelayBetweenBatches: cfg.DelayBetweenBatches,
		MaxRetries:          cfg.Dispatch.MaxRetries,
		InitialBackoff:      cfg.InitialBackoff,
	})

	maker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	deps := Deps{
		Auth:          authservice.NewService(logger, db, db, maker, notifications, cfg.BootstrapAdmins),
		Content:       contentservice.NewService(logger, db, cacheRedis, notifications, m, cfg.CacheTTL, cfg.SiteURL),
		Notifications: notifications,
		Billing: billingservice.NewService(logger, paymentprovider.NewClient(cfg.Stripe, nil),
			db, cacheRedis, notifications, m),
		Users: usersservice.NewService(logger, db),
		Health: map[string]health.Pinger{
			"postgres": db,
			"redis":    cacheRedis,
		},
		Limiter:           middlewarectx.NewIPLimiter(cfg.RateLimitRPS, cfg.RateBurst),
		Cookie:            cfg.SessionCookie,
		EmailEventsSecret: cfg.EmailEventsSecret,
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, deps)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
