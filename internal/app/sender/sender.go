// Package sender воркер массовых рассылок: читает очередь и отправляет письма пачками.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/finletter/internal/cache"
	"github.com/magabrotheeeer/finletter/internal/config"
	"github.com/magabrotheeeer/finletter/internal/lib/dispatch"
	"github.com/magabrotheeeer/finletter/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/lib/smtp"
	"github.com/magabrotheeeer/finletter/internal/metrics"
	notificationservice "github.com/magabrotheeeer/finletter/internal/services/notification"
	"github.com/magabrotheeeer/finletter/internal/storage/repository"
)

// Рассылки обрабатываются по одной: параллелизм уже внутри пачки.
const consumerConcurrency = 1

// App воркер рассылок.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	db            *repository.Storage
	cache         *cache.Cache
	notifications *notificationservice.Service
	logger        *slog.Logger
}

// New подключает хранилище, redis и брокер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
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
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues(), consumerConcurrency)
	if err != nil {
		_ = conn.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	notifications := notificationservice.NewService(logger, notificationservice.Deps{
		Mailer:      smtp.NewMailer(smtp.NewTransport(cfg.SMTP, logger), cfg.MailFrom),
		Logs:        db,
		Recipients:  db,
		Idempotency: cacheRedis,
		Metrics:     metrics.New(prometheus.DefaultRegisterer),
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

	return &App{
		conn:          conn,
		ch:            ch,
		db:            db,
		cache:         cacheRedis,
		notifications: notifications,
		logger:        logger,
	}, nil
}

// Run читает очередь рассылок до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("consuming campaigns", slog.String("queue", rabbitmq.CampaignQueue.QueueName))
	err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.CampaignQueue.QueueName,
		consumerConcurrency, a.notifications.HandleCampaign)

	a.logger.Info("sender service shutting down gracefully")
	if cerr := a.ch.Close(); cerr != nil {
		a.logger.Error("failed to close channel", sl.Err(cerr))
	}
	if cerr := a.conn.Close(); cerr != nil {
		a.logger.Error("failed to close connection", sl.Err(cerr))
	}
	if cerr := a.cache.Close(); cerr != nil {
		a.logger.Error("failed to close redis", sl.Err(cerr))
	}
	if cerr := a.db.Close(); cerr != nil {
		a.logger.Error("failed to close storage", sl.Err(cerr))
	}
	if err != nil {
		return fmt.Errorf("campaign consumer: %w", err)
	}
	return nil
}
