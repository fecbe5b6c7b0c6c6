// Package scheduler воркер отложенной публикации материалов.
package scheduler

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
	"github.com/magabrotheeeer/finletter/internal/metrics"
	contentservice "github.com/magabrotheeeer/finletter/internal/services/content"
	notificationservice "github.com/magabrotheeeer/finletter/internal/services/notification"
	schedulerservice "github.com/magabrotheeeer/finletter/internal/services/scheduler"
	"github.com/magabrotheeeer/finletter/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.SchedulerService
	db               *repository.Storage
	cache            *cache.Cache
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

// New создает новый экземпляр приложения планировщика. Опубликованные
// материалы ставят рассылку в ту же очередь, что и API.
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
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues(), 0)
	if err != nil {
		closeResources(nil, conn, logger)
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	campaigns := notificationservice.NewService(logger, notificationservice.Deps{
		Publisher: rabbitmq.NewPublisher(ch),
		Metrics:   m,
	}, notificationservice.Site{Name: cfg.SiteName, URL: cfg.SiteURL}, dispatch.Options{})
	content := contentservice.NewService(logger, db, cacheRedis, campaigns, m, cfg.CacheTTL, cfg.SiteURL)

	return &App{
		schedulerService: schedulerservice.NewSchedulerService(content, cfg.Interval, m, logger),
		db:               db,
		cache:            cacheRedis,
		conn:             conn,
		ch:               ch,
		logger:           logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.schedulerService.PublishScheduled(ctx)

	a.logger.Info("shutting down scheduler service")
	closeResources(a.ch, a.conn, a.logger)
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	return nil
}
