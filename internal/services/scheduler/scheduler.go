// Package scheduler периодически публикует запланированные материалы.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/metrics"
)

// DefaultBatch сколько материалов публикуется за один проход.
const DefaultBatch = 100

// Publisher публикует материалы, время которых наступило.
type Publisher interface {
	PublishDue(ctx context.Context, limit int) (int, error)
}

// SchedulerService запускает публикацию по таймеру.
type SchedulerService struct {
	publisher Publisher
	interval  time.Duration
	batch     int
	metrics   *metrics.Metrics
	log       *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(publisher Publisher, interval time.Duration, m *metrics.Metrics, log *slog.Logger) *SchedulerService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SchedulerService{
		publisher: publisher,
		interval:  interval,
		batch:     DefaultBatch,
		metrics:   m,
		log:       log,
	}
}

// PublishScheduled выполняет первый проход сразу, затем каждые interval
// до отмены ctx.
func (s *SchedulerService) PublishScheduled(ctx context.Context) {
	s.runPublishScheduled(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.runPublishScheduled(ctx)
		}
	}
}

// runPublishScheduled повторяет проход, пока пачка заполняется целиком.
func (s *SchedulerService) runPublishScheduled(ctx context.Context) {
	total := 0
	for ctx.Err() == nil {
		n, err := s.publisher.PublishDue(ctx, s.batch)
		if err != nil {
			s.log.Error("failed to publish scheduled content", sl.Err(err))
			break
		}
		total += n
		if n < s.batch {
			break
		}
	}
	if total == 0 {
		s.log.Debug("no scheduled content due")
		return
	}
	s.metrics.ScheduledPublished(total)
	s.log.Info("published scheduled content", slog.Int("count", total))
}
