package notification

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/finletter/internal/models"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, email models.Email) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

// memoryLogs потокобезопасный журнал в памяти.
type memoryLogs struct {
	mu      sync.Mutex
	entries []models.EmailLog
	err     error
}

func (l *memoryLogs) AppendEmailLog(_ context.Context, entry models.EmailLog) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return 0, l.err
	}
	entry.ID = len(l.entries) + 1
	l.entries = append(l.entries, entry)
	return entry.ID, nil
}

func (l *memoryLogs) LatestEmailLog(_ context.Context, messageID string) (*models.EmailLog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].MessageID == messageID {
			e := l.entries[i]
			return &e, nil
		}
	}
	return nil, models.ErrNotFound
}

func (l *memoryLogs) ListEmailLogs(_ context.Context, campaignID string, limit, offset int) ([]*models.EmailLog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*models.EmailLog
	for i := range l.entries {
		if l.entries[i].CampaignID == campaignID {
			e := l.entries[i]
			out = append(out, &e)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	return out[offset:min(len(out), offset+limit)], nil
}

func (l *memoryLogs) CampaignStats(_ context.Context, campaignID string) (map[models.EmailStatus]int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	latest := map[string]models.EmailStatus{}
	for _, e := range l.entries {
		if e.CampaignID == campaignID {
			latest[e.Recipient] = e.Status
		}
	}
	stats := map[models.EmailStatus]int{}
	for _, st := range latest {
		stats[st]++
	}
	return stats, nil
}

func (l *memoryLogs) byStatus(status models.EmailStatus) []models.EmailLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.EmailLog
	for _, e := range l.entries {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

type MockRecipients struct {
	mock.Mock
}

func (m *MockRecipients) ListRecipients(ctx context.Context, audience models.AudienceFilter) ([]models.Recipient, error) {
	args := m.Called(ctx, audience)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Recipient), args.Error(1)
}

type MockIdempotency struct {
	mock.Mock
}

func (m *MockIdempotency) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotency) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey, messageID string, message any) error {
	return m.Called(ctx, routingKey, messageID, message).Error(0)
}
