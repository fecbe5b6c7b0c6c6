package content

import (
	"context"
	"encoding/json"
	"fmt"
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

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateContent(ctx context.Context, c models.Content) (int, error) {
	args := m.Called(ctx, c)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) GetContent(ctx context.Context, id int) (*models.Content, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Content), args.Error(1)
}

// UpdateContentText возвращает переданный материал, если результат не задан явно.
func (m *MockRepository) UpdateContentText(ctx context.Context, c models.Content) (*models.Content, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		if err := args.Error(1); err != nil {
			return nil, err
		}
		return &c, nil
	}
	return args.Get(0).(*models.Content), args.Error(1)
}

// SetContentStatus возвращает переданный материал, если результат не задан явно.
func (m *MockRepository) SetContentStatus(ctx context.Context, c models.Content, from models.ContentStatus) (*models.Content, error) {
	args := m.Called(ctx, c, from)
	if args.Get(0) == nil {
		if err := args.Error(1); err != nil {
			return nil, err
		}
		return &c, nil
	}
	return args.Get(0).(*models.Content), args.Error(1)
}

func (m *MockRepository) DeleteContent(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) ListContent(ctx context.Context, filter models.ContentFilter) ([]*models.Content, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Content), args.Error(1)
}

func (m *MockRepository) ListDueContent(ctx context.Context, now time.Time, limit int) ([]*models.Content, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Content), args.Error(1)
}

// memoryCache кэш в памяти с JSON-сериализацией, как в redis.
type memoryCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	removed []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string, result any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return false, c.getErr
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, result)
}

func (c *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.removed = append(c.removed, k)
	}
	return nil
}

type MockCampaigns struct {
	mock.Mock
}

func (m *MockCampaigns) EnqueueCampaign(ctx context.Context, campaign models.Campaign) (string, error) {
	args := m.Called(ctx, campaign)
	return args.String(0), args.Error(1)
}

// memoryRepository хранилище в памяти с той же проверкой статуса при записи,
// что и в postgres. Хуки вызываются один раз после чтения, до возврата
// результата, и позволяют вклинить параллельное действие.
type memoryRepository struct {
	mu     sync.Mutex
	items  map[int]models.Content
	nextID int

	afterGet  func()
	afterList func()
}

func newMemoryRepository(items ...*models.Content) *memoryRepository {
	r := &memoryRepository{items: map[int]models.Content{}, nextID: 100}
	for _, c := range items {
		r.items[c.ID] = *c
	}
	return r
}

func (r *memoryRepository) stored(id int) models.Content {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id]
}

func runOnce(hook *func()) {
	if h := *hook; h != nil {
		*hook = nil
		h()
	}
}

func (r *memoryRepository) CreateContent(_ context.Context, c models.Content) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	r.items[c.ID] = c
	return c.ID, nil
}

func (r *memoryRepository) GetContent(_ context.Context, id int) (*models.Content, error) {
	r.mu.Lock()
	c, ok := r.items[id]
	r.mu.Unlock()
	if !ok {
		return nil, models.ErrNotFound
	}
	runOnce(&r.afterGet)
	return &c, nil
}

func (r *memoryRepository) UpdateContentText(_ context.Context, c models.Content) (*models.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[c.ID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cur.Title, cur.Summary, cur.Body, cur.Tags, cur.IsPremium = c.Title, c.Summary, c.Body, c.Tags, c.IsPremium
	r.items[c.ID] = cur
	return &cur, nil
}

func (r *memoryRepository) SetContentStatus(_ context.Context, c models.Content, from models.ContentStatus) (*models.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[c.ID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if cur.Status != from {
		return nil, fmt.Errorf("expected %s, got %s: %w", from, cur.Status, models.ErrStatusChanged)
	}
	cur.Status, cur.ScheduledFor, cur.PublishedAt = c.Status, c.ScheduledFor, c.PublishedAt
	r.items[c.ID] = cur
	return &cur, nil
}

func (r *memoryRepository) DeleteContent(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *memoryRepository) ListContent(_ context.Context, filter models.ContentFilter) ([]*models.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Content
	for _, c := range r.items {
		if c.Kind == filter.Kind {
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memoryRepository) ListDueContent(_ context.Context, now time.Time, _ int) ([]*models.Content, error) {
	r.mu.Lock()
	var out []*models.Content
	for _, c := range r.items {
		if c.Status == models.ContentScheduled && c.ScheduledFor != nil && !c.ScheduledFor.After(now) {
			out = append(out, &c)
		}
	}
	r.mu.Unlock()
	runOnce(&r.afterList)
	return out, nil
}
