// Package content управляет авторскими материалами: хранение, смена статуса
// через таблицу переходов и выдача ленты читателям с учетом подписки.
package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/finletter/internal/lib/access"
	"github.com/magabrotheeeer/finletter/internal/lib/lifecycle"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/metrics"
	"github.com/magabrotheeeer/finletter/internal/models"
)

var (
	// ErrLocked премиум-материал недоступен без платной подписки.
	ErrLocked = errors.New("premium content requires an active subscription")
	// ErrUnknownAction действие над материалом не поддерживается.
	ErrUnknownAction = errors.New("unknown content action")
)

// Repository хранилище материалов.
type Repository interface {
	CreateContent(ctx context.Context, c models.Content) (int, error)
	GetContent(ctx context.Context, id int) (*models.Content, error)
	UpdateContentText(ctx context.Context, c models.Content) (*models.Content, error)
	SetContentStatus(ctx context.Context, c models.Content, from models.ContentStatus) (*models.Content, error)
	DeleteContent(ctx context.Context, id int) error
	ListContent(ctx context.Context, filter models.ContentFilter) ([]*models.Content, error)
	ListDueContent(ctx context.Context, now time.Time, limit int) ([]*models.Content, error)
}

// Cache кэш материалов по ID.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Campaigns постановка рассылки о новом материале.
type Campaigns interface {
	EnqueueCampaign(ctx context.Context, campaign models.Campaign) (string, error)
}

// Action действие над материалом из POST /content/{kind}/{id}/{action}.
type Action string

const (
	ActionPublish    Action = "publish"
	ActionArchive    Action = "archive"
	ActionSchedule   Action = "schedule"
	ActionUnschedule Action = "unschedule"
	ActionRestore    Action = "restore"
	ActionDuplicate  Action = "duplicate"
)

// Valid сообщает, что действие поддерживается.
func (a Action) Valid() bool {
	switch a {
	case ActionPublish, ActionArchive, ActionSchedule, ActionUnschedule, ActionRestore, ActionDuplicate:
		return true
	}
	return false
}

// Service бизнес-логика материалов.
type Service struct {
	log       *slog.Logger
	repo      Repository
	cache     Cache
	campaigns Campaigns
	metrics   *metrics.Metrics
	cacheTTL  time.Duration
	siteURL   string
	now       func() time.Time
}

// NewService создает Service. campaigns может быть nil, тогда публикация
// проходит без рассылки.
func NewService(log *slog.Logger, repo Repository, cache Cache, campaigns Campaigns, m *metrics.Metrics,
	cacheTTL time.Duration, siteURL string) *Service {
	return &Service{
		log:       log,
		repo:      repo,
		cache:     cache,
		campaigns: campaigns,
		metrics:   m,
		cacheTTL:  cacheTTL,
		siteURL:   siteURL,
		now:       time.Now,
	}
}

func cacheKey(id int) string {
	return fmt.Sprintf("content:%d", id)
}

// Create сохраняет новый черновик от имени автора сессии.
func (s *Service) Create(ctx context.Context, session *models.Session, kind models.ContentKind,
	req models.DummyContent) (*models.Content, error) {
	const op = "content.Create"
	now := s.now().UTC()
	item := models.Content{
		Kind:      kind,
		Title:     req.Title,
		Summary:   req.Summary,
		Body:      req.Body,
		Tags:      req.Tags,
		Status:    models.ContentDraft,
		IsPremium: req.IsPremium,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if session != nil {
		item.AuthorUID = session.UserUID
	}
	id, err := s.repo.CreateContent(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	item.ID = id
	s.log.Info("content created", slog.Int("id", id), slog.String("kind", string(kind)))
	return &item, nil
}

// Get возвращает материал указанного типа в любом статусе.
func (s *Service) Get(ctx context.Context, kind models.ContentKind, id int) (*models.Content, error) {
	const op = "content.Get"
	key := cacheKey(id)

	var cached models.Content
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read content from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		if cached.Kind != kind {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return &cached, nil
	}

	item, err := s.repo.GetContent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if item.Kind != kind {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	if err := s.cache.Set(ctx, key, item, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache content", slog.String("key", key), sl.Err(err))
	}
	return item, nil
}

// Update меняет текст материала. Статус меняется только через Transition.
func (s *Service) Update(ctx context.Context, kind models.ContentKind, id int,
	req models.DummyContent) (*models.Content, error) {
	const op = "content.Update"
	item, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	saved, err := s.repo.UpdateContentText(ctx, models.Content{
		ID:        item.ID,
		Title:     req.Title,
		Summary:   req.Summary,
		Body:      req.Body,
		Tags:      req.Tags,
		IsPremium: req.IsPremium,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, saved.ID)
	return saved, nil
}

// Remove удаляет материал.
func (s *Service) Remove(ctx context.Context, kind models.ContentKind, id int) error {
	const op = "content.Remove"
	if _, err := s.Get(ctx, kind, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, id)
	if err := s.repo.DeleteContent(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("content removed", slog.Int("id", id))
	return nil
}

// List материалы для редакторов, пустой statuses означает любой статус.
func (s *Service) List(ctx context.Context, kind models.ContentKind, statuses []models.ContentStatus,
	limit, offset int) ([]*models.Content, error) {
	const op = "content.List"
	items, err := s.repo.ListContent(ctx, models.ContentFilter{
		Kind:     kind,
		Statuses: statuses,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// Transition выполняет действие над материалом. at нужен только для schedule.
// duplicate возвращает новую копию в статусе DRAFT.
func (s *Service) Transition(ctx context.Context, session *models.Session, kind models.ContentKind, id int,
	action Action, at *time.Time) (*models.Content, error) {
	const op = "content.Transition"
	if !action.Valid() {
		return nil, fmt.Errorf("%s: %q: %w", op, action, ErrUnknownAction)
	}
	item, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now().UTC()
	from := item.Status

	switch action {
	case ActionDuplicate:
		return s.duplicate(ctx, session, item)
	case ActionSchedule:
		if at == nil {
			return nil, fmt.Errorf("%s: %w", op, lifecycle.ErrScheduleInPast)
		}
		err = lifecycle.Schedule(item, at.UTC(), now)
	case ActionPublish:
		return s.publish(ctx, item, now)
	case ActionArchive:
		err = lifecycle.Apply(item, models.ContentArchived, now)
	case ActionUnschedule:
		if item.Status != models.ContentScheduled {
			return nil, fmt.Errorf("%s: %s is not scheduled: %w", op, item.Status, lifecycle.ErrInvalidTransition)
		}
		err = lifecycle.Apply(item, models.ContentDraft, now)
	case ActionRestore:
		if item.Status != models.ContentArchived {
			return nil, fmt.Errorf("%s: %s is not archived: %w", op, item.Status, lifecycle.ErrInvalidTransition)
		}
		err = lifecycle.Apply(item, models.ContentDraft, now)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	saved, err := s.saveStatus(ctx, op, item, from)
	if err != nil {
		return nil, err
	}
	s.metrics.Transition(string(saved.Status))
	s.log.Info("content status changed",
		slog.Int("id", saved.ID),
		slog.String("action", string(action)),
		slog.String("status", string(saved.Status)),
	)
	return saved, nil
}

// PublishDue публикует запланированные материалы, время которых наступило.
// Ошибка одного материала не останавливает остальные.
func (s *Service) PublishDue(ctx context.Context, limit int) (int, error) {
	const op = "content.PublishDue"
	now := s.now().UTC()
	due, err := s.repo.ListDueContent(ctx, now, limit)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	published := 0
	for _, item := range due {
		if !lifecycle.Due(item, now) {
			continue
		}
		if _, err := s.publish(ctx, item, now); err != nil {
			if errors.Is(err, models.ErrStatusChanged) {
				s.log.Info("scheduled content changed status, skipping", slog.Int("id", item.ID))
				continue
			}
			s.log.Error("failed to publish scheduled content", slog.Int("id", item.ID), sl.Err(err))
			continue
		}
		published++
	}
	return published, nil
}

func (s *Service) publish(ctx context.Context, item *models.Content, now time.Time) (*models.Content, error) {
	const op = "content.publish"
	from := item.Status
	if err := lifecycle.Apply(item, models.ContentPublished, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if from == models.ContentPublished {
		return item, nil
	}

	saved, err := s.saveStatus(ctx, op, item, from)
	if err != nil {
		return nil, err
	}
	s.metrics.Transition(string(models.ContentPublished))
	s.log.Info("content published", slog.Int("id", saved.ID), slog.Bool("premium", saved.IsPremium))
	s.announce(ctx, saved)
	return saved, nil
}

// announce ставит рассылку о публикации. Ошибка очереди не отменяет публикацию.
func (s *Service) announce(ctx context.Context, item *models.Content) {
	if s.campaigns == nil {
		return
	}
	html, err := s.renderAnnouncement(item)
	if err != nil {
		s.log.Error("failed to render announcement", slog.Int("id", item.ID), sl.Err(err))
		return
	}
	campaignID, err := s.campaigns.EnqueueCampaign(ctx, models.Campaign{
		Subject:     item.Title,
		HTML:        html,
		Audience:    models.AudienceFilter{PremiumOnly: item.IsPremium},
		ContentID:   item.ID,
		RequestedBy: item.AuthorUID,
	})
	if err != nil {
		s.log.Error("failed to enqueue announcement", slog.Int("id", item.ID), sl.Err(err))
		return
	}
	s.log.Info("announcement enqueued", slog.Int("id", item.ID), slog.String("campaign_id", campaignID))
}

var announcementTmpl = template.Must(template.New("announcement").Parse(
	`<h1>{{.Title}}</h1>{{if .Summary}}<p>{{.Summary}}</p>{{end}}<p><a href="{{.Link}}">Читать</a></p>`))

func (s *Service) renderAnnouncement(item *models.Content) (string, error) {
	var buf bytes.Buffer
	err := announcementTmpl.Execute(&buf, struct {
		Title, Summary, Link string
	}{
		Title:   item.Title,
		Summary: item.Summary,
		Link:    fmt.Sprintf("%s/feed/%s/%d", s.siteURL, item.Kind.PathSegment(), item.ID),
	})
	return buf.String(), err
}

func (s *Service) duplicate(ctx context.Context, session *models.Session, item *models.Content) (*models.Content, error) {
	const op = "content.duplicate"
	copied, err := s.Create(ctx, session, item.Kind, models.DummyContent{
		Title:     item.Title + " (копия)",
		Summary:   item.Summary,
		Body:      item.Body,
		Tags:      append([]string(nil), item.Tags...),
		IsPremium: item.IsPremium,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return copied, nil
}

// saveStatus записывает новый статус, если материал в базе все еще в статусе from.
// Параллельная смена статуса дает lifecycle.ErrInvalidTransition.
func (s *Service) saveStatus(ctx context.Context, op string, item *models.Content,
	from models.ContentStatus) (*models.Content, error) {
	saved, err := s.repo.SetContentStatus(ctx, *item, from)
	if err != nil {
		if errors.Is(err, models.ErrStatusChanged) {
			s.invalidate(ctx, item.ID)
			return nil, fmt.Errorf("%s: %w: %w", op, lifecycle.ErrInvalidTransition, err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, saved.ID)
	return saved, nil
}

func (s *Service) invalidate(ctx context.Context, id int) {
	if err := s.cache.Invalidate(ctx, cacheKey(id)); err != nil {
		s.log.Warn("failed to invalidate content cache", slog.Int("id", id), sl.Err(err))
	}
}

// Feed опубликованные материалы для читателя. Премиум-материалы без доступа
// возвращаются без текста с Locked=true.
func (s *Service) Feed(ctx context.Context, session *models.Session, kind models.ContentKind,
	limit, offset int) ([]models.FeedItem, error) {
	const op = "content.Feed"
	items, err := s.repo.ListContent(ctx, models.ContentFilter{
		Kind:     kind,
		Statuses: []models.ContentStatus{models.ContentPublished},
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	premium := access.HasPremiumAccess(session)
	feed := make([]models.FeedItem, 0, len(items))
	for _, item := range items {
		fi := models.FeedItem{Content: *item}
		if item.IsPremium && !premium {
			fi.Body = ""
			fi.Locked = true
		}
		feed = append(feed, fi)
	}
	return feed, nil
}

// Read материал для читателя. Неопубликованный материал не найден даже для
// редакторов, закрытый премиум-материал возвращает ErrLocked.
func (s *Service) Read(ctx context.Context, session *models.Session, kind models.ContentKind,
	id int) (*models.Content, error) {
	const op = "content.Read"
	item, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if item.Status != models.ContentPublished {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	if !access.CanViewContent(session, item) {
		return nil, fmt.Errorf("%s: %w", op, ErrLocked)
	}
	return item, nil
}
