// Package notification отправляет письма, ведет журнал отправки и выполняет
// массовые рассылки через пакетный диспетчер.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/finletter/internal/lib/dispatch"
	"github.com/magabrotheeeer/finletter/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/metrics"
	"github.com/magabrotheeeer/finletter/internal/models"
)

// campaignKeyTTL сколько хранится отметка об обработанной рассылке.
const campaignKeyTTL = 7 * 24 * time.Hour

// ErrStaleEvent событие провайдера не продвигает статус письма.
var ErrStaleEvent = errors.New("email event does not advance status")

// Mailer отправляет одно письмо и возвращает его Message-ID.
type Mailer interface {
	Send(ctx context.Context, email models.Email) (string, error)
}

// LogRepository журнал отправки.
type LogRepository interface {
	AppendEmailLog(ctx context.Context, entry models.EmailLog) (int, error)
	LatestEmailLog(ctx context.Context, messageID string) (*models.EmailLog, error)
	ListEmailLogs(ctx context.Context, campaignID string, limit, offset int) ([]*models.EmailLog, error)
	CampaignStats(ctx context.Context, campaignID string) (map[models.EmailStatus]int, error)
}

// RecipientRepository источник адресатов рассылки.
type RecipientRepository interface {
	ListRecipients(ctx context.Context, audience models.AudienceFilter) ([]models.Recipient, error)
}

// Idempotency ключи однократной обработки.
type Idempotency interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Publisher очередь рассылок.
type Publisher interface {
	Publish(ctx context.Context, routingKey, messageID string, message any) error
}

// BulkOptions параметры массовой отправки.
type BulkOptions = dispatch.Options

// BulkResult итоги массовой отправки.
type BulkResult = dispatch.Result[models.Email]

// Site сведения о сайте для служебных заголовков.
type Site struct {
	Name        string
	URL         string
	AdminEmails []string
}

// Deps зависимости сервиса. Publisher, Recipients и Idempotency нужны только
// для рассылок и могут быть nil в процессах, которые их не выполняют.
type Deps struct {
	Mailer      Mailer
	Logs        LogRepository
	Recipients  RecipientRepository
	Idempotency Idempotency
	Publisher   Publisher
	Metrics     *metrics.Metrics
}

// Service отправка писем и рассылок.
type Service struct {
	log      *slog.Logger
	deps     Deps
	site     Site
	defaults BulkOptions
	validate *validator.Validate
}

// NewService создает Service. defaults применяются к рассылкам из очереди.
func NewService(log *slog.Logger, deps Deps, site Site, defaults BulkOptions) *Service {
	return &Service{
		log:      log,
		deps:     deps,
		site:     site,
		defaults: defaults,
		validate: validator.New(),
	}
}

// Send отправляет одно письмо и записывает результат в журнал.
func (s *Service) Send(ctx context.Context, email models.Email) (string, error) {
	const op = "notification.Send"
	messageID, err := s.deliver(ctx, "", email)
	if err != nil {
		s.record(ctx, "", "", email, err)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return messageID, nil
}

// SendBulk отправляет письма пачками. Ошибки отдельных писем попадают в итоги.
func (s *Service) SendBulk(ctx context.Context, emails []models.Email, opts BulkOptions) BulkResult {
	return s.sendBulk(ctx, "", emails, opts)
}

func (s *Service) sendBulk(ctx context.Context, campaignID string, emails []models.Email, opts BulkOptions) BulkResult {
	started := time.Now()
	d := dispatch.New(
		func(ctx context.Context, email models.Email) error {
			_, err := s.deliver(ctx, campaignID, email)
			return err
		},
		func(email models.Email, err error) {
			if err != nil {
				s.record(ctx, campaignID, "", email, err)
			}
		},
	)
	res := d.Dispatch(ctx, emails, opts)
	s.deps.Metrics.ObserveCampaign(res.Batches, time.Since(started))
	s.log.Info("bulk dispatch finished",
		slog.String("campaign_id", campaignID),
		slog.Int("success", res.Success),
		slog.Int("failed", res.Failed),
		slog.Int("canceled", res.Canceled),
		slog.Int("batches", res.Batches),
	)
	return res
}

// deliver проверяет и отправляет письмо, успешную отправку пишет в журнал как SENT.
func (s *Service) deliver(ctx context.Context, campaignID string, email models.Email) (string, error) {
	if err := s.validate.Struct(email); err != nil {
		return "", dispatch.Permanent(fmt.Errorf("invalid email: %w", err))
	}
	messageID, err := s.deps.Mailer.Send(ctx, email)
	if err != nil {
		return "", err
	}
	s.record(ctx, campaignID, messageID, email, nil)
	return messageID, nil
}

// record добавляет строку журнала. Ошибка журнала не отменяет отправку.
func (s *Service) record(ctx context.Context, campaignID, messageID string, email models.Email, sendErr error) {
	entry := models.EmailLog{
		CampaignID: campaignID,
		MessageID:  messageID,
		Recipient:  email.To,
		Subject:    email.Subject,
		Status:     models.EmailSent,
	}
	if sendErr != nil {
		entry.Status = models.EmailFailed
		entry.Error = sendErr.Error()
	}
	s.deps.Metrics.Email(string(entry.Status))

	// Журнал пишется и после отмены ctx, иначе прерванная рассылка теряет итоги.
	if _, err := s.deps.Logs.AppendEmailLog(context.WithoutCancel(ctx), entry); err != nil {
		s.log.Error("failed to append email log",
			slog.String("recipient", email.To),
			slog.String("status", string(entry.Status)),
			sl.Err(err),
		)
	}
}

// NotifyAdmins отправляет служебное письмо на адреса администраторов.
func (s *Service) NotifyAdmins(ctx context.Context, subject, html string) error {
	const op = "notification.NotifyAdmins"
	var errs []error
	for _, to := range s.site.AdminEmails {
		_, err := s.Send(ctx, models.Email{
			To:      to,
			Subject: "[" + s.site.Name + "] " + subject,
			HTML:    html,
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// EnqueueCampaign ставит рассылку в очередь и возвращает ее идентификатор.
func (s *Service) EnqueueCampaign(ctx context.Context, campaign models.Campaign) (string, error) {
	const op = "notification.EnqueueCampaign"
	if s.deps.Publisher == nil {
		return "", fmt.Errorf("%s: publisher is not configured", op)
	}
	if campaign.ID == "" {
		campaign.ID = uuid.NewString()
	}
	if err := s.deps.Publisher.Publish(ctx, rabbitmq.RoutingCampaign, campaign.ID, campaign); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("campaign enqueued",
		slog.String("campaign_id", campaign.ID),
		slog.Bool("premium_only", campaign.Audience.PremiumOnly),
		slog.Int("content_id", campaign.ContentID),
	)
	return campaign.ID, nil
}

// HandleCampaign обрабатывает сообщение из очереди рассылок.
// Повторная доставка той же рассылки подтверждается без отправки.
func (s *Service) HandleCampaign(ctx context.Context, body []byte) error {
	const op = "notification.HandleCampaign"
	var campaign models.Campaign
	if err := json.Unmarshal(body, &campaign); err != nil {
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrPermanent, err)
	}
	if campaign.ID == "" || campaign.Subject == "" || campaign.HTML == "" {
		return fmt.Errorf("%s: %w: incomplete campaign", op, rabbitmq.ErrPermanent)
	}
	log := s.log.With(slog.String("op", op), slog.String("campaign_id", campaign.ID))

	key := "campaign:" + campaign.ID
	claimed, err := s.deps.Idempotency.Claim(ctx, key, campaignKeyTTL)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !claimed {
		log.Info("campaign already processed, skipping")
		return nil
	}

	recipients, err := s.deps.Recipients.ListRecipients(ctx, campaign.Audience)
	if err != nil {
		if relErr := s.deps.Idempotency.Release(context.WithoutCancel(ctx), key); relErr != nil {
			log.Error("failed to release campaign key", sl.Err(relErr))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	emails := make([]models.Email, 0, len(recipients))
	for _, r := range recipients {
		emails = append(emails, s.campaignEmail(campaign, r))
	}
	res := s.sendBulk(ctx, campaign.ID, emails, s.defaults)
	if res.Canceled > 0 {
		log.Warn("campaign interrupted", slog.Int("not_attempted", res.Canceled))
	}
	return nil
}

func (s *Service) campaignEmail(c models.Campaign, r models.Recipient) models.Email {
	return models.Email{
		To:      r.Email,
		Subject: c.Subject,
		HTML:    c.HTML,
		Headers: map[string]string{
			"X-Campaign-ID":    c.ID,
			"List-Unsubscribe": "<" + s.site.URL + "/account/notifications>",
		},
	}
}

// EmailEvent событие почтового провайдера о письме.
type EmailEvent struct {
	MessageID string             `json:"message_id" validate:"required"`
	Status    models.EmailStatus `json:"status" validate:"required"`
	Error     string             `json:"error,omitempty"`
}

// RecordEvent добавляет событие провайдера в журнал, если оно продвигает статус
// письма. Устаревшие и повторные события возвращают ErrStaleEvent.
func (s *Service) RecordEvent(ctx context.Context, ev EmailEvent) error {
	const op = "notification.RecordEvent"
	latest, err := s.deps.Logs.LatestEmailLog(ctx, ev.MessageID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !latest.Status.CanAdvance(ev.Status) {
		return fmt.Errorf("%s: %s -> %s: %w", op, latest.Status, ev.Status, ErrStaleEvent)
	}
	_, err = s.deps.Logs.AppendEmailLog(ctx, models.EmailLog{
		CampaignID: latest.CampaignID,
		MessageID:  latest.MessageID,
		Recipient:  latest.Recipient,
		Subject:    latest.Subject,
		Status:     ev.Status,
		Error:      ev.Error,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.deps.Metrics.Email(string(ev.Status))
	return nil
}

// CampaignReport журнал рассылки и число писем по текущему статусу.
type CampaignReport struct {
	CampaignID string                     `json:"campaign_id"`
	Stats      map[models.EmailStatus]int `json:"stats"`
	Logs       []*models.EmailLog         `json:"logs"`
}

// CampaignLogs возвращает страницу журнала рассылки со сводкой.
func (s *Service) CampaignLogs(ctx context.Context, campaignID string, limit, offset int) (*CampaignReport, error) {
	const op = "notification.CampaignLogs"
	logs, err := s.deps.Logs.ListEmailLogs(ctx, campaignID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	stats, err := s.deps.Logs.CampaignStats(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(logs) == 0 && len(stats) == 0 {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return &CampaignReport{CampaignID: campaignID, Stats: stats, Logs: logs}, nil
}
