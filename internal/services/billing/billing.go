// Package billing оформляет платные подписки через платежного провайдера и
// применяет его вебхуки к записи подписки пользователя.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/finletter/internal/lib/sl"
	"github.com/magabrotheeeer/finletter/internal/metrics"
	"github.com/magabrotheeeer/finletter/internal/models"
	"github.com/magabrotheeeer/finletter/internal/paymentprovider"
)

// eventKeyTTL сколько хранится отметка об обработанном событии.
const eventKeyTTL = 7 * 24 * time.Hour

var (
	// ErrNotPaidPlan оформить можно только платный план.
	ErrNotPaidPlan = errors.New("plan is not a paid plan")
	// ErrAlreadySubscribed у пользователя уже действует этот план.
	ErrAlreadySubscribed = errors.New("plan is already active")
)

// Provider платежный провайдер.
type Provider interface {
	CreateCheckout(ctx context.Context, req paymentprovider.CheckoutRequest) (*paymentprovider.CheckoutSession, error)
	ParseEvent(payload []byte, signature string) (*paymentprovider.Event, error)
}

// SubscriptionRepository хранилище подписок.
type SubscriptionRepository interface {
	GetSubscriptionByUser(ctx context.Context, userUID string) (*models.Subscription, error)
	GetSubscriptionByProviderID(ctx context.Context, providerSubscriptionID string) (*models.Subscription, error)
	UpsertSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
}

// Idempotency ключи однократной обработки событий.
type Idempotency interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// AdminNotifier уведомление администраторов.
type AdminNotifier interface {
	NotifyAdmins(ctx context.Context, subject, html string) error
}

// Service оформление и сопровождение подписок.
type Service struct {
	log      *slog.Logger
	provider Provider
	subs     SubscriptionRepository
	idem     Idempotency
	notifier AdminNotifier
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewService создает Service. notifier может быть nil.
func NewService(log *slog.Logger, provider Provider, subs SubscriptionRepository, idem Idempotency,
	notifier AdminNotifier, m *metrics.Metrics) *Service {
	return &Service{
		log:      log,
		provider: provider,
		subs:     subs,
		idem:     idem,
		notifier: notifier,
		metrics:  m,
		now:      time.Now,
	}
}

// Checkout создает сессию оплаты плана для пользователя сессии.
func (s *Service) Checkout(ctx context.Context, session *models.Session, plan models.Plan,
	cycle models.BillingCycle) (*paymentprovider.CheckoutSession, error) {
	const op = "billing.Checkout"
	if !plan.Paid() {
		return nil, fmt.Errorf("%s: %s: %w", op, plan, ErrNotPaidPlan)
	}

	current, err := s.subs.GetSubscriptionByUser(ctx, session.UserUID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if current != nil && current.Status == models.StatusActive && current.Plan == plan {
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadySubscribed)
	}

	checkout, err := s.provider.CreateCheckout(ctx, paymentprovider.CheckoutRequest{
		UserUID: session.UserUID,
		Email:   session.Email,
		Plan:    plan,
		Cycle:   cycle,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("checkout session created",
		slog.String("user_uid", session.UserUID),
		slog.String("plan", string(plan)),
		slog.String("checkout_id", checkout.ID),
	)
	return checkout, nil
}

// HandleWebhook проверяет и применяет событие провайдера. Повторное событие
// возвращает models.ErrDuplicateEvent и ничего не меняет.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	const op = "billing.HandleWebhook"
	ev, err := s.provider.ParseEvent(payload, signature)
	if err != nil {
		s.metrics.Webhook("unknown", "rejected")
		return fmt.Errorf("%s: %w", op, err)
	}
	log := s.log.With(slog.String("event_id", ev.ID), slog.String("event_type", ev.Type))

	key := "stripe:event:" + ev.ID
	claimed, err := s.idem.Claim(ctx, key, eventKeyTTL)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !claimed {
		s.metrics.Webhook(ev.Type, "duplicate")
		log.Info("duplicate webhook event")
		return fmt.Errorf("%s: %w", op, models.ErrDuplicateEvent)
	}

	outcome, err := s.apply(ctx, ev)
	if err != nil {
		if relErr := s.idem.Release(context.WithoutCancel(ctx), key); relErr != nil {
			log.Error("failed to release event key", sl.Err(relErr))
		}
		s.metrics.Webhook(ev.Type, "error")
		return fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.Webhook(ev.Type, outcome)
	log.Info("webhook event handled", slog.String("outcome", outcome))
	return nil
}

func (s *Service) apply(ctx context.Context, ev *paymentprovider.Event) (string, error) {
	switch {
	case ev.Checkout != nil:
		return "applied", s.applyCheckout(ctx, ev.Checkout)
	case ev.Subscription != nil:
		return s.applyChange(ctx, ev.Subscription)
	}
	return "ignored", nil
}

func (s *Service) applyCheckout(ctx context.Context, done *paymentprovider.CheckoutCompleted) error {
	const op = "billing.applyCheckout"
	if done.UserUID == "" || !done.Plan.Paid() {
		return fmt.Errorf("%s: checkout without user or paid plan", op)
	}
	cycle := done.Cycle
	if cycle == "" {
		cycle = models.CycleMonthly
	}
	saved, err := s.subs.UpsertSubscription(ctx, models.Subscription{
		UserUID:                done.UserUID,
		Plan:                   done.Plan,
		Status:                 models.StatusActive,
		BillingCycle:           cycle,
		Price:                  done.Amount,
		Currency:               done.Currency,
		AutoRenew:              true,
		StartDate:              s.now().UTC(),
		ProviderCustomerID:     done.CustomerID,
		ProviderSubscriptionID: done.SubscriptionID,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if s.notifier != nil {
		html := fmt.Sprintf("<p>Пользователь %s оформил план %s (%s).</p>", saved.UserUID, saved.Plan, saved.BillingCycle)
		if err := s.notifier.NotifyAdmins(ctx, "New subscription", html); err != nil {
			s.log.Warn("failed to notify admins about subscription", sl.Err(err))
		}
	}
	return nil
}

// applyChange обновляет подписку по ее ID у провайдера. Неизвестная подписка
// пропускается: ее создаст checkout.session.completed.
func (s *Service) applyChange(ctx context.Context, change *paymentprovider.SubscriptionChange) (string, error) {
	const op = "billing.applyChange"
	sub, err := s.subs.GetSubscriptionByProviderID(ctx, change.SubscriptionID)
	if errors.Is(err, models.ErrNotFound) {
		return "ignored", nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	sub.Status = change.Status
	sub.AutoRenew = change.AutoRenew
	if change.Plan != "" {
		sub.Plan = change.Plan
		sub.BillingCycle = change.Cycle
	}
	if change.Amount > 0 {
		sub.Price = change.Amount
		sub.Currency = change.Currency
	}
	if change.PeriodEnd != nil {
		sub.EndDate = change.PeriodEnd
	}
	if change.Status == models.StatusCanceled && sub.EndDate == nil {
		now := s.now().UTC()
		sub.EndDate = &now
	}
	if _, err := s.subs.UpsertSubscription(ctx, *sub); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return "applied", nil
}

// Current возвращает подписку пользователя. Пользователь без подписки
// получает запись FREE/INACTIVE, как в снимке сессии.
func (s *Service) Current(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "billing.Current"
	sub, err := s.subs.GetSubscriptionByUser(ctx, userUID)
	if errors.Is(err, models.ErrNotFound) {
		return &models.Subscription{
			UserUID:      userUID,
			Plan:         models.PlanFree,
			Status:       models.StatusInactive,
			BillingCycle: models.CycleMonthly,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}
