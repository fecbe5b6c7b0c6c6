package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/finletter/internal/models"
)

const subscriptionColumns = `id, user_uid, plan, status, billing_cycle, price, currency, auto_renew,
	start_date, end_date, provider_customer_id, provider_subscription_id, created_at, updated_at`

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	sub := &models.Subscription{}
	var endDate sql.NullTime
	if err := row.Scan(&sub.ID, &sub.UserUID, &sub.Plan, &sub.Status, &sub.BillingCycle, &sub.Price,
		&sub.Currency, &sub.AutoRenew, &sub.StartDate, &endDate, &sub.ProviderCustomerID,
		&sub.ProviderSubscriptionID, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	sub.EndDate = timePtr(endDate)
	return sub, nil
}

// GetSubscriptionByUser возвращает подписку пользователя или models.ErrNotFound.
func (s *Storage) GetSubscriptionByUser(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "storage.GetSubscriptionByUser"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_uid = $1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return sub, nil
}

// GetSubscriptionByProviderID ищет подписку по идентификатору у платежного провайдера.
func (s *Storage) GetSubscriptionByProviderID(ctx context.Context, providerSubscriptionID string) (*models.Subscription, error) {
	const op = "storage.GetSubscriptionByProviderID"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE provider_subscription_id = $1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, providerSubscriptionID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return sub, nil
}

// UpsertSubscription создает подписку пользователя или перезаписывает существующую.
// Строка на пользователя одна и никогда не удаляется.
func (s *Storage) UpsertSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.UpsertSubscription"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO subscriptions (user_uid, plan, status, billing_cycle, price, currency, auto_renew,
			      start_date, end_date, provider_customer_id, provider_subscription_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  ON CONFLICT (user_uid) DO UPDATE SET
			      plan = EXCLUDED.plan,
			      status = EXCLUDED.status,
			      billing_cycle = EXCLUDED.billing_cycle,
			      price = EXCLUDED.price,
			      currency = EXCLUDED.currency,
			      auto_renew = EXCLUDED.auto_renew,
			      start_date = EXCLUDED.start_date,
			      end_date = EXCLUDED.end_date,
			      provider_customer_id = COALESCE(NULLIF(EXCLUDED.provider_customer_id, ''), subscriptions.provider_customer_id),
			      provider_subscription_id = COALESCE(NULLIF(EXCLUDED.provider_subscription_id, ''), subscriptions.provider_subscription_id),
			      updated_at = NOW()
			  RETURNING ` + subscriptionColumns
	saved, err := scanSubscription(s.DB.QueryRowContext(ctx, query,
		sub.UserUID, sub.Plan, sub.Status, sub.BillingCycle, sub.Price, sub.Currency, sub.AutoRenew,
		sub.StartDate, nullTime(sub.EndDate), sub.ProviderCustomerID, sub.ProviderSubscriptionID,
	))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return saved, nil
}
