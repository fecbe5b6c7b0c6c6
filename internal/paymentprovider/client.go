// Package paymentprovider оборачивает Stripe: сессии оплаты подписки и
// проверку подписи вебхуков.
package paymentprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"

	"github.com/magabrotheeeer/finletter/internal/config"
	"github.com/magabrotheeeer/finletter/internal/models"
)

var (
	// ErrInvalidSignature подпись вебхука не прошла проверку.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrUnknownPrice для плана и периода не настроена цена.
	ErrUnknownPrice = errors.New("no price configured for plan")
)

type priceKey struct {
	plan  models.Plan
	cycle models.BillingCycle
}

// Client клиент Stripe.
type Client struct {
	api           *client.API
	webhookSecret string
	prices        map[priceKey]string
	byPrice       map[string]priceKey
	successURL    string
	cancelURL     string
}

// NewClient создает клиент Stripe по настройкам. backends нужны в тестах
// и могут быть nil.
func NewClient(cfg config.Stripe, backends *stripe.Backends) *Client {
	c := &Client{
		api:           client.New(cfg.SecretKey, backends),
		webhookSecret: cfg.WebhookSecret,
		prices:        map[priceKey]string{},
		byPrice:       map[string]priceKey{},
		successURL:    cfg.CheckoutSuccessURL,
		cancelURL:     cfg.CheckoutCancelURL,
	}
	for key, id := range map[priceKey]string{
		{models.PlanPremium, models.CycleMonthly}:    cfg.PremiumMonthly,
		{models.PlanPremium, models.CycleYearly}:     cfg.PremiumYearly,
		{models.PlanEnterprise, models.CycleMonthly}: cfg.EnterpriseMonthly,
		{models.PlanEnterprise, models.CycleYearly}:  cfg.EnterpriseYearly,
	} {
		if id == "" {
			continue
		}
		c.prices[key] = id
		c.byPrice[id] = key
	}
	return c
}

// PriceID идентификатор цены Stripe для плана и периода.
func (c *Client) PriceID(plan models.Plan, cycle models.BillingCycle) (string, error) {
	id, ok := c.prices[priceKey{plan, cycle}]
	if !ok {
		return "", fmt.Errorf("%s/%s: %w", plan, cycle, ErrUnknownPrice)
	}
	return id, nil
}

// CreateCheckout создает сессию Stripe Checkout в режиме подписки.
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	const op = "paymentprovider.CreateCheckout"
	priceID, err := c.PriceID(req.Plan, req.Cycle)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metadata := map[string]string{
		"user_uid": req.UserUID,
		"plan":     string(req.Plan),
		"cycle":    string(req.Cycle),
	}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		ClientReferenceID: stripe.String(req.UserUID),
		CustomerEmail:     stripe.String(req.Email),
		SuccessURL:        stripe.String(c.successURL),
		CancelURL:         stripe.String(c.cancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// ParseEvent проверяет подпись и разбирает событие. События, которые не
// меняют подписку, возвращаются только с ID и Type.
func (c *Client) ParseEvent(payload []byte, signature string) (*Event, error) {
	const op = "paymentprovider.ParseEvent"
	ev, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidSignature, err)
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	switch out.Type {
	case EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out.Checkout = c.checkoutCompleted(&sess)
	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out.Subscription = c.subscriptionChange(&sub)
		if out.Type == EventSubscriptionDeleted {
			out.Subscription.Status = models.StatusCanceled
			out.Subscription.AutoRenew = false
		}
	case EventInvoicePaid, EventInvoiceFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(ev.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if inv.Subscription == nil || inv.Subscription.ID == "" {
			return out, nil
		}
		change := &SubscriptionChange{SubscriptionID: inv.Subscription.ID, Status: models.StatusPastDue}
		if out.Type == EventInvoicePaid {
			change.Status = models.StatusActive
			change.AutoRenew = true
			if inv.Lines != nil && len(inv.Lines.Data) > 0 && inv.Lines.Data[0].Period != nil {
				change.PeriodEnd = unixPtr(inv.Lines.Data[0].Period.End)
			}
		}
		out.Subscription = change
	}
	return out, nil
}

func (c *Client) checkoutCompleted(sess *stripe.CheckoutSession) *CheckoutCompleted {
	done := &CheckoutCompleted{
		UserUID:  sess.ClientReferenceID,
		Plan:     models.Plan(sess.Metadata["plan"]),
		Cycle:    models.BillingCycle(sess.Metadata["cycle"]),
		Amount:   sess.AmountTotal,
		Currency: strings.ToUpper(string(sess.Currency)),
	}
	if done.UserUID == "" {
		done.UserUID = sess.Metadata["user_uid"]
	}
	if sess.Customer != nil {
		done.CustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		done.SubscriptionID = sess.Subscription.ID
	}
	return done
}

func (c *Client) subscriptionChange(sub *stripe.Subscription) *SubscriptionChange {
	change := &SubscriptionChange{
		SubscriptionID: sub.ID,
		Status:         mapStatus(sub.Status),
		AutoRenew:      !sub.CancelAtPeriodEnd,
		PeriodEnd:      unixPtr(sub.CurrentPeriodEnd),
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		price := sub.Items.Data[0].Price
		if key, ok := c.byPrice[price.ID]; ok {
			change.Plan = key.plan
			change.Cycle = key.cycle
		}
		change.Amount = price.UnitAmount
		change.Currency = strings.ToUpper(string(price.Currency))
	}
	return change
}

func mapStatus(s stripe.SubscriptionStatus) models.SubscriptionStatus {
	switch s {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return models.StatusActive
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return models.StatusPastDue
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusIncompleteExpired:
		return models.StatusCanceled
	}
	return models.StatusInactive
}

func unixPtr(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
