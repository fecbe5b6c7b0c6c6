package paymentprovider

import (
	"time"

	"github.com/magabrotheeeer/finletter/internal/models"
)

// Типы событий Stripe, которые меняют подписку.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventInvoicePaid         = "invoice.paid"
	EventInvoiceFailed       = "invoice.payment_failed"
)

// CheckoutRequest параметры оформления подписки.
type CheckoutRequest struct {
	UserUID string
	Email   string
	Plan    models.Plan
	Cycle   models.BillingCycle
}

// CheckoutSession созданная сессия оплаты.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CheckoutCompleted оплата первой подписки прошла.
type CheckoutCompleted struct {
	UserUID        string
	CustomerID     string
	SubscriptionID string
	Plan           models.Plan
	Cycle          models.BillingCycle
	Amount         int64
	Currency       string
}

// SubscriptionChange изменение подписки на стороне провайдера.
type SubscriptionChange struct {
	SubscriptionID string
	Status         models.SubscriptionStatus
	Plan           models.Plan // Пустой, если цена не из конфигурации
	Cycle          models.BillingCycle
	Amount         int64
	Currency       string
	AutoRenew      bool
	PeriodEnd      *time.Time
}

// Event проверенное событие провайдера. Заполнено не больше одного из
// Checkout и Subscription.
type Event struct {
	ID           string
	Type         string
	Checkout     *CheckoutCompleted
	Subscription *SubscriptionChange
}
