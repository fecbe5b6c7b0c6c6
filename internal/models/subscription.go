package models

import "time"

// Plan тарифный план подписки.
type Plan string

const (
	// PlanFree бесплатный план.
	PlanFree Plan = "FREE"
	// PlanPremium платный план.
	PlanPremium Plan = "PREMIUM"
	// PlanEnterprise корпоративный план.
	PlanEnterprise Plan = "ENTERPRISE"
)

// Valid сообщает, входит ли план в закрытый набор планов.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanPremium, PlanEnterprise:
		return true
	}
	return false
}

// Paid сообщает, относится ли план к платным.
func (p Plan) Paid() bool {
	return p == PlanPremium || p == PlanEnterprise
}

// SubscriptionStatus статус подписки.
type SubscriptionStatus string

const (
	// StatusActive подписка оплачена и действует.
	StatusActive SubscriptionStatus = "ACTIVE"
	// StatusInactive подписка не оформлена или истекла.
	StatusInactive SubscriptionStatus = "INACTIVE"
	// StatusCanceled подписка отменена пользователем.
	StatusCanceled SubscriptionStatus = "CANCELED"
	// StatusPastDue последний платеж не прошел.
	StatusPastDue SubscriptionStatus = "PAST_DUE"
)

// Valid сообщает, входит ли статус в закрытый набор статусов.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusCanceled, StatusPastDue:
		return true
	}
	return false
}

// BillingCycle период списания.
type BillingCycle string

const (
	// CycleMonthly ежемесячное списание.
	CycleMonthly BillingCycle = "MONTHLY"
	// CycleYearly ежегодное списание.
	CycleYearly BillingCycle = "YEARLY"
)

// Subscription представляет подписку пользователя. У пользователя не больше одной подписки,
// записи не удаляются, меняется только статус.
type Subscription struct {
	ID                     int                `json:"id"`
	UserUID                string             `json:"user_uid"`
	Plan                   Plan               `json:"plan"`
	Status                 SubscriptionStatus `json:"status"`
	BillingCycle           BillingCycle       `json:"billing_cycle"`
	Price                  int64              `json:"price"` // В минимальных единицах валюты
	Currency               string             `json:"currency"`
	AutoRenew              bool               `json:"auto_renew"`
	StartDate              time.Time          `json:"start_date"`
	EndDate                *time.Time         `json:"end_date,omitempty"`
	ProviderCustomerID     string             `json:"-"`
	ProviderSubscriptionID string             `json:"-"`
	CreatedAt              time.Time          `json:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at"`
}
