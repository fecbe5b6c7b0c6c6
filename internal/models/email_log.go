package models

import "time"

// EmailStatus статус доставки письма.
type EmailStatus string

const (
	// EmailSent письмо передано провайдеру.
	EmailSent EmailStatus = "SENT"
	// EmailDelivered провайдер подтвердил доставку.
	EmailDelivered EmailStatus = "DELIVERED"
	// EmailOpened письмо открыто.
	EmailOpened EmailStatus = "OPENED"
	// EmailClicked по ссылке из письма перешли.
	EmailClicked EmailStatus = "CLICKED"
	// EmailBounced письмо вернулось.
	EmailBounced EmailStatus = "BOUNCED"
	// EmailFailed отправка не удалась.
	EmailFailed EmailStatus = "FAILED"
)

var emailStatusRank = map[EmailStatus]int{
	EmailSent:      1,
	EmailDelivered: 2,
	EmailOpened:    3,
	EmailClicked:   4,
}

// Valid сообщает, входит ли статус в закрытый набор статусов.
func (s EmailStatus) Valid() bool {
	_, ok := emailStatusRank[s]
	return ok || s == EmailBounced || s == EmailFailed
}

// Terminal сообщает, что после этого статуса событий быть не может.
func (s EmailStatus) Terminal() bool {
	return s == EmailBounced || s == EmailFailed
}

// CanAdvance проверяет порядок SENT→DELIVERED→OPENED→CLICKED, а также переход
// в BOUNCED или FAILED из любого нетерминального статуса.
func (s EmailStatus) CanAdvance(to EmailStatus) bool {
	if s.Terminal() || !to.Valid() {
		return false
	}
	if to.Terminal() {
		return true
	}
	return emailStatusRank[to] > emailStatusRank[s]
}

// EmailLog строка журнала отправки. Журнал только дополняется.
type EmailLog struct {
	ID         int         `json:"id"`
	CampaignID string      `json:"campaign_id,omitempty"`
	MessageID  string      `json:"message_id"`
	Recipient  string      `json:"recipient"`
	Subject    string      `json:"subject"`
	Status     EmailStatus `json:"status"`
	Error      string      `json:"error,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Email письмо к отправке.
type Email struct {
	To      string            `json:"to" validate:"required,email"`
	Subject string            `json:"subject" validate:"required"`
	HTML    string            `json:"html" validate:"required"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Campaign задание на массовую рассылку, которое передается через очередь.
type Campaign struct {
	ID          string         `json:"id"`
	Subject     string         `json:"subject"`
	HTML        string         `json:"html"`
	Audience    AudienceFilter `json:"audience"`
	ContentID   int            `json:"content_id,omitempty"`
	RequestedBy string         `json:"requested_by"`
}
