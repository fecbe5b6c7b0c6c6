// Package rabbitmq содержит подключение к RabbitMQ, публикацию и потребление
// сообщений очереди рассылок.
package rabbitmq

// Exchange direct-обменник для уведомлений.
const Exchange = "notifications"

// Ключи маршрутизации очередей.
const (
	RoutingCampaign = "campaign"
)

// QueueConfig описание очереди и ее привязки к Exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// CampaignQueue очередь, из которой воркер sender забирает рассылки.
var CampaignQueue = QueueConfig{QueueName: "notifications.campaigns", RoutingKey: RoutingCampaign}

// GetNotificationQueues возвращает все очереди, которые объявляются при старте.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{CampaignQueue}
}
