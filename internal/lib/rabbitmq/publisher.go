package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// PublishMessage публикует сообщение в RabbitMQ в формате JSON.
func PublishMessage(ch *amqp.Channel, exchange, routingKey, messageID string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    messageID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Publisher публикует в Exchange через один канал.
// amqp.Channel не потокобезопасен для публикации, поэтому вызовы сериализуются.
type Publisher struct {
	mu sync.Mutex
	ch *amqp.Channel
}

// NewPublisher создает Publisher поверх открытого канала.
func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// Publish отправляет message с ключом routingKey.
func (p *Publisher) Publish(ctx context.Context, routingKey, messageID string, message any) error {
	const op = "rabbitmq.Publish"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return PublishMessage(p.ch, Exchange, routingKey, messageID, message)
}
