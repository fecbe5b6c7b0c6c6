package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/finletter/internal/lib/sl"
)

// ErrPermanent помечает ошибку, при которой сообщение не возвращается в очередь.
var ErrPermanent = errors.New("permanent message failure")

// Handler обрабатывает тело сообщения.
type Handler func(ctx context.Context, body []byte) error

// ConsumerMessage читает очередь queueName, обрабатывая не больше concurrency
// сообщений одновременно. Блокируется до отмены ctx или закрытия канала
// и дожидается завершения запущенных обработчиков.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, concurrency int, handler Handler) error {
	const op = "rabbitmq.ConsumerMessage"
	if concurrency < 1 {
		concurrency = 1
	}
	delivery, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	sem := make(chan struct{}, concurrency)
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-delivery:
			if !ok {
				return nil
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				nack(log, d, true)
				return nil
			}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				handle(ctx, log, d, handler)
			}(d)
		}
	}
}

func handle(ctx context.Context, log *slog.Logger, d amqp.Delivery, handler Handler) {
	err := handler(ctx, d.Body)
	if err == nil {
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack message", sl.Err(ackErr))
		}
		return
	}
	requeue := !errors.Is(err, ErrPermanent)
	log.Error("failed to handle message",
		slog.String("message_id", d.MessageId),
		slog.Bool("requeue", requeue),
		sl.Err(err),
	)
	nack(log, d, requeue)
}

func nack(log *slog.Logger, d amqp.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		log.Error("failed to nack message", sl.Err(err))
	}
}
