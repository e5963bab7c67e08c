// Package rabbitmq подключается к RabbitMQ, объявляет exchange и очереди
// напоминаний и публикует в них JSON-сообщения.
package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
)

// Dial подключается к брокеру не более чем за attempts попыток. Между
// попытками ждёт backoff, после последней неудачи сразу возвращает ошибку.
// Отмена ctx прерывает ожидание.
func Dial(ctx context.Context, url string, attempts int, backoff time.Duration, log *slog.Logger) (*amqp.Connection, error) {
	const op = "rabbitmq.Dial"

	attempts = max(attempts, 1)
	for attempt := 1; ; attempt++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		if attempt == attempts {
			return nil, fmt.Errorf("%s: gave up after %d attempts: %w", op, attempts, err)
		}
		log.Warn("amqp dial failed, retrying",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			sl.Err(err),
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(backoff):
		}
	}
}

// SetupChannel открывает канал и готовит топологию напоминаний: direct
// exchange и по одной очереди на ключ маршрутизации. При ошибке канал
// закрывается.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// durable, без auto-delete, не internal
	if err := ch.ExchangeDeclare(ExchangeNotifications, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("%s: declare exchange %s: %w", op, ExchangeNotifications, err)
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.QueueName, true, false, false, false, nil); err != nil {
			ch.Close()
			return nil, fmt.Errorf("%s: declare queue %s: %w", op, q.QueueName, err)
		}
		if err := ch.QueueBind(q.QueueName, q.RoutingKey, ExchangeNotifications, false, nil); err != nil {
			ch.Close()
			return nil, fmt.Errorf("%s: bind %s to %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
