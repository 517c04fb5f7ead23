package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/ulesfyw/fyw-pay/internal/queue"
)

const settledQueue = "payment.settled"

// NewSettlementPublisher returns a SettlementPublisher that delivers
// events to the payment.settled queue on the given broker. A fresh
// connection is opened per publish; settlements are a handful per
// minute at peak, so connection reuse is not worth managing a channel
// pool in the service. Messages are persistent and the queue durable,
// so notifications survive broker restarts.
func NewSettlementPublisher(brokerURL string) SettlementPublisher {
	return func(ctx context.Context, event q.PaymentSettledEvent) error {
		conn, err := amqp.Dial(brokerURL)
		if err != nil {
			return fmt.Errorf("settlement publish: dial broker: %w", err)
		}
		defer func() { _ = conn.Close() }()

		ch, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("settlement publish: open channel: %w", err)
		}
		defer func() { _ = ch.Close() }()

		// Declare is idempotent and guards against publishing before the
		// consumer has created the queue.
		if _, err := ch.QueueDeclare(settledQueue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("settlement publish: declare queue: %w", err)
		}

		body, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("settlement publish: encode event: %w", err)
		}
		err = ch.PublishWithContext(ctx, "", settledQueue, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
		if err != nil {
			return fmt.Errorf("settlement publish: %w", err)
		}
		return nil
	}
}
