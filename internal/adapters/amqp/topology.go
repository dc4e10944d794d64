package amqp

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Topology declares the message queue and its optional exchange binding
type Topology struct {
	Queue      string
	Exchange   string
	RoutingKey string
}

// Setup declares the durable queue, plus a durable topic exchange and binding
// when an exchange is named. Declarations are idempotent.
func (t Topology) Setup(ch *amqp.Channel, logger *zap.Logger) error {
	if ch == nil {
		return ErrNotConnected
	}

	if _, err := ch.QueueDeclare(
		t.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare queue '%s': %w", t.Queue, err)
	}

	if t.Exchange == "" {
		logger.Debug("Queue declared", zap.String("queue", t.Queue))
		return nil
	}

	if err := ch.ExchangeDeclare(
		t.Exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare exchange '%s': %w", t.Exchange, err)
	}

	if err := ch.QueueBind(t.Queue, t.routingKey(), t.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue '%s' to exchange '%s' with routing key '%s': %w",
			t.Queue, t.Exchange, t.routingKey(), err)
	}

	logger.Debug("Queue bound to exchange",
		zap.String("queue", t.Queue),
		zap.String("exchange", t.Exchange),
		zap.String("routing_key", t.routingKey()))
	return nil
}

func (t Topology) routingKey() string {
	if t.RoutingKey == "" {
		return t.Queue
	}
	return t.RoutingKey
}
