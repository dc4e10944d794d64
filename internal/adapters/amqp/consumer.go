package amqp

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var errDeliveriesClosed = errors.New("delivery channel closed")

// MessageHandler processes a single delivery and settles it
type MessageHandler interface {
	Handle(ctx context.Context, delivery *amqp.Delivery)
}

// Consumer consumes messages from RabbitMQ, reconnecting on connection loss
type Consumer struct {
	client   *Client
	topology Topology
	prefetch int
	handler  MessageHandler
	logger   *zap.Logger
}

// NewConsumer creates a new consumer
func NewConsumer(client *Client, topology Topology, prefetch int, handler MessageHandler, logger *zap.Logger) *Consumer {
	if prefetch < 1 {
		prefetch = 1
	}
	return &Consumer{
		client:   client,
		topology: topology,
		prefetch: prefetch,
		handler:  handler,
		logger:   logger,
	}
}

// Run consumes until ctx is cancelled. A lost connection is re-established
// with the client's backoff policy; exhausting it returns the error.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		err := c.consume(ctx)
		if ctx.Err() != nil {
			c.logger.Info("Consumer stopped")
			return nil
		}

		c.logger.Warn("AMQP consumer interrupted, reconnecting", zap.Error(err))
		if err := c.client.Connect(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (c *Consumer) consume(ctx context.Context) error {
	ch := c.client.Channel()
	if err := c.topology.Setup(ch, c.logger); err != nil {
		return err
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		c.topology.Queue,
		"",    // consumer tag (auto-generated)
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	closed := c.client.NotifyClose()
	c.logger.Info("Waiting for messages", zap.String("queue", c.topology.Queue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr, ok := <-closed:
			if ok && amqpErr != nil {
				return amqpErr
			}
			return errDeliveriesClosed
		case msg, ok := <-msgs:
			if !ok {
				return errDeliveriesClosed
			}
			c.logger.Debug("Processing message",
				zap.String("routing_key", msg.RoutingKey),
				zap.String("message_id", msg.MessageId))
			c.handler.Handle(ctx, &msg)
		}
	}
}
