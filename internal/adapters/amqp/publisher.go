package amqp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher publishes persistent JSON messages to the configured destination
type Publisher struct {
	client   *Client
	topology Topology
	timeout  time.Duration
	logger   *zap.Logger

	mu         sync.Mutex
	declaredOn *amqp.Channel
}

// NewPublisher creates a new publisher. The topology is declared lazily on
// first publish.
func NewPublisher(client *Client, topology Topology, timeout time.Duration, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:   client,
		topology: topology,
		timeout:  timeout,
		logger:   logger,
	}
}

// Publish sends body with the given message id. A closed channel triggers one
// reconnect and retry.
func (p *Publisher) Publish(ctx context.Context, messageID string, body []byte) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	err := p.publish(ctx, messageID, body)
	if errors.Is(err, amqp.ErrClosed) || errors.Is(err, ErrNotConnected) {
		p.logger.Warn("AMQP channel closed, reconnecting before retry", zap.Error(err))
		if err := p.client.Connect(ctx); err != nil {
			return err
		}
		err = p.publish(ctx, messageID, body)
	}
	return err
}

func (p *Publisher) publish(ctx context.Context, messageID string, body []byte) error {
	ch, err := p.channel()
	if err != nil {
		return err
	}

	exchange := p.topology.Exchange
	routingKey := p.topology.routingKey()
	if exchange == "" {
		routingKey = p.topology.Queue
	}

	err = ch.PublishWithContext(
		ctx,
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message to exchange '%s' with routing key '%s': %w", exchange, routingKey, err)
	}

	p.logger.Debug("Message published",
		zap.String("message_id", messageID),
		zap.String("exchange", exchange),
		zap.String("routing_key", routingKey))
	return nil
}

// channel returns the current channel, declaring the topology once per channel
func (p *Publisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := p.client.Channel()
	if ch == nil {
		return nil, ErrNotConnected
	}
	if ch != p.declaredOn {
		if err := p.topology.Setup(ch, p.logger); err != nil {
			return nil, err
		}
		p.declaredOn = ch
	}
	return ch, nil
}
