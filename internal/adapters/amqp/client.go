package amqp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrNotConnected is returned when no channel is open
var ErrNotConnected = errors.New("amqp client is not connected")

// ReconnectPolicy bounds the exponential backoff used while (re)connecting.
// MaxAttempts of zero retries until the context is cancelled.
type ReconnectPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxAttempts     int
}

func (p ReconnectPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = 0

	var bo backoff.BackOff = b
	if p.MaxAttempts > 0 {
		bo = backoff.WithMaxRetries(bo, uint64(p.MaxAttempts-1))
	}
	return backoff.WithContext(bo, ctx)
}

// Dialer opens a broker connection
type Dialer func(url string) (*amqp.Connection, error)

// Client manages the RabbitMQ connection and channel
type Client struct {
	url     string
	policy  ReconnectPolicy
	dial    Dialer
	logger  *zap.Logger
	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  chan *amqp.Error
}

// NewClient creates a new AMQP client and connects, retrying per policy
func NewClient(ctx context.Context, url string, policy ReconnectPolicy, logger *zap.Logger) (*Client, error) {
	c := &Client{
		url:    url,
		policy: policy,
		dial:   amqp.Dial,
		logger: logger,
	}

	if err := c.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to create AMQP client: %w", err)
	}
	return c, nil
}

// Connect (re)establishes the connection and channel with bounded backoff
func (c *Client) Connect(ctx context.Context) error {
	attempt := 0
	operation := func() error {
		attempt++
		return c.connect()
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("AMQP connection attempt failed",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", wait),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(operation, c.policy.backOff(ctx), notify); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("giving up on RabbitMQ after %d attempts: %w", attempt, err)
	}
	return nil
}

func (c *Client) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeLocked()

	conn, err := c.dial(c.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	c.conn = conn
	c.channel = ch
	c.closed = conn.NotifyClose(make(chan *amqp.Error, 1))

	c.logger.Info("AMQP client connected")
	return nil
}

// Channel returns the current channel, or nil before the first connect
func (c *Client) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// NotifyClose returns a channel that receives when the current connection drops
func (c *Client) NotifyClose() <-chan *amqp.Error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Close closes the channel and connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.closeLocked()
	if err == nil {
		c.logger.Info("AMQP client closed")
	}
	return err
}

func (c *Client) closeLocked() error {
	var errs []error

	if c.channel != nil && !c.channel.IsClosed() {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil && !c.conn.IsClosed() {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	c.channel = nil
	c.conn = nil

	return errors.Join(errs...)
}
