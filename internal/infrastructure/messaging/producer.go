// Package messaging publishes domain events to RabbitMQ.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/garyjia/merchant-onboarding/internal/application/port"
)

// Producer publishes JSON messages to durable topic exchanges
type Producer struct {
	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
	logger  *zap.Logger
}

// FallbackProducer logs and drops messages. It stands in when no broker is
// configured or the broker is unreachable at startup.
type FallbackProducer struct {
	logger *zap.Logger
}

// NewFallbackProducer creates a logging publisher
func NewFallbackProducer(logger *zap.Logger) *FallbackProducer {
	return &FallbackProducer{logger: logger}
}

// Publish implements port.EventPublisher
func (p *FallbackProducer) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	p.logger.Debug("Publish skipped, no broker",
		zap.String("exchange", exchange),
		zap.String("routing_key", routingKey))
	return nil
}

// Close implements port.EventPublisher
func (p *FallbackProducer) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewProducer dials the broker and opens a channel
func NewProducer(amqpURL string, dialTimeout time.Duration, logger *zap.Logger) (*Producer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return &Producer{conn: conn, channel: ch, logger: logger}, nil
}

// Publish sends body as JSON to exchange with routingKey. A failed publish
// reopens the channel and retries once.
func (p *Producer) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.publish(ctx, exchange, routingKey, payload)
	if err == nil {
		return nil
	}
	p.logger.Warn("Publish failed, reopening channel",
		zap.String("exchange", exchange),
		zap.String("routing_key", routingKey),
		zap.Error(err))

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to reopen channel: %w", err)
	}
	p.channel = ch
	return p.publish(ctx, exchange, routingKey, payload)
}

func (p *Producer) publish(ctx context.Context, exchange, routingKey string, payload []byte) error {
	if err := p.channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	return p.channel.PublishWithContext(ctx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         payload,
		},
	)
}

// Close closes the channel and connection
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// Verify interface compliance
var (
	_ port.EventPublisher = (*Producer)(nil)
	_ port.EventPublisher = (*FallbackProducer)(nil)
)
