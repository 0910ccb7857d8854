// Package notify publishes budget alerts raised when a new expense pushes a
// category to its warning or over-budget threshold.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"expensetracker/internal/budget"
	"expensetracker/internal/logger"
	"expensetracker/internal/models"
)

const publishTimeout = 5 * time.Second

// Alert is the message body published for a category needing attention.
type Alert struct {
	Username   string          `json:"username"`
	Category   string          `json:"category"`
	Status     budget.Status   `json:"status"`
	Spent      decimal.Decimal `json:"spent"`
	Limit      decimal.Decimal `json:"limit"`
	Percentage float64         `json:"percentage"`
	OverAmount decimal.Decimal `json:"over_amount"`
	AsOf       models.Date     `json:"as_of"`
}

// NewAlert builds the alert for username from a computed status.
func NewAlert(username string, s budget.CategoryStatus, asOf models.Date) Alert {
	return Alert{
		Username:   username,
		Category:   s.Category,
		Status:     s.Status,
		Spent:      s.Spent,
		Limit:      s.Limit,
		Percentage: s.Percentage,
		OverAmount: s.OverAmount,
		AsOf:       asOf,
	}
}

// Publisher delivers alerts.
type Publisher interface {
	Publish(ctx context.Context, alert Alert) error
	Close() error
}

// NopPublisher drops every alert. It is used when no broker is configured.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Alert) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// AMQPPublisher publishes alerts as persistent JSON messages to a durable
// queue through the default exchange. A channel or connection closed by the
// broker is reopened on the next Publish.
type AMQPPublisher struct {
	mu      sync.Mutex
	url     string
	queue   string
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool
}

// NewAMQPPublisher dials url and declares queue.
func NewAMQPPublisher(url, queue string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{url: url, queue: queue}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect (re)opens whatever part of the connection is gone and declares the
// queue on the new channel. The caller holds p.mu.
func (p *AMQPPublisher) connect() error {
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return fmt.Errorf("dial AMQP: %w", err)
		}
		p.conn = conn
		p.channel = nil
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		ch.Close()
		return fmt.Errorf("declare queue: %w", err)
	}

	p.channel = ch
	return nil
}

// Publish implements Publisher.
func (p *AMQPPublisher) Publish(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPublisherClosed
	}
	if p.channel == nil || p.channel.IsClosed() {
		logger.Named("notify").Warnw("AMQP channel closed, reconnecting", "queue", p.queue)
		if err := p.connect(); err != nil {
			return fmt.Errorf("reconnect: %w", err)
		}
	}

	err = p.channel.PublishWithContext(
		ctx,
		"",      // default exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}

	logger.Named("notify").Infow("budget alert published",
		"category", alert.Category,
		"status", alert.Status,
		"queue", p.queue,
	)
	return nil
}

// Close releases the channel and the connection. Later calls to Publish
// fail with ErrPublisherClosed.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}
