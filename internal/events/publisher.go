// Package events moves booking transitions from the outbox table to RabbitMQ
// and consumes them for follow-up work.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"eventia/backend/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Queues declared by the publisher and the consumer. Routing keys equal queue names.
var Queues = []string{models.EventKindBookingConfirmed, models.EventKindBookingCancelled}

// Publisher delivers one outbox event to the broker.
type Publisher interface {
	Publish(ctx context.Context, event models.BookingEvent) error
}

// AMQPPublisher publishes outbox events on the default exchange. The connection
// is opened lazily and re-dialed after a failure.
type AMQPPublisher struct {
	url    string
	logger *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url string, logger *slog.Logger) *AMQPPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AMQPPublisher{url: url, logger: logger}
}

func (p *AMQPPublisher) Publish(ctx context.Context, event models.BookingEvent) error {
	if !knownQueue(event.Kind) {
		return fmt.Errorf("unknown event kind %q", event.Kind)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, "", event.Kind, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.CreatedAt.UTC(),
		Type:         event.Kind,
		Body:         event.Payload,
	})
	if err != nil {
		p.reset()
		return fmt.Errorf("publish %s: %w", event.Kind, err)
	}
	return nil
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn, p.ch = nil, nil
	if errors.Is(err, amqp.ErrClosed) {
		return nil
	}
	return err
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.DialConfig(p.url, amqp.Config{Heartbeat: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareQueues(ch); err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	p.logger.Info("amqp_publisher_connected")
	return ch, nil
}

func (p *AMQPPublisher) reset() {
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

func declareQueues(ch *amqp.Channel) error {
	for _, name := range Queues {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", name, err)
		}
	}
	return nil
}

func knownQueue(kind string) bool {
	for _, name := range Queues {
		if name == kind {
			return true
		}
	}
	return false
}
