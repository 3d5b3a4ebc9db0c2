package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventia/backend/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	consumerPrefetch  = 50
	maxConsumeBackoff = 30 * time.Second
)

// ErrUnhandledKind is returned for messages of a kind without a registered handler.
var ErrUnhandledKind = errors.New("unhandled event kind")

// Handler processes one decoded booking event.
type Handler func(ctx context.Context, payload models.BookingEventPayload) error

// DispatchMarker flags a booking's delivery details as ready to ship.
type DispatchMarker interface {
	MarkDispatchReady(ctx context.Context, bookingID string) error
}

// DispatchReadyHandler marks deliveries ready once the booking is confirmed.
func DispatchReadyHandler(marker DispatchMarker) Handler {
	return func(ctx context.Context, payload models.BookingEventPayload) error {
		return marker.MarkDispatchReady(ctx, payload.BookingID)
	}
}

// Consumer reads booking events from RabbitMQ and routes them by kind.
type Consumer struct {
	url      string
	logger   *slog.Logger
	handlers map[string]Handler
	sleep    func(ctx context.Context, d time.Duration) bool
}

func NewConsumer(url string, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{url: url, logger: logger, handlers: map[string]Handler{}, sleep: sleepCtx}
}

// Handle registers h for kind. It must be called before Run.
func (c *Consumer) Handle(kind string, h Handler) {
	c.handlers[kind] = h
}

// Run consumes until ctx is cancelled, reconnecting with exponential backoff.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warn("amqp_consumer_dial_failed", "error", err, "retry_in", backoff.String())
			if !c.sleep(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		c.logger.Warn("amqp_consumer_reconnecting", "error", err)
		if !c.sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	// Cancelled on return so forwarders from a dropped connection exit before the reconnect.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(consumerPrefetch, 0, false); err != nil {
		c.logger.Warn("amqp_consumer_qos_failed", "error", err)
	}
	if err := declareQueues(ch); err != nil {
		return err
	}

	deliveries := make(chan amqp.Delivery)
	for kind := range c.handlers {
		msgs, err := ch.ConsumeWithContext(ctx, kind, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("consume %s: %w", kind, err)
		}
		go forward(ctx, msgs, deliveries)
	}
	c.logger.Info("amqp_consumer_started", "queues", len(c.handlers))

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-closed:
			if amqpErr == nil {
				return errors.New("connection closed")
			}
			return amqpErr
		case d := <-deliveries:
			c.deliver(ctx, d)
		}
	}
}

// forward copies msgs into out until msgs closes or ctx is done.
func forward(ctx context.Context, msgs <-chan amqp.Delivery, out chan<- amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				return
			}
			select {
			case out <- d:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, d amqp.Delivery) {
	kind := d.RoutingKey
	if d.Type != "" {
		kind = d.Type
	}
	err := c.Dispatch(ctx, kind, d.Body)
	if err != nil {
		c.logger.Error("booking_event_failed", "kind", kind, "message_id", d.MessageId, "error", err)
		// Malformed or unroutable messages are dropped; handler failures are retried.
		requeue := !errors.Is(err, ErrUnhandledKind) && !isDecodeError(err)
		_ = d.Nack(false, requeue)
		return
	}
	_ = d.Ack(false)
}

// Dispatch decodes body and runs the handler registered for kind.
func (c *Consumer) Dispatch(ctx context.Context, kind string, body []byte) error {
	h, ok := c.handlers[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnhandledKind, kind)
	}
	var payload models.BookingEventPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return decodeError{err: err}
	}
	if payload.BookingID == "" {
		return decodeError{err: errors.New("bookingId is empty")}
	}
	if err := h(ctx, payload); err != nil {
		return err
	}
	c.logger.Info("booking_event_handled", "kind", kind, "booking_id", payload.BookingID)
	return nil
}

type decodeError struct{ err error }

func (e decodeError) Error() string { return "decode event: " + e.err.Error() }
func (e decodeError) Unwrap() error { return e.err }

func isDecodeError(err error) bool {
	var target decodeError
	return errors.As(err, &target)
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxConsumeBackoff {
		return maxConsumeBackoff
	}
	return next
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
