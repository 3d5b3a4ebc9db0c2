package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventKindBookingConfirmed = "booking.confirmed"
	EventKindBookingCancelled = "booking.cancelled"
)

// BookingEvent represents an outbox row written alongside a booking transition.
type BookingEvent struct {
	ID          string          `json:"id"`
	BookingID   string          `json:"bookingId"`
	Kind        string          `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"createdAt"`
	PublishedAt *time.Time      `json:"publishedAt,omitempty"`
}

// BookingEventPayload is the message body published for a booking transition.
type BookingEventPayload struct {
	BookingID   string          `json:"bookingId"`
	PaymentID   string          `json:"paymentId"`
	EventID     string          `json:"eventId"`
	UserID      *string         `json:"userId,omitempty"`
	Status      string          `json:"status"`
	FinalAmount decimal.Decimal `json:"finalAmount"`
	SeatCount   int             `json:"seatCount"`
	ActorID     string          `json:"actorId"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

// PaymentStatsRow represents one payment joined with its booking's event.
type PaymentStatsRow struct {
	PaymentID string
	EventID   string
	Status    string
	Amount    decimal.Decimal
}
