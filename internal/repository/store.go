package repository

import (
	"context"
	"errors"
	"time"

	"eventia/backend/internal/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("duplicate record")
	ErrStateNotAllowed   = errors.New("state not allowed")
	ErrDiscountExhausted = errors.New("discount uses exhausted")
	ErrDiscountExpired   = errors.New("discount expired")
)

type BookingStore interface {
	InsertBooking(ctx context.Context, booking models.Booking) (models.Booking, error)
	GetBooking(ctx context.Context, id string) (models.Booking, error)
	ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error)
	// UpdateBookingStatus moves a booking from one status to another and returns
	// ErrStateNotAllowed when the booking is not in the from status.
	UpdateBookingStatus(ctx context.Context, id, from, to string) (models.Booking, error)
}

type PaymentStore interface {
	// InsertPayment returns ErrDuplicate when the booking already has a payment.
	InsertPayment(ctx context.Context, payment models.Payment) (models.Payment, error)
	GetPayment(ctx context.Context, id string) (models.Payment, error)
	// LockPayment reads a payment and holds its row lock until the transaction ends.
	LockPayment(ctx context.Context, id string) (models.Payment, error)
	GetPaymentByBooking(ctx context.Context, bookingID string) (models.Payment, error)
	UpdatePaymentUTR(ctx context.Context, id, utr string) (models.Payment, error)
	TransitionPayment(ctx context.Context, transition models.PaymentTransition) (models.Payment, error)
	SetPaymentProof(ctx context.Context, id, key string) (models.Payment, error)
	ListPayments(ctx context.Context, status string, limit, offset int) ([]models.Payment, int, error)
	ListPaymentStatsRows(ctx context.Context) ([]models.PaymentStatsRow, error)
}

type DiscountStore interface {
	InsertDiscount(ctx context.Context, discount models.Discount) (models.Discount, error)
	GetDiscount(ctx context.Context, id string) (models.Discount, error)
	GetDiscountByCode(ctx context.Context, code string) (models.Discount, error)
	ListDiscounts(ctx context.Context, activeOnly bool) ([]models.Discount, error)
	ListAutoApplyDiscounts(ctx context.Context, eventID string) ([]models.Discount, error)
	// SaveDiscount persists admin-editable fields; uses_count is never written here.
	SaveDiscount(ctx context.Context, discount models.Discount) (models.Discount, error)
	// IncrementDiscountUses adds exactly one use in a single atomic statement.
	IncrementDiscountUses(ctx context.Context, id string, now time.Time) (models.Discount, error)
}

type UpiSettingsStore interface {
	InsertUpiSettings(ctx context.Context, settings models.UpiSettings) (models.UpiSettings, error)
	GetUpiSettings(ctx context.Context, id string) (models.UpiSettings, error)
	SaveUpiSettings(ctx context.Context, settings models.UpiSettings) (models.UpiSettings, error)
	DeactivateOtherUpiSettings(ctx context.Context, keepID string) error
	// ListActiveUpiSettings returns active rows, most recently updated first.
	ListActiveUpiSettings(ctx context.Context) ([]models.UpiSettings, error)
}

type DeliveryStore interface {
	UpsertDelivery(ctx context.Context, details models.DeliveryDetails) (models.DeliveryDetails, error)
	GetDelivery(ctx context.Context, bookingID string) (models.DeliveryDetails, error)
	MarkDispatchReady(ctx context.Context, bookingID string) (models.DeliveryDetails, error)
	MarkDispatched(ctx context.Context, bookingID, trackingNumber, actorID string, at time.Time) (models.DeliveryDetails, error)
}

type EventStore interface {
	InsertBookingEvent(ctx context.Context, event models.BookingEvent) error
	// ListUnpublishedEvents skips rows locked by another relay when run in a transaction.
	ListUnpublishedEvents(ctx context.Context, limit int) ([]models.BookingEvent, error)
	MarkEventPublished(ctx context.Context, id string, at time.Time) error
}

// Store is the storage boundary used by the service layer.
type Store interface {
	BookingStore
	PaymentStore
	DiscountStore
	UpiSettingsStore
	DeliveryStore
	EventStore

	// WithTx runs fn against a transactional view; nested calls reuse the outer transaction.
	WithTx(ctx context.Context, fn func(Store) error) error
}
