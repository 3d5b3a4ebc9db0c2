// Package service holds the booking, payment, discount and verification lifecycle.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventia/backend/internal/models"
	"eventia/backend/internal/repository"
	"eventia/backend/internal/ticketing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Services bundles every lifecycle component over one store.
type Services struct {
	Discounts    *DiscountResolver
	Bookings     *BookingManager
	Payments     *PaymentManager
	Verification *VerificationOrchestrator
	UpiSettings  *UpiSettingsProvider
	Delivery     *DeliveryManager
}

// Dependencies lists the optional collaborators of the lifecycle components.
type Dependencies struct {
	Logger       *slog.Logger
	Cache        SettingsCache
	Proofs       ProofStorage
	TicketSecret string
}

// New wires the lifecycle components.
func New(store repository.Store, deps Dependencies) *Services {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	base := baseDeps{logger: logger, now: utcNow, newID: uuid.NewString}
	upi := &UpiSettingsProvider{baseDeps: base.named("upi_settings"), store: store, cache: deps.Cache}
	discounts := &DiscountResolver{baseDeps: base.named("discounts"), store: store}
	return &Services{
		Discounts:    discounts,
		Bookings:     &BookingManager{baseDeps: base.named("bookings"), store: store, discounts: discounts, platform: upi},
		Payments:     &PaymentManager{baseDeps: base.named("payments"), store: store, proofs: deps.Proofs},
		Verification: &VerificationOrchestrator{baseDeps: base.named("verification"), store: store},
		UpiSettings:  upi,
		Delivery:     &DeliveryManager{baseDeps: base.named("delivery"), store: store, ticketSecret: deps.TicketSecret},
	}
}

// SetClock replaces the time source of every component.
func (s *Services) SetClock(now func() time.Time) {
	for _, b := range []*baseDeps{
		&s.Discounts.baseDeps,
		&s.Bookings.baseDeps,
		&s.Payments.baseDeps,
		&s.Verification.baseDeps,
		&s.UpiSettings.baseDeps,
		&s.Delivery.baseDeps,
	} {
		b.now = now
	}
}

type baseDeps struct {
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

func (b baseDeps) named(component string) baseDeps {
	b.logger = b.logger.With("component", component)
	return b
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// SettingsCache caches the active UPI settings row. Set takes the generation
// read before the row was loaded; Invalidate advances it.
type SettingsCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context) (models.UpiSettings, bool, error)
	Set(ctx context.Context, settings models.UpiSettings, generation int64) error
	Invalidate(ctx context.Context) error
}

// ProofStorage presigns uploads and downloads of payment proof screenshots.
type ProofStorage interface {
	PresignPutObject(ctx context.Context, fileName, contentType string) (uploadURL, fileURL, key string, err error)
	PresignGetObject(ctx context.Context, key string) (string, error)
}

// PlatformDiscountSource supplies the platform-wide fallback discount.
type PlatformDiscountSource interface {
	PlatformDiscount(ctx context.Context) (decimal.Decimal, error)
}

func requireID(value, field string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", ticketing.InvalidInput("%s is required", field)
	}
	return trimmed, nil
}

func requireActor(adminID string) (string, error) {
	trimmed := strings.TrimSpace(adminID)
	if trimmed == "" {
		return "", ticketing.NewError(ticketing.KindUnauthorized, ticketing.CodeUnauthorized, "admin identity is required")
	}
	return trimmed, nil
}

func bookingNotFound(id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ticketing.WrapError(ticketing.KindNotFound, ticketing.CodeBookingNotFound, err, "booking %s not found", id)
	}
	return fmt.Errorf("load booking %s: %w", id, err)
}

func paymentNotFound(id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ticketing.WrapError(ticketing.KindNotFound, ticketing.CodePaymentNotFound, err, "payment %s not found", id)
	}
	return fmt.Errorf("load payment %s: %w", id, err)
}

func stringPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
