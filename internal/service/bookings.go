package service

import (
	"context"
	"fmt"
	"strings"

	"eventia/backend/internal/models"
	"eventia/backend/internal/repository"
	"eventia/backend/internal/ticketing"

	"github.com/shopspring/decimal"
)

// BookingManager creates bookings and serves their read side.
// Booking status only changes through VerificationOrchestrator.
type BookingManager struct {
	baseDeps
	store     repository.Store
	discounts *DiscountResolver
	platform  PlatformDiscountSource
}

type CreateBookingInput struct {
	EventID string
	UserID  *string
	Seats   []models.Seat
	// DiscountCode is consumed together with the booking insert.
	DiscountCode string
	// AutoApply picks the best auto-apply discount for the event when no code is given.
	AutoApply bool
	// DiscountAmount overrides the platform fallback discount when no code discount applies.
	DiscountAmount decimal.Decimal
}

// CreateBooking derives the amounts from the seats and the applicable discount
// and stores a pending booking.
func (m *BookingManager) CreateBooking(ctx context.Context, in CreateBookingInput) (models.Booking, error) {
	eventID, err := requireID(in.EventID, "eventId")
	if err != nil {
		return models.Booking{}, err
	}
	if err := ticketing.ValidateSeats(in.Seats); err != nil {
		return models.Booking{}, err
	}
	if err := ticketing.CheckMoney("discount amount", in.DiscountAmount); err != nil {
		return models.Booking{}, err
	}

	var selected *models.Discount
	manual := false
	if code := ticketing.NormalizeCode(in.DiscountCode); code != "" {
		validation, err := m.discounts.ValidateCode(ctx, code)
		if err != nil {
			return models.Booking{}, err
		}
		if !validation.Valid {
			return models.Booking{}, ticketing.ReasonError(code, validation.Reason)
		}
		selected = validation.Discount
		manual = true
	} else if in.AutoApply {
		selected, err = m.discounts.ResolveAutoApply(ctx, eventID)
		if err != nil {
			return models.Booking{}, err
		}
	}

	fallback := in.DiscountAmount
	if selected == nil && fallback.IsZero() && m.platform != nil {
		fallback, err = m.platform.PlatformDiscount(ctx)
		if err != nil {
			return models.Booking{}, err
		}
	}

	booking := models.Booking{
		ID:        m.newID(),
		EventID:   eventID,
		UserID:    trimmedPtr(in.UserID),
		Seats:     append([]models.Seat(nil), in.Seats...),
		Status:    models.BookingStatusPending,
		CreatedAt: m.now(),
	}
	err = m.store.WithTx(ctx, func(tx repository.Store) error {
		discount := fallback
		if selected != nil {
			applied, err := m.discounts.apply(ctx, tx, selected.ID)
			switch {
			case err == nil:
				discount = applied.Amount
				booking.DiscountID = &applied.ID
			case manual:
				return err
			default:
				m.logger.Warn("auto_apply_discount_skipped", "event_id", eventID, "discount_id", selected.ID, "error", err)
			}
		}
		amounts, err := ticketing.ComputeAmounts(booking.Seats, discount)
		if err != nil {
			return err
		}
		booking.TotalAmount = amounts.Total
		booking.DiscountApplied = amounts.DiscountApplied
		booking.FinalAmount = amounts.Final

		created, err := tx.InsertBooking(ctx, booking)
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		booking = created
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}

	m.logger.Info("booking_created",
		"booking_id", booking.ID,
		"event_id", booking.EventID,
		"seats", len(booking.Seats),
		"total", booking.TotalAmount.String(),
		"discount", booking.DiscountApplied.String(),
		"final", booking.FinalAmount.String(),
	)
	return booking, nil
}

func (m *BookingManager) GetByID(ctx context.Context, id string) (models.Booking, error) {
	id, err := requireID(id, "bookingId")
	if err != nil {
		return models.Booking{}, err
	}
	booking, err := m.store.GetBooking(ctx, id)
	if err != nil {
		return models.Booking{}, bookingNotFound(id, err)
	}
	return booking, nil
}

// ListByUser returns a user's bookings newest first.
func (m *BookingManager) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ticketing.InvalidInput("userId is required")
	}
	items, err := m.store.ListBookingsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return items, nil
}
