package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eventia/backend/internal/models"
	"eventia/backend/internal/repository"
	"eventia/backend/internal/ticketing"
)

// DeliveryManager tracks shipping of physical tickets for confirmed bookings.
type DeliveryManager struct {
	baseDeps
	store        repository.Store
	ticketSecret string
}

type DeliveryInput struct {
	BookingID string
	Name      string
	Phone     string
	Address   string
	City      string
	Pincode   string
}

// SaveDeliveryDetails stores or replaces the shipping address until tickets are dispatched.
func (d *DeliveryManager) SaveDeliveryDetails(ctx context.Context, in DeliveryInput) (models.DeliveryDetails, error) {
	bookingID, err := requireID(in.BookingID, "bookingId")
	if err != nil {
		return models.DeliveryDetails{}, err
	}
	details := models.DeliveryDetails{
		BookingID: bookingID,
		Name:      strings.TrimSpace(in.Name),
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		City:      strings.TrimSpace(in.City),
		Pincode:   strings.TrimSpace(in.Pincode),
		CreatedAt: d.now(),
	}
	for _, field := range []struct{ name, value string }{
		{"name", details.Name},
		{"phone", details.Phone},
		{"address", details.Address},
		{"city", details.City},
		{"pincode", details.Pincode},
	} {
		if field.value == "" {
			return models.DeliveryDetails{}, ticketing.InvalidInput("%s is required", field.name)
		}
	}

	var saved models.DeliveryDetails
	err = d.store.WithTx(ctx, func(tx repository.Store) error {
		booking, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return bookingNotFound(bookingID, err)
		}
		if booking.Status == models.BookingStatusCancelled {
			return ticketing.NewError(ticketing.KindInvalidStateTransition, ticketing.CodeInvalidBookingStatus,
				"booking %s is cancelled", bookingID)
		}
		details.DispatchReady = booking.Status == models.BookingStatusConfirmed
		saved, err = tx.UpsertDelivery(ctx, details)
		if errors.Is(err, repository.ErrStateNotAllowed) {
			return alreadyDispatched(bookingID, err)
		}
		if err != nil {
			return fmt.Errorf("save delivery details: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.DeliveryDetails{}, err
	}
	d.logger.Info("delivery_details_saved", "booking_id", bookingID, "dispatch_ready", saved.DispatchReady)
	return saved, nil
}

func (d *DeliveryManager) GetDelivery(ctx context.Context, bookingID string) (models.DeliveryDetails, error) {
	bookingID, err := requireID(bookingID, "bookingId")
	if err != nil {
		return models.DeliveryDetails{}, err
	}
	details, err := d.store.GetDelivery(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.DeliveryDetails{}, ticketing.WrapError(ticketing.KindNotFound, ticketing.CodeDeliveryNotFound, err,
			"no delivery details for booking %s", bookingID)
	}
	if err != nil {
		return models.DeliveryDetails{}, fmt.Errorf("load delivery details: %w", err)
	}
	return details, nil
}

// MarkDispatchReady flags a confirmed booking's delivery for the dispatch queue.
// A booking without delivery details is skipped.
func (d *DeliveryManager) MarkDispatchReady(ctx context.Context, bookingID string) error {
	details, err := d.store.MarkDispatchReady(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		d.logger.Debug("dispatch_ready_skipped", "booking_id", bookingID, "reason", "no delivery details")
		return nil
	}
	if err != nil {
		return fmt.Errorf("mark dispatch ready %s: %w", bookingID, err)
	}
	d.logger.Info("dispatch_ready", "booking_id", details.BookingID)
	return nil
}

// Dispatch records the courier tracking number and issues the signed ticket pass.
func (d *DeliveryManager) Dispatch(ctx context.Context, bookingID, trackingNumber, adminID string) (models.DispatchResult, error) {
	adminID, err := requireActor(adminID)
	if err != nil {
		return models.DispatchResult{}, err
	}
	bookingID, err = requireID(bookingID, "bookingId")
	if err != nil {
		return models.DispatchResult{}, err
	}
	trackingNumber, err = requireID(trackingNumber, "trackingNumber")
	if err != nil {
		return models.DispatchResult{}, err
	}

	var result models.DispatchResult
	err = d.store.WithTx(ctx, func(tx repository.Store) error {
		booking, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return bookingNotFound(bookingID, err)
		}
		if booking.Status != models.BookingStatusConfirmed {
			return ticketing.NewError(ticketing.KindInvalidStateTransition, ticketing.CodeInvalidBookingStatus,
				"booking %s is %s, only confirmed bookings can be dispatched", bookingID, booking.Status)
		}
		now := d.now()
		delivery, err := tx.MarkDispatched(ctx, bookingID, trackingNumber, adminID, now)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ticketing.WrapError(ticketing.KindNotFound, ticketing.CodeDeliveryNotFound, err,
				"no delivery details for booking %s", bookingID)
		case errors.Is(err, repository.ErrStateNotAllowed):
			return alreadyDispatched(bookingID, err)
		case err != nil:
			return fmt.Errorf("mark dispatched: %w", err)
		}

		pass, err := ticketing.NewTicketPass(booking.ID, booking.EventID, len(booking.Seats), trackingNumber, now)
		if err != nil {
			return fmt.Errorf("build ticket pass: %w", err)
		}
		token, err := ticketing.SignTicketPass(d.ticketSecret, pass)
		if err != nil {
			return fmt.Errorf("sign ticket pass: %w", err)
		}
		result = models.DispatchResult{Delivery: delivery, PassToken: token}
		return nil
	})
	if err != nil {
		return models.DispatchResult{}, err
	}
	d.logger.Info("tickets_dispatched", "booking_id", bookingID, "tracking_number", trackingNumber, "admin_id", adminID)
	return result, nil
}

// VerifyPass checks a pass signature and that its booking is still confirmed.
func (d *DeliveryManager) VerifyPass(ctx context.Context, token string) (ticketing.TicketPass, error) {
	pass, err := ticketing.VerifyTicketPass(d.ticketSecret, strings.TrimSpace(token))
	if err != nil {
		return ticketing.TicketPass{}, ticketing.WrapError(ticketing.KindInvalidInput, ticketing.CodeInvalidInput, err, "ticket pass is not valid")
	}
	booking, err := d.store.GetBooking(ctx, pass.BookingID)
	if err != nil {
		return ticketing.TicketPass{}, bookingNotFound(pass.BookingID, err)
	}
	if booking.Status != models.BookingStatusConfirmed {
		return ticketing.TicketPass{}, ticketing.NewError(ticketing.KindInvalidStateTransition, ticketing.CodeInvalidBookingStatus,
			"booking %s is %s", booking.ID, booking.Status)
	}
	return pass, nil
}

func alreadyDispatched(bookingID string, err error) error {
	return ticketing.WrapError(ticketing.KindInvalidStateTransition, ticketing.CodeAlreadyDispatched, err,
		"tickets for booking %s were already dispatched", bookingID)
}
