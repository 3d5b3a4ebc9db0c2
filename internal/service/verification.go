package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"eventia/backend/internal/models"
	"eventia/backend/internal/repository"
	"eventia/backend/internal/ticketing"
)

// VerificationOrchestrator applies admin payment decisions.
// A decision updates the payment and its booking in one transaction, or neither.
type VerificationOrchestrator struct {
	baseDeps
	store repository.Store
}

// Verify marks a pending payment verified and confirms its booking.
func (o *VerificationOrchestrator) Verify(ctx context.Context, paymentID, adminID string) (models.VerificationResult, error) {
	return o.decide(ctx, paymentID, adminID, models.PaymentStatusVerified)
}

// Reject marks a pending payment rejected and cancels its booking.
func (o *VerificationOrchestrator) Reject(ctx context.Context, paymentID, adminID string) (models.VerificationResult, error) {
	return o.decide(ctx, paymentID, adminID, models.PaymentStatusRejected)
}

func (o *VerificationOrchestrator) decide(ctx context.Context, paymentID, adminID, to string) (models.VerificationResult, error) {
	adminID, err := requireActor(adminID)
	if err != nil {
		return models.VerificationResult{}, err
	}
	paymentID, err = requireID(paymentID, "paymentId")
	if err != nil {
		return models.VerificationResult{}, err
	}
	bookingStatus, ok := ticketing.BookingStatusForDecision(to)
	if !ok {
		return models.VerificationResult{}, fmt.Errorf("no booking status for payment status %s", to)
	}

	var result models.VerificationResult
	err = o.store.WithTx(ctx, func(tx repository.Store) error {
		payment, err := tx.LockPayment(ctx, paymentID)
		if err != nil {
			return paymentNotFound(paymentID, err)
		}
		if err := ticketing.CheckPaymentTransition(payment.Status, to); err != nil {
			return err
		}

		now := o.now()
		transition := models.PaymentTransition{
			PaymentID: paymentID,
			From:      payment.Status,
			To:        to,
			ActorID:   adminID,
		}
		if to == models.PaymentStatusVerified {
			transition.PaymentDate = &now
		}
		updated, err := tx.TransitionPayment(ctx, transition)
		if errors.Is(err, repository.ErrStateNotAllowed) {
			return ticketing.NewError(ticketing.KindInvalidStateTransition, ticketing.CodeInvalidPaymentStatus,
				"payment %s changed while being verified", paymentID)
		}
		if err != nil {
			return paymentNotFound(paymentID, err)
		}

		booking, err := tx.UpdateBookingStatus(ctx, payment.BookingID, models.BookingStatusPending, bookingStatus)
		if errors.Is(err, repository.ErrStateNotAllowed) {
			return ticketing.WrapError(ticketing.KindInvalidStateTransition, ticketing.CodeInvalidBookingStatus, err,
				"booking %s is no longer pending", payment.BookingID)
		}
		if err != nil {
			return bookingNotFound(payment.BookingID, err)
		}

		if err := o.recordEvent(ctx, tx, updated, booking, adminID); err != nil {
			return err
		}
		result = models.VerificationResult{Payment: updated, Booking: booking}
		return nil
	})
	if err != nil {
		return models.VerificationResult{}, err
	}

	o.logger.Info("payment_decided",
		"payment_id", result.Payment.ID,
		"booking_id", result.Booking.ID,
		"payment_status", result.Payment.Status,
		"booking_status", result.Booking.Status,
		"admin_id", adminID,
	)
	return result, nil
}

// Refund moves a verified payment to refunded. The booking stays confirmed.
func (o *VerificationOrchestrator) Refund(ctx context.Context, paymentID, adminID string) (models.VerificationResult, error) {
	adminID, err := requireActor(adminID)
	if err != nil {
		return models.VerificationResult{}, err
	}
	paymentID, err = requireID(paymentID, "paymentId")
	if err != nil {
		return models.VerificationResult{}, err
	}

	var result models.VerificationResult
	err = o.store.WithTx(ctx, func(tx repository.Store) error {
		payment, err := tx.LockPayment(ctx, paymentID)
		if err != nil {
			return paymentNotFound(paymentID, err)
		}
		if err := ticketing.CheckPaymentTransition(payment.Status, models.PaymentStatusRefunded); err != nil {
			return err
		}
		updated, err := tx.TransitionPayment(ctx, models.PaymentTransition{
			PaymentID: paymentID,
			From:      payment.Status,
			To:        models.PaymentStatusRefunded,
			ActorID:   adminID,
		})
		if err != nil {
			return paymentNotFound(paymentID, err)
		}
		booking, err := tx.GetBooking(ctx, payment.BookingID)
		if err != nil {
			return bookingNotFound(payment.BookingID, err)
		}
		result = models.VerificationResult{Payment: updated, Booking: booking}
		return nil
	})
	if err != nil {
		return models.VerificationResult{}, err
	}
	o.logger.Info("payment_refunded", "payment_id", paymentID, "booking_id", result.Booking.ID, "admin_id", adminID)
	return result, nil
}

func (o *VerificationOrchestrator) recordEvent(ctx context.Context, tx repository.Store, payment models.Payment, booking models.Booking, adminID string) error {
	now := o.now()
	payload, err := json.Marshal(models.BookingEventPayload{
		BookingID:   booking.ID,
		PaymentID:   payment.ID,
		EventID:     booking.EventID,
		UserID:      booking.UserID,
		Status:      booking.Status,
		FinalAmount: booking.FinalAmount,
		SeatCount:   len(booking.Seats),
		ActorID:     adminID,
		OccurredAt:  now,
	})
	if err != nil {
		return fmt.Errorf("encode booking event: %w", err)
	}
	err = tx.InsertBookingEvent(ctx, models.BookingEvent{
		ID:        o.newID(),
		BookingID: booking.ID,
		Kind:      ticketing.PaymentEventKind(booking.Status),
		Payload:   payload,
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("record booking event: %w", err)
	}
	return nil
}
