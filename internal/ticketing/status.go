package ticketing

import "eventia/backend/internal/models"

// bookingStatusFor maps a payment decision to the booking status that must accompany it.
var bookingStatusFor = map[string]string{
	models.PaymentStatusVerified: models.BookingStatusConfirmed,
	models.PaymentStatusRejected: models.BookingStatusCancelled,
}

// allowedPaymentTransitions lists every automatic or admin payment transition.
var allowedPaymentTransitions = map[string][]string{
	models.PaymentStatusPending:  {models.PaymentStatusVerified, models.PaymentStatusRejected},
	models.PaymentStatusVerified: {models.PaymentStatusRefunded},
}

// CanTransitionPayment reports whether a payment may move from one status to another.
func CanTransitionPayment(from, to string) bool {
	for _, next := range allowedPaymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckPaymentTransition returns an InvalidStateTransition error citing the current status.
func CheckPaymentTransition(current, to string) error {
	if CanTransitionPayment(current, to) {
		return nil
	}
	return NewError(KindInvalidStateTransition, CodeInvalidPaymentStatus, "Payment already %s", current)
}

// BookingStatusForDecision returns the booking status paired with a payment decision.
func BookingStatusForDecision(paymentStatus string) (string, bool) {
	status, ok := bookingStatusFor[paymentStatus]
	return status, ok
}

// IsFinalDecision reports whether a payment no longer accepts UTR changes.
func IsFinalDecision(status string) bool {
	switch status {
	case models.PaymentStatusVerified, models.PaymentStatusRejected, models.PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// PaymentEventKind returns the outbox kind for a booking status reached by verification.
func PaymentEventKind(bookingStatus string) string {
	if bookingStatus == models.BookingStatusConfirmed {
		return models.EventKindBookingConfirmed
	}
	return models.EventKindBookingCancelled
}
