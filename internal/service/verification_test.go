package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"eventia/backend/internal/models"
	"eventia/backend/internal/ticketing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyConfirmsBooking(t *testing.T) {
	svc, store := newTestServices(t, Dependencies{})
	ctx := context.Background()
	booking, payment := createPendingPayment(t, svc, 800)

	result, err := svc.Verification.Verify(ctx, payment.ID, testAdmin)
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusVerified, result.Payment.Status)
	assert.Equal(t, models.BookingStatusConfirmed, result.Booking.Status)
	require.NotNil(t, result.Payment.VerifiedBy)
	assert.Equal(t, testAdmin, *result.Payment.VerifiedBy)
	require.NotNil(t, result.Payment.PaymentDate)
	assert.True(t, result.Payment.PaymentDate.Equal(testNow))

	events, err := store.ListUnpublishedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventKindBookingConfirmed, events[0].Kind)
	var payload models.BookingEventPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, booking.ID, payload.BookingID)
	assert.Equal(t, payment.ID, payload.PaymentID)
	assert.Equal(t, testAdmin, payload.ActorID)
	assert.Equal(t, 1, payload.SeatCount)
}

func TestRejectCancelsBooking(t *testing.T) {
	svc, store := newTestServices(t, Dependencies{})
	ctx := context.Background()
	_, payment := createPendingPayment(t, svc, 800)

	result, err := svc.Verification.Reject(ctx, payment.ID, testAdmin)
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusRejected, result.Payment.Status)
	assert.Equal(t, models.BookingStatusCancelled, result.Booking.Status)
	assert.Nil(t, result.Payment.PaymentDate)

	events, err := store.ListUnpublishedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventKindBookingCancelled, events[0].Kind)
}

func TestSecondDecisionFailsAndLeavesStateUnchanged(t *testing.T) {
	svc, store := newTestServices(t, Dependencies{})
	ctx := context.Background()
	booking, payment := createPendingPayment(t, svc, 800)

	_, err := svc.Verification.Verify(ctx, payment.ID, testAdmin)
	require.NoError(t, err)

	_, err = svc.Verification.Verify(ctx, payment.ID, testAdmin)
	requireKind(t, err, ticketing.KindInvalidStateTransition)
	assert.Contains(t, err.Error(), "verified")
	assert.Equal(t, ticketing.CodeInvalidPaymentStatus, ticketing.CodeOf(err))

	_, err = svc.Verification.Reject(ctx, payment.ID, "admin-2")
	requireKind(t, err, ticketing.KindInvalidStateTransition)

	storedPayment, err := store.GetPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusVerified, storedPayment.Status)
	assert.Equal(t, testAdmin, *storedPayment.VerifiedBy)
	storedBooking, err := store.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, storedBooking.Status)
	events, err := store.ListUnpublishedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestConcurrentDecisionsApplyOnce(t *testing.T) {
	svc, store := newTestServices(t, Dependencies{})
	ctx := context.Background()
	_, payment := createPendingPayment(t, svc, 800)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		applied  int
		rejected int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = svc.Verification.Verify(ctx, payment.ID, testAdmin)
			} else {
				_, err = svc.Verification.Reject(ctx, payment.ID, testAdmin)
			}
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				applied++
			case ticketing.IsKind(err, ticketing.KindInvalidStateTransition):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, applied)
	assert.Equal(t, 7, rejected)
	events, err := store.ListUnpublishedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestDecisionRequiresAdmin(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	ctx := context.Background()
	_, payment := createPendingPayment(t, svc, 800)

	_, err := svc.Verification.Verify(ctx, payment.ID, " ")
	requireKind(t, err, ticketing.KindUnauthorized)

	_, err = svc.Verification.Reject(ctx, "missing", testAdmin)
	requireKind(t, err, ticketing.KindNotFound)
	assert.Equal(t, ticketing.CodePaymentNotFound, ticketing.CodeOf(err))
}

func TestRefundKeepsBookingConfirmed(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	ctx := context.Background()
	_, payment := createPendingPayment(t, svc, 800)

	_, err := svc.Verification.Refund(ctx, payment.ID, testAdmin)
	requireKind(t, err, ticketing.KindInvalidStateTransition)
	assert.Contains(t, err.Error(), "pending")

	_, err = svc.Verification.Verify(ctx, payment.ID, testAdmin)
	require.NoError(t, err)

	result, err := svc.Verification.Refund(ctx, payment.ID, "admin-2")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, result.Payment.Status)
	assert.Equal(t, models.BookingStatusConfirmed, result.Booking.Status)
	require.NotNil(t, result.Payment.VerifiedBy)
	assert.Equal(t, testAdmin, *result.Payment.VerifiedBy)
	require.NotNil(t, result.Payment.RefundedBy)
	assert.Equal(t, "admin-2", *result.Payment.RefundedBy)

	stored, err := svc.Payments.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefundedBy)
	assert.Equal(t, "admin-2", *stored.RefundedBy)

	_, err = svc.Verification.Refund(ctx, payment.ID, testAdmin)
	requireKind(t, err, ticketing.KindInvalidStateTransition)
}
