package service

import (
	"context"
	"testing"

	"eventia/backend/internal/ticketing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deliveryInput(bookingID string) DeliveryInput {
	return DeliveryInput{
		BookingID: bookingID,
		Name:      "Asha Rao",
		Phone:     "9876543210",
		Address:   "12 MG Road",
		City:      "Bengaluru",
		Pincode:   "560001",
	}
}

func TestDeliveryLifecycle(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	ctx := context.Background()
	booking, payment := createPendingPayment(t, svc, 800)

	saved, err := svc.Delivery.SaveDeliveryDetails(ctx, deliveryInput(booking.ID))
	require.NoError(t, err)
	assert.False(t, saved.DispatchReady)

	_, err = svc.Delivery.Dispatch(ctx, booking.ID, "TRK-1", testAdmin)
	requireKind(t, err, ticketing.KindInvalidStateTransition)
	assert.Equal(t, ticketing.CodeInvalidBookingStatus, ticketing.CodeOf(err))

	_, err = svc.Verification.Verify(ctx, payment.ID, testAdmin)
	require.NoError(t, err)
	require.NoError(t, svc.Delivery.MarkDispatchReady(ctx, booking.ID))

	ready, err := svc.Delivery.GetDelivery(ctx, booking.ID)
	require.NoError(t, err)
	assert.True(t, ready.DispatchReady)

	result, err := svc.Delivery.Dispatch(ctx, booking.ID, " TRK-1 ", testAdmin)
	require.NoError(t, err)
	require.NotNil(t, result.Delivery.TrackingNumber)
	assert.Equal(t, "TRK-1", *result.Delivery.TrackingNumber)
	require.NotNil(t, result.Delivery.DispatchedAt)
	assert.NotEmpty(t, result.PassToken)

	pass, err := svc.Delivery.VerifyPass(ctx, result.PassToken)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, pass.BookingID)
	assert.Equal(t, "TRK-1", pass.TrackingNumber)
	assert.Equal(t, 1, pass.SeatCount)

	_, err = svc.Delivery.Dispatch(ctx, booking.ID, "TRK-2", testAdmin)
	requireKind(t, err, ticketing.KindInvalidStateTransition)
	assert.Equal(t, ticketing.CodeAlreadyDispatched, ticketing.CodeOf(err))

	_, err = svc.Delivery.SaveDeliveryDetails(ctx, deliveryInput(booking.ID))
	requireKind(t, err, ticketing.KindInvalidStateTransition)
	assert.Equal(t, ticketing.CodeAlreadyDispatched, ticketing.CodeOf(err))
}

func TestSaveDeliveryDetailsValidation(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	ctx := context.Background()
	_, payment := createPendingPayment(t, svc, 800)

	in := deliveryInput(payment.BookingID)
	in.City = " "
	_, err := svc.Delivery.SaveDeliveryDetails(ctx, in)
	requireKind(t, err, ticketing.KindInvalidInput)
	assert.Contains(t, err.Error(), "city")

	_, err = svc.Delivery.SaveDeliveryDetails(ctx, deliveryInput("missing"))
	requireKind(t, err, ticketing.KindNotFound)

	_, err = svc.Verification.Reject(ctx, payment.ID, testAdmin)
	require.NoError(t, err)
	_, err = svc.Delivery.SaveDeliveryDetails(ctx, deliveryInput(payment.BookingID))
	requireKind(t, err, ticketing.KindInvalidStateTransition)
}

func TestMarkDispatchReadyWithoutDetails(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	ctx := context.Background()

	require.NoError(t, svc.Delivery.MarkDispatchReady(ctx, "no-details"))
	_, err := svc.Delivery.GetDelivery(ctx, "no-details")
	requireKind(t, err, ticketing.KindNotFound)
}

func TestDispatchRequiresTrackingAndDetails(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	ctx := context.Background()
	booking, payment := createPendingPayment(t, svc, 800)
	_, err := svc.Verification.Verify(ctx, payment.ID, testAdmin)
	require.NoError(t, err)

	_, err = svc.Delivery.Dispatch(ctx, booking.ID, "", testAdmin)
	requireKind(t, err, ticketing.KindInvalidInput)

	_, err = svc.Delivery.Dispatch(ctx, booking.ID, "TRK", "")
	requireKind(t, err, ticketing.KindUnauthorized)

	_, err = svc.Delivery.Dispatch(ctx, booking.ID, "TRK", testAdmin)
	requireKind(t, err, ticketing.KindNotFound)
	assert.Equal(t, ticketing.CodeDeliveryNotFound, ticketing.CodeOf(err))
}

func TestVerifyPassRejectsTamperedToken(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	ctx := context.Background()
	booking, payment := createPendingPayment(t, svc, 800)
	_, err := svc.Delivery.SaveDeliveryDetails(ctx, deliveryInput(booking.ID))
	require.NoError(t, err)
	_, err = svc.Verification.Verify(ctx, payment.ID, testAdmin)
	require.NoError(t, err)
	result, err := svc.Delivery.Dispatch(ctx, booking.ID, "TRK-9", testAdmin)
	require.NoError(t, err)

	tampered := result.PassToken[:len(result.PassToken)-1] + "0"
	if tampered == result.PassToken {
		tampered = result.PassToken[:len(result.PassToken)-1] + "1"
	}
	_, err = svc.Delivery.VerifyPass(ctx, tampered)
	requireKind(t, err, ticketing.KindInvalidInput)

	_, err = svc.Delivery.VerifyPass(ctx, "not-a-pass")
	requireKind(t, err, ticketing.KindInvalidInput)
}
