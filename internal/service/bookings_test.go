package service

import (
	"context"
	"testing"

	"eventia/backend/internal/models"
	"eventia/backend/internal/ticketing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBookingWithDiscountCode(t *testing.T) {
	svc, store := newTestServices(t, Dependencies{})
	ctx := context.Background()
	d := createDiscount(t, svc, models.DiscountInput{Code: "SAVE200", Amount: money(200), MaxUses: 5})

	booking, err := svc.Bookings.CreateBooking(ctx, CreateBookingInput{
		EventID:      "event-1",
		Seats:        []models.Seat{seat("A", 1000)},
		DiscountCode: "save200",
	})
	require.NoError(t, err)

	assert.Equal(t, models.BookingStatusPending, booking.Status)
	assert.True(t, booking.TotalAmount.Equal(money(1000)))
	assert.True(t, booking.DiscountApplied.Equal(money(200)))
	assert.True(t, booking.FinalAmount.Equal(money(800)))
	require.NotNil(t, booking.DiscountID)
	assert.Equal(t, d.ID, *booking.DiscountID)

	stored, err := store.GetDiscount(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsesCount)
}

func TestCreateBookingAmountInvariant(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	ctx := context.Background()

	tests := []struct {
		name     string
		seats    []models.Seat
		discount int64
		final    int64
	}{
		{name: "no discount", seats: []models.Seat{seat("A", 500), seat("B", 250)}, final: 750},
		{name: "partial discount", seats: []models.Seat{seat("A", 500), seat("B", 250)}, discount: 100, final: 650},
		{name: "discount above total", seats: []models.Seat{seat("A", 300)}, discount: 1000, final: 0},
		{name: "free seats", seats: []models.Seat{seat("Free", 0)}, discount: 50, final: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking, err := svc.Bookings.CreateBooking(ctx, CreateBookingInput{
				EventID:        "event-1",
				Seats:          tt.seats,
				DiscountAmount: money(tt.discount),
			})
			require.NoError(t, err)
			assert.True(t, booking.FinalAmount.Equal(money(tt.final)), "final %s", booking.FinalAmount)
			assert.True(t, booking.FinalAmount.Equal(booking.TotalAmount.Sub(booking.DiscountApplied)))
			assert.False(t, booking.FinalAmount.IsNegative())
		})
	}
}

func TestCreateBookingRejectsInvalidInput(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	ctx := context.Background()

	_, err := svc.Bookings.CreateBooking(ctx, CreateBookingInput{EventID: "event-1"})
	requireKind(t, err, ticketing.KindInvalidInput)

	_, err = svc.Bookings.CreateBooking(ctx, CreateBookingInput{EventID: "event-1", Seats: []models.Seat{seat("A", -5)}})
	requireKind(t, err, ticketing.KindInvalidInput)

	_, err = svc.Bookings.CreateBooking(ctx, CreateBookingInput{Seats: []models.Seat{seat("A", 5)}})
	requireKind(t, err, ticketing.KindInvalidInput)

	_, err = svc.Bookings.CreateBooking(ctx, CreateBookingInput{EventID: "event-1", Seats: []models.Seat{seat("A", 5)}, DiscountCode: "NOPE"})
	requireKind(t, err, ticketing.KindNotFound)
}

func TestCreateBookingRejectsUnstorableAmounts(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	ctx := context.Background()

	fraction := models.Seat{Category: "A", Price: decimal.RequireFromString("0.004")}
	_, err := svc.Bookings.CreateBooking(ctx, CreateBookingInput{
		EventID:        "event-1",
		Seats:          []models.Seat{fraction, fraction},
		DiscountAmount: decimal.RequireFromString("0.004"),
	})
	requireKind(t, err, ticketing.KindInvalidInput)

	huge := models.Seat{Category: "A", Price: decimal.RequireFromString("100000000000")}
	_, err = svc.Bookings.CreateBooking(ctx, CreateBookingInput{EventID: "event-1", Seats: []models.Seat{huge}})
	requireKind(t, err, ticketing.KindInvalidInput)
}

func TestCreateBookingWithExhaustedCodeStoresNothing(t *testing.T) {
	svc, store := newTestServices(t, Dependencies{})
	ctx := context.Background()
	d := createDiscount(t, svc, models.DiscountInput{Code: "ONCE", Amount: money(100), MaxUses: 1})
	user := "user-1"

	_, err := svc.Bookings.CreateBooking(ctx, CreateBookingInput{EventID: "event-1", UserID: &user, Seats: []models.Seat{seat("A", 500)}, DiscountCode: "ONCE"})
	require.NoError(t, err)

	_, err = svc.Bookings.CreateBooking(ctx, CreateBookingInput{EventID: "event-1", UserID: &user, Seats: []models.Seat{seat("A", 500)}, DiscountCode: "ONCE"})
	requireKind(t, err, ticketing.KindExhaustedUses)

	bookings, err := svc.Bookings.ListByUser(ctx, user)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
	stored, err := store.GetDiscount(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsesCount)
}

func TestCreateBookingAutoApply(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	ctx := context.Background()
	event := "event-1"
	createDiscount(t, svc, models.DiscountInput{Code: "EARLY", Amount: money(100), MaxUses: 10, AutoApply: true, EventID: &event, Priority: 10})
	best := createDiscount(t, svc, models.DiscountInput{Code: "VIP", Amount: money(300), MaxUses: 1, AutoApply: true, EventID: &event, Priority: 20})

	first, err := svc.Bookings.CreateBooking(ctx, CreateBookingInput{EventID: event, Seats: []models.Seat{seat("A", 1000)}, AutoApply: true})
	require.NoError(t, err)
	require.NotNil(t, first.DiscountID)
	assert.Equal(t, best.ID, *first.DiscountID)
	assert.True(t, first.FinalAmount.Equal(money(700)))

	second, err := svc.Bookings.CreateBooking(ctx, CreateBookingInput{EventID: event, Seats: []models.Seat{seat("A", 1000)}, AutoApply: true})
	require.NoError(t, err)
	assert.True(t, second.FinalAmount.Equal(money(900)))
}

func TestCreateBookingFallsBackToPlatformDiscount(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	ctx := context.Background()
	_, err := svc.UpiSettings.Create(ctx, models.UpiSettingsInput{UpiVPA: "eventia@upi", PayeeName: "Eventia", DiscountAmount: money(50)})
	require.NoError(t, err)

	booking, err := svc.Bookings.CreateBooking(ctx, CreateBookingInput{EventID: "event-1", Seats: []models.Seat{seat("A", 1000)}})
	require.NoError(t, err)
	assert.True(t, booking.DiscountApplied.Equal(money(50)))
	assert.Nil(t, booking.DiscountID)

	createDiscount(t, svc, models.DiscountInput{Code: "SAVE200", Amount: money(200), MaxUses: 5})
	coded, err := svc.Bookings.CreateBooking(ctx, CreateBookingInput{EventID: "event-1", Seats: []models.Seat{seat("A", 1000)}, DiscountCode: "SAVE200"})
	require.NoError(t, err)
	assert.True(t, coded.DiscountApplied.Equal(money(200)))
}

func TestGetBookingByID(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	ctx := context.Background()
	booking := createBooking(t, svc, 400)

	got, err := svc.Bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)
	assert.Len(t, got.Seats, 1)

	_, err = svc.Bookings.GetByID(ctx, "missing")
	requireKind(t, err, ticketing.KindNotFound)
	assert.Equal(t, ticketing.CodeBookingNotFound, ticketing.CodeOf(err))
}
