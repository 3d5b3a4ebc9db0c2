package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"eventia/backend/internal/models"
	"eventia/backend/internal/ticketing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateActiveSettingsDeactivatesOthers(t *testing.T) {
	svc, store := newTestServices(t, Dependencies{})
	ctx := context.Background()

	first, err := svc.UpiSettings.Create(ctx, models.UpiSettingsInput{UpiVPA: "first@upi", PayeeName: "First"})
	require.NoError(t, err)
	second, err := svc.UpiSettings.Create(ctx, models.UpiSettingsInput{UpiVPA: "second@upi", PayeeName: "Second"})
	require.NoError(t, err)

	active, err := store.ListActiveUpiSettings(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	on := true
	reactivated, err := svc.UpiSettings.Update(ctx, first.ID, models.UpiSettingsPatch{IsActive: &on})
	require.NoError(t, err)
	assert.True(t, reactivated.IsActive)

	got, err := svc.UpiSettings.GetActive(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)

	stored, err := store.GetUpiSettings(ctx, second.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestGetActivePicksNewestWhenSeveralActive(t *testing.T) {
	svc, store := newTestServices(t, Dependencies{})
	ctx := context.Background()

	none, err := svc.UpiSettings.GetActive(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	store.ForceUpiSettings(models.UpiSettings{ID: "older", UpiVPA: "older@upi", IsActive: true, CreatedAt: testNow, UpdatedAt: testNow})
	store.ForceUpiSettings(models.UpiSettings{ID: "newer", UpiVPA: "newer@upi", IsActive: true, CreatedAt: testNow, UpdatedAt: testNow.Add(time24h)})

	got, err := svc.UpiSettings.GetActive(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "newer", got.ID)
}

func TestUpiSettingsValidation(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	ctx := context.Background()

	for _, vpa := range []string{"", "no-at-sign", "@bank", "name@", "a@b@c"} {
		_, err := svc.UpiSettings.Create(ctx, models.UpiSettingsInput{UpiVPA: vpa})
		requireKind(t, err, ticketing.KindInvalidInput)
	}

	_, err := svc.UpiSettings.Create(ctx, models.UpiSettingsInput{UpiVPA: "ok@upi", DiscountAmount: money(-1)})
	requireKind(t, err, ticketing.KindInvalidInput)

	vpa := "next@upi"
	_, err = svc.UpiSettings.Update(ctx, "missing", models.UpiSettingsPatch{UpiVPA: &vpa})
	requireKind(t, err, ticketing.KindNotFound)
}

func TestGetActiveUsesCache(t *testing.T) {
	cache := &mockSettingsCache{}
	svc, _ := newTestServices(t, Dependencies{Cache: cache})
	ctx := context.Background()

	cache.On("Invalidate", mock.Anything).Return(nil).Once()
	created, err := svc.UpiSettings.Create(ctx, models.UpiSettingsInput{UpiVPA: "cached@upi"})
	require.NoError(t, err)

	cache.On("Get", mock.Anything).Return(models.UpiSettings{}, false, nil).Once()
	cache.On("Generation", mock.Anything).Return(int64(4), nil).Once()
	cache.On("Set", mock.Anything, mock.MatchedBy(func(s models.UpiSettings) bool { return s.ID == created.ID }), int64(4)).Return(nil).Once()
	got, err := svc.UpiSettings.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	cache.On("Get", mock.Anything).Return(models.UpiSettings{ID: "from-cache", UpiVPA: "cache@upi", IsActive: true}, true, nil).Once()
	got, err = svc.UpiSettings.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "from-cache", got.ID)

	cache.On("Get", mock.Anything).Return(models.UpiSettings{}, false, errors.New("redis down")).Once()
	cache.On("Generation", mock.Anything).Return(int64(0), errors.New("redis down")).Once()
	got, err = svc.UpiSettings.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	cache.AssertExpectations(t)
}

func TestPaymentInstructions(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	ctx := context.Background()
	booking := createBooking(t, svc, 800)

	_, err := svc.UpiSettings.PaymentInstructions(ctx, booking)
	requireKind(t, err, ticketing.KindNotFound)

	_, err = svc.UpiSettings.Create(ctx, models.UpiSettingsInput{UpiVPA: "eventia@upi", PayeeName: "Eventia Live"})
	require.NoError(t, err)

	got, err := svc.UpiSettings.PaymentInstructions(ctx, booking)
	require.NoError(t, err)
	assert.Equal(t, "eventia@upi", got.UpiVPA)
	assert.True(t, got.Amount.Equal(money(800)))
	assert.Equal(t, "Eventia Live", got.PayeeName)
	assert.True(t, strings.HasPrefix(got.Reference, "BK"))
	assert.Len(t, got.Reference, 14)
}
