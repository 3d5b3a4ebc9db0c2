package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eventia/backend/internal/models"
	"eventia/backend/internal/repository"
	"eventia/backend/internal/ticketing"

	"github.com/shopspring/decimal"
)

// UpiSettingsProvider serves the single active payee configuration.
type UpiSettingsProvider struct {
	baseDeps
	store repository.Store
	cache SettingsCache
}

// GetActive returns the active settings, or nil when none is configured.
// When several rows are active the most recently updated one wins and the
// inconsistency is logged.
func (p *UpiSettingsProvider) GetActive(ctx context.Context) (*models.UpiSettings, error) {
	writeBack := false
	var generation int64
	if p.cache != nil {
		cached, ok, err := p.cache.Get(ctx)
		if err != nil {
			p.logger.Warn("upi_settings_cache_get", "error", err)
		} else if ok {
			return &cached, nil
		}
		generation, err = p.cache.Generation(ctx)
		if err != nil {
			p.logger.Warn("upi_settings_cache_generation", "error", err)
		} else {
			writeBack = true
		}
	}

	rows, err := p.store.ListActiveUpiSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active upi settings: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if len(rows) > 1 {
		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		p.logger.Error("upi_settings_multiple_active", "count", len(rows), "ids", ids, "selected_id", rows[0].ID)
	}
	selected := rows[0]
	if writeBack {
		if err := p.cache.Set(ctx, selected, generation); err != nil {
			p.logger.Warn("upi_settings_cache_set", "error", err)
		}
	}
	return &selected, nil
}

// Create stores new settings. An active row deactivates every other row in the same transaction.
func (p *UpiSettingsProvider) Create(ctx context.Context, in models.UpiSettingsInput) (models.UpiSettings, error) {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	settings := models.UpiSettings{
		ID:             p.newID(),
		UpiVPA:         strings.TrimSpace(in.UpiVPA),
		PayeeName:      strings.TrimSpace(in.PayeeName),
		DiscountAmount: in.DiscountAmount,
		IsActive:       active,
		CreatedAt:      p.now(),
	}
	if err := validateUpiSettings(settings); err != nil {
		return models.UpiSettings{}, err
	}

	var created models.UpiSettings
	err := p.store.WithTx(ctx, func(tx repository.Store) error {
		if settings.IsActive {
			if err := tx.DeactivateOtherUpiSettings(ctx, settings.ID); err != nil {
				return fmt.Errorf("deactivate upi settings: %w", err)
			}
		}
		var err error
		created, err = tx.InsertUpiSettings(ctx, settings)
		if errors.Is(err, repository.ErrDuplicate) {
			return settingsConflict(err)
		}
		if err != nil {
			return fmt.Errorf("insert upi settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.UpiSettings{}, err
	}
	p.invalidate(ctx)
	p.logger.Info("upi_settings_created", "settings_id", created.ID, "active", created.IsActive)
	return created, nil
}

// Update patches settings; activating a row deactivates the others atomically.
func (p *UpiSettingsProvider) Update(ctx context.Context, id string, patch models.UpiSettingsPatch) (models.UpiSettings, error) {
	id, err := requireID(id, "settingsId")
	if err != nil {
		return models.UpiSettings{}, err
	}
	var saved models.UpiSettings
	err = p.store.WithTx(ctx, func(tx repository.Store) error {
		current, err := tx.GetUpiSettings(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return ticketing.WrapError(ticketing.KindNotFound, ticketing.CodeSettingsNotFound, err, "upi settings %s not found", id)
		}
		if err != nil {
			return fmt.Errorf("load upi settings %s: %w", id, err)
		}
		next := current
		if patch.UpiVPA != nil {
			next.UpiVPA = strings.TrimSpace(*patch.UpiVPA)
		}
		if patch.PayeeName != nil {
			next.PayeeName = strings.TrimSpace(*patch.PayeeName)
		}
		if patch.DiscountAmount != nil {
			next.DiscountAmount = *patch.DiscountAmount
		}
		if patch.IsActive != nil {
			next.IsActive = *patch.IsActive
		}
		if err := validateUpiSettings(next); err != nil {
			return err
		}
		if next.IsActive {
			if err := tx.DeactivateOtherUpiSettings(ctx, id); err != nil {
				return fmt.Errorf("deactivate upi settings: %w", err)
			}
		}
		saved, err = tx.SaveUpiSettings(ctx, next)
		if errors.Is(err, repository.ErrDuplicate) {
			return settingsConflict(err)
		}
		if err != nil {
			return fmt.Errorf("save upi settings %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return models.UpiSettings{}, err
	}
	p.invalidate(ctx)
	p.logger.Info("upi_settings_updated", "settings_id", saved.ID, "active", saved.IsActive)
	return saved, nil
}

// PlatformDiscount returns the discount of the active settings, or zero.
func (p *UpiSettingsProvider) PlatformDiscount(ctx context.Context) (decimal.Decimal, error) {
	settings, err := p.GetActive(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if settings == nil || settings.DiscountAmount.IsNegative() {
		return decimal.Zero, nil
	}
	return settings.DiscountAmount, nil
}

// PaymentInstructions tells the client where to pay for a booking.
func (p *UpiSettingsProvider) PaymentInstructions(ctx context.Context, booking models.Booking) (models.PaymentInstructions, error) {
	settings, err := p.GetActive(ctx)
	if err != nil {
		return models.PaymentInstructions{}, err
	}
	if settings == nil {
		return models.PaymentInstructions{}, ticketing.NewError(ticketing.KindNotFound, ticketing.CodeSettingsNotFound, "no active upi settings")
	}
	return models.PaymentInstructions{
		BookingID: booking.ID,
		UpiVPA:    settings.UpiVPA,
		PayeeName: settings.PayeeName,
		Amount:    booking.FinalAmount,
		Reference: paymentReference(booking.ID),
	}, nil
}

func (p *UpiSettingsProvider) invalidate(ctx context.Context) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Invalidate(ctx); err != nil {
		p.logger.Warn("upi_settings_cache_invalidate", "error", err)
	}
}

func validateUpiSettings(s models.UpiSettings) error {
	if s.UpiVPA == "" {
		return ticketing.InvalidInput("upiVpa is required")
	}
	at := strings.Index(s.UpiVPA, "@")
	if at <= 0 || at == len(s.UpiVPA)-1 || strings.Count(s.UpiVPA, "@") != 1 {
		return ticketing.InvalidInput("upiVpa %q is not a valid UPI address", s.UpiVPA)
	}
	if err := ticketing.CheckMoney("discountAmount", s.DiscountAmount); err != nil {
		return err
	}
	return nil
}

func settingsConflict(err error) error {
	return ticketing.WrapError(ticketing.KindConflict, ticketing.CodeSettingsConflict, err, "another upi settings row is already active")
}

// paymentReference is the short note payers copy into their UPI app.
func paymentReference(bookingID string) string {
	compact := strings.ToUpper(strings.ReplaceAll(bookingID, "-", ""))
	if len(compact) > 12 {
		compact = compact[:12]
	}
	return "BK" + compact
}
