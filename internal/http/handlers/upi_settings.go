package handlers

import (
	"net/http"

	"eventia/backend/internal/models"
	"eventia/backend/internal/ticketing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type createUpiSettingsRequest struct {
	UpiVPA         string          `json:"upiVpa" validate:"required,max=100"`
	PayeeName      string          `json:"payeeName" validate:"omitempty,max=100"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	IsActive       *bool           `json:"isActive"`
}

type updateUpiSettingsRequest struct {
	UpiVPA         *string          `json:"upiVpa" validate:"omitempty,max=100"`
	PayeeName      *string          `json:"payeeName" validate:"omitempty,max=100"`
	DiscountAmount *decimal.Decimal `json:"discountAmount"`
	IsActive       *bool            `json:"isActive"`
}

func (h *Handler) GetUpiSettings(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	settings, err := h.svc.UpiSettings.GetActive(ctx)
	if err != nil {
		writeServiceError(w, logger, "get_upi_settings", err)
		return
	}
	if settings == nil {
		writeCodedError(w, http.StatusNotFound, ticketing.CodeSettingsNotFound, "no active upi settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *Handler) CreateUpiSettings(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	var req createUpiSettingsRequest
	if !h.decodeAndValidate(w, r, logger, "create_upi_settings", &req) {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	settings, err := h.svc.UpiSettings.Create(ctx, models.UpiSettingsInput{
		UpiVPA:         req.UpiVPA,
		PayeeName:      req.PayeeName,
		DiscountAmount: req.DiscountAmount,
		IsActive:       req.IsActive,
	})
	if err != nil {
		writeServiceError(w, logger, "create_upi_settings", err)
		return
	}
	logger.Info("action", "action", "create_upi_settings", "status", "ok", "settings_id", settings.ID, "active", settings.IsActive)
	writeJSON(w, http.StatusCreated, settings)
}

func (h *Handler) UpdateUpiSettings(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	var req updateUpiSettingsRequest
	if !h.decodeAndValidate(w, r, logger, "update_upi_settings", &req) {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	settings, err := h.svc.UpiSettings.Update(ctx, chi.URLParam(r, "id"), models.UpiSettingsPatch{
		UpiVPA:         req.UpiVPA,
		PayeeName:      req.PayeeName,
		DiscountAmount: req.DiscountAmount,
		IsActive:       req.IsActive,
	})
	if err != nil {
		writeServiceError(w, logger, "update_upi_settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
