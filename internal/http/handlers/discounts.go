package handlers

import (
	"net/http"
	"strconv"
	"time"

	"eventia/backend/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type validateDiscountRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

type autoApplyResponse struct {
	Discount *models.Discount `json:"discount"`
}

type createDiscountRequest struct {
	Code        string          `json:"code" validate:"required,max=64"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"omitempty,max=500"`
	MaxUses     int             `json:"maxUses" validate:"required,min=1"`
	ExpiryDate  *time.Time      `json:"expiryDate"`
	IsActive    *bool           `json:"isActive"`
	AutoApply   bool            `json:"autoApply"`
	EventID     *string         `json:"eventId" validate:"omitempty,max=64"`
	Priority    int             `json:"priority"`
}

type patchDiscountRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	MaxUses     *int             `json:"maxUses" validate:"omitempty,min=1"`
	ExpiryDate  *time.Time       `json:"expiryDate"`
	ClearExpiry bool             `json:"clearExpiry"`
	IsActive    *bool            `json:"isActive"`
	AutoApply   *bool            `json:"autoApply"`
	EventID     *string          `json:"eventId" validate:"omitempty,max=64"`
	Priority    *int             `json:"priority"`
}

type discountsResponse struct {
	Items []models.Discount `json:"items"`
}

func (h *Handler) ValidateDiscount(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	var req validateDiscountRequest
	if !h.decodeAndValidate(w, r, logger, "validate_discount", &req) {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	result, err := h.svc.Discounts.ValidateCode(ctx, req.Code)
	if err != nil {
		writeServiceError(w, logger, "validate_discount", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) AutoApplyDiscount(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	discount, err := h.svc.Discounts.ResolveAutoApply(ctx, r.URL.Query().Get("eventId"))
	if err != nil {
		writeServiceError(w, logger, "auto_apply_discount", err)
		return
	}
	writeJSON(w, http.StatusOK, autoApplyResponse{Discount: discount})
}

func (h *Handler) ListDiscounts(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid active flag")
			return
		}
		activeOnly = parsed
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	items, err := h.svc.Discounts.List(ctx, activeOnly)
	if err != nil {
		writeServiceError(w, logger, "list_discounts", err)
		return
	}
	writeJSON(w, http.StatusOK, discountsResponse{Items: items})
}

func (h *Handler) CreateDiscount(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	var req createDiscountRequest
	if !h.decodeAndValidate(w, r, logger, "create_discount", &req) {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	discount, err := h.svc.Discounts.Create(ctx, models.DiscountInput{
		Code:        req.Code,
		Amount:      req.Amount,
		Description: req.Description,
		MaxUses:     req.MaxUses,
		ExpiryDate:  req.ExpiryDate,
		IsActive:    req.IsActive,
		AutoApply:   req.AutoApply,
		EventID:     req.EventID,
		Priority:    req.Priority,
	})
	if err != nil {
		writeServiceError(w, logger, "create_discount", err)
		return
	}
	logger.Info("action", "action", "create_discount", "status", "ok", "discount_id", discount.ID, "code", discount.Code)
	writeJSON(w, http.StatusCreated, discount)
}

func (h *Handler) PatchDiscount(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	var req patchDiscountRequest
	if !h.decodeAndValidate(w, r, logger, "patch_discount", &req) {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	discount, err := h.svc.Discounts.Update(ctx, chi.URLParam(r, "id"), models.DiscountPatch{
		Amount:      req.Amount,
		Description: req.Description,
		MaxUses:     req.MaxUses,
		ExpiryDate:  req.ExpiryDate,
		ClearExpiry: req.ClearExpiry,
		IsActive:    req.IsActive,
		AutoApply:   req.AutoApply,
		EventID:     req.EventID,
		Priority:    req.Priority,
	})
	if err != nil {
		writeServiceError(w, logger, "patch_discount", err)
		return
	}
	writeJSON(w, http.StatusOK, discount)
}

// DeleteDiscount deactivates the discount; rows are kept for booking history.
func (h *Handler) DeleteDiscount(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	discount, err := h.svc.Discounts.Deactivate(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, logger, "delete_discount", err)
		return
	}
	writeJSON(w, http.StatusOK, discount)
}
