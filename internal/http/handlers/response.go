package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"eventia/backend/internal/ticketing"

	"github.com/go-playground/validator/v10"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeJSON writes j s o n.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes error.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeCodedError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// statusForKind maps a domain error kind to its HTTP status.
func statusForKind(kind ticketing.Kind) int {
	switch kind {
	case ticketing.KindNotFound:
		return http.StatusNotFound
	case ticketing.KindConflict, ticketing.KindInvalidStateTransition:
		return http.StatusConflict
	case ticketing.KindInvalidInput:
		return http.StatusBadRequest
	case ticketing.KindAmountMismatch, ticketing.KindExhaustedUses, ticketing.KindExpired:
		return http.StatusUnprocessableEntity
	case ticketing.KindUnauthorized:
		return http.StatusUnauthorized
	case ticketing.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError reports err and logs it under action. Infrastructure
// failures are hidden behind a generic message.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, action string, err error) {
	var domainErr *ticketing.Error
	if !errors.As(err, &domainErr) {
		logger.Error("action", "action", action, "status", "internal_error", "error", err)
		writeCodedError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	logger.Warn("action", "action", action, "status", string(domainErr.Kind), "code", domainErr.Code, "error", domainErr.Message)
	writeCodedError(w, statusForKind(domainErr.Kind), domainErr.Code, domainErr.Message)
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, action string, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warn("action", "action", action, "status", "invalid_json")
		writeCodedError(w, http.StatusBadRequest, ticketing.CodeInvalidInput, "invalid json")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		logger.Warn("action", "action", action, "status", "invalid_payload", "error", err)
		writeCodedError(w, http.StatusBadRequest, ticketing.CodeInvalidInput, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid payload"
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, lowerFirst(fe.Field())+" "+describeTag(fe))
	}
	return strings.Join(parts, "; ")
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	case "numeric":
		return "must be numeric"
	default:
		return "is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
