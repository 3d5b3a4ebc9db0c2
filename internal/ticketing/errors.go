package ticketing

import (
	"errors"
	"fmt"
)

// Kind classifies domain failures. Errors without a Kind are infrastructure failures.
type Kind string

const (
	KindNotFound               Kind = "not_found"
	KindConflict               Kind = "conflict"
	KindInvalidInput           Kind = "invalid_input"
	KindInvalidStateTransition Kind = "invalid_state_transition"
	KindAmountMismatch         Kind = "amount_mismatch"
	KindExhaustedUses          Kind = "exhausted_uses"
	KindExpired                Kind = "expired"
	KindUnauthorized           Kind = "unauthorized"
	KindForbidden              Kind = "forbidden"
)

const (
	CodeBookingNotFound      = "BOOKING_NOT_FOUND"
	CodePaymentNotFound      = "PAYMENT_NOT_FOUND"
	CodeDiscountNotFound     = "DISCOUNT_NOT_FOUND"
	CodeSettingsNotFound     = "UPI_SETTINGS_NOT_FOUND"
	CodeDeliveryNotFound     = "DELIVERY_NOT_FOUND"
	CodePaymentExists        = "PAYMENT_EXISTS"
	CodeDiscountExists       = "DISCOUNT_EXISTS"
	CodeSettingsConflict     = "UPI_SETTINGS_CONFLICT"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeInvalidPaymentStatus = "INVALID_PAYMENT_STATUS"
	CodeInvalidBookingStatus = "INVALID_BOOKING_STATUS"
	CodeAlreadyDispatched    = "ALREADY_DISPATCHED"
	CodeAmountMismatch       = "AMOUNT_MISMATCH"
	CodeDiscountExhausted    = "DISCOUNT_EXHAUSTED"
	CodeDiscountExpired      = "DISCOUNT_EXPIRED"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
)

// Error is a classified domain error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a domain error with a formatted message.
func NewError(kind Kind, code string, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a cause to a domain error.
func WrapError(kind Kind, code string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or "" for infrastructure failures.
func KindOf(err error) Kind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return ""
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// CodeOf returns the machine code of err, if any.
func CodeOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

func InvalidInput(format string, args ...any) *Error {
	return NewError(KindInvalidInput, CodeInvalidInput, format, args...)
}
