package ticketing

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidPassToken = errors.New("invalid ticket pass")
	ErrInvalidPassSign  = errors.New("invalid ticket pass signature")
)

// TicketPass is the signed entry credential issued when a booking's tickets are dispatched.
type TicketPass struct {
	BookingID      string `json:"bookingId"`
	EventID        string `json:"eventId"`
	SeatCount      int    `json:"seatCount"`
	TrackingNumber string `json:"trackingNumber"`
	Nonce          string `json:"nonce"`
	IssuedAt       int64  `json:"issuedAt"`
}

// NewTicketPass builds a pass with a fresh nonce.
func NewTicketPass(bookingID, eventID string, seatCount int, trackingNumber string, issuedAt time.Time) (TicketPass, error) {
	nonce, err := newNonce(16)
	if err != nil {
		return TicketPass{}, err
	}
	return TicketPass{
		BookingID:      bookingID,
		EventID:        eventID,
		SeatCount:      seatCount,
		TrackingNumber: trackingNumber,
		Nonce:          nonce,
		IssuedAt:       issuedAt.UTC().Unix(),
	}, nil
}

// SignTicketPass encodes the pass as base64(json) + "." + hex(hmac).
func SignTicketPass(secret string, pass TicketPass) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", fmt.Errorf("secret is required")
	}
	encoded, err := json.Marshal(pass)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(encoded) + "." + signRaw(secret, encoded), nil
}

// VerifyTicketPass checks the signature and required fields of a pass token.
func VerifyTicketPass(secret string, token string) (TicketPass, error) {
	var pass TicketPass
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return pass, ErrInvalidPassToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return pass, ErrInvalidPassToken
	}
	if subtle.ConstantTimeCompare([]byte(signRaw(secret, raw)), []byte(strings.ToLower(parts[1]))) != 1 {
		return pass, ErrInvalidPassSign
	}
	if err := json.Unmarshal(raw, &pass); err != nil {
		return pass, ErrInvalidPassToken
	}
	if pass.BookingID == "" || pass.EventID == "" || pass.SeatCount <= 0 || pass.IssuedAt <= 0 {
		return pass, ErrInvalidPassToken
	}
	return pass, nil
}

func newNonce(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func signRaw(secret string, raw []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(raw)
	return hex.EncodeToString(mac.Sum(nil))
}
