package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAdminLoginDisabled = errors.New("admin login disabled")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AdminCredentials holds the configured admin login.
type AdminCredentials struct {
	Username     string
	PasswordHash string
}

// Check compares a login attempt against the configured bcrypt hash.
func (c AdminCredentials) Check(username, password string) error {
	if c.Username == "" || c.PasswordHash == "" {
		return ErrAdminLoginDisabled
	}
	username = strings.TrimSpace(username)
	if subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) != 1 {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword produces a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
