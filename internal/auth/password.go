// ABOUTME: Password hashing and verification with bcrypt
// ABOUTME: Unknown accounts still pay for a comparison so timing does not reveal them

package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooShort is returned by HashPassword for passwords under MinPasswordLength
var ErrPasswordTooShort = errors.New("password too short")

// ErrPasswordTooLong is returned by HashPassword for passwords over MaxPasswordLength
var ErrPasswordTooLong = errors.New("password too long")

const (
	// MinPasswordLength is the shortest password accepted at registration
	MinPasswordLength = 6
	// MaxPasswordLength is bcrypt's input limit, in bytes
	MaxPasswordLength = 72
)

// dummyHash is compared against when no real hash exists
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. An empty hash never
// matches but still costs one comparison.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
