package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Staff password bounds.  bcrypt ignores everything past 72 bytes.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

// ErrPasswordLength is returned by HashPassword for passwords outside
// MinPasswordLength..MaxPasswordLength bytes.
var ErrPasswordLength = errors.New("password must be 6 to 72 bytes")

// HashPassword checks the length of a staff password and returns its bcrypt
// hash at cost.
func HashPassword(plain string, cost int) (string, error) {
	if len(plain) < MinPasswordLength || len(plain) > MaxPasswordLength {
		return "", ErrPasswordLength
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored hash.  A malformed
// hash never matches.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
