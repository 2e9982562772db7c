package services

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"
)

const verificationCodeDigits = 4

// GenerateCode returns a fresh 4-digit numeric verification code.
func GenerateCode() (string, error) {
	max := big.NewInt(10000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", verificationCodeDigits, n.Int64()), nil
}

// ValidateCode accepts submitted only when it equals stored and now is
// strictly before expiresAt.
func ValidateCode(submitted, stored string, expiresAt, now time.Time) bool {
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) != 1 {
		return false
	}
	return now.Before(expiresAt)
}
