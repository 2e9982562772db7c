package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/licenseportal/internal/utils"
)

// PasswordHasher is the one-way password codec.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) bool
}

// TokenSigner issues and checks session tokens.
type TokenSigner interface {
	Sign(claims utils.SessionClaims) (string, error)
	Verify(token string) (utils.SessionClaims, error)
}

// Notifier delivers verification codes to an email address.
type Notifier interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}

// AdminNotifier tells operators about issued license batches.
type AdminNotifier interface {
	NotifyLicensesIssued(ctx context.Context, batch LicenseBatchNotification) error
}

// Identity is the minimal projection of an authenticated user attached to a request.
type Identity struct {
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	CustomerID uuid.UUID `json:"customer_id"`
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
