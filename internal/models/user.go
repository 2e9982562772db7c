package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/licenseportal/internal/utils"
)

// Roles a User may hold.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
	RoleOwner = "owner"
)

// User is a login-capable account bound to one Customer.
type User struct {
	BaseModel
	CustomerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer     *Customer `gorm:"constraint:OnDelete:RESTRICT" json:"customer,omitempty"`
	Email        string    `gorm:"not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FirstName    string    `gorm:"not null" json:"first_name"`
	LastName     string    `gorm:"not null" json:"last_name"`
	Role         string    `gorm:"not null" json:"role"`
	IsVerified   bool      `gorm:"not null;default:false" json:"is_verified"`
	IsActive     bool      `gorm:"not null" json:"is_active"`

	VerificationCode        *string    `json:"-"`
	VerificationCodeExpires *time.Time `json:"-"`
	VerificationAttempts    int        `gorm:"not null;default:0" json:"-"`
	LastVerificationSent    *time.Time `json:"-"`
}

// BeforeSave keeps stored emails lowercase.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = utils.NormalizeEmail(u.Email)
	return nil
}
