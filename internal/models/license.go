package models

import (
	"time"

	"github.com/google/uuid"
)

// License types with dedicated expiration rules. Any other type string is
// accepted and expires after one year.
const (
	LicenseYearly   = "yearly"
	LicenseThreeYrs = "3years"
	LicenseFloating = "floating"
)

// License is one seat of an issued batch.
type License struct {
	BaseModel
	CustomerID     uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer       *Customer `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	LicenseHash    string    `gorm:"not null;uniqueIndex" json:"license_hash"`
	SeatNumber     int       `gorm:"not null" json:"seat_number"`
	IssueDate      time.Time `gorm:"type:date;not null" json:"issue_date"`
	ExpirationDate time.Time `gorm:"type:date;not null;index" json:"expiration_date"`
	LicenseType    string    `gorm:"not null" json:"license_type"`
	Username       string    `json:"username"`
	PCUUID         string    `gorm:"column:pc_uuid" json:"pc_uuid"`
	IsFree         bool      `gorm:"not null" json:"is_free"`
	LastActivity   time.Time `json:"last_activity"`
}
