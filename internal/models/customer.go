package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/example/licenseportal/internal/utils"
)

// Customer types.
const (
	CustomerIndividual = "individual"
	CustomerCompany    = "company"
)

// Customer is the billing entity that owns users and licenses.
type Customer struct {
	BaseModel
	Email            string    `gorm:"not null;index" json:"email"`
	FirstName        string    `gorm:"not null" json:"first_name"`
	LastName         string    `gorm:"not null" json:"last_name"`
	Phone            *string   `json:"phone,omitempty"`
	CustomerType     string    `gorm:"not null" json:"customer_type"`
	CompanyName      *string   `json:"company_name,omitempty"`
	RegistrationDate time.Time `gorm:"not null" json:"registration_date"`
}

// BeforeSave keeps stored emails lowercase.
func (c *Customer) BeforeSave(tx *gorm.DB) error {
	c.Email = utils.NormalizeEmail(c.Email)
	return nil
}
