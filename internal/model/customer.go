package model

import (
	"time"

	"github.com/google/uuid"
)

// CustomerType enum constants
const (
	CustomerTypeOwner      = "OWNER"
	CustomerTypeCommercial = "COMMERCIAL"
	CustomerTypeConsultant = "CONSULTANT"
)

// CustomerStatus enum constants
const (
	CustomerStatusActive   = "active"
	CustomerStatusInactive = "inactive"
)

// Customer represents an owner, commercial contractor, or consultant.
// Customers are never hard-deleted: an approved delete request stamps
// deleted_at and clears the delete_requested flag instead.
type Customer struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerType string    `gorm:"type:varchar(20);not null;index" json:"customer_type"` // OWNER, COMMERCIAL, CONSULTANT
	CustomerCode string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"customer_code"`

	FullNameArabic  string `gorm:"type:varchar(255);not null" json:"full_name_arabic"`
	FullNameEnglish string `gorm:"type:varchar(255);not null" json:"full_name_english"`

	ContactInfo ContactInfo `gorm:"embedded" json:"contact_info"`

	CountryID  *uuid.UUID `gorm:"type:uuid" json:"country_id"`
	Country    *Country   `gorm:"foreignKey:CountryID" json:"country,omitempty"`
	CityID     *uuid.UUID `gorm:"type:uuid" json:"city_id"`
	City       *City      `gorm:"foreignKey:CityID" json:"city,omitempty"`
	CurrencyID *uuid.UUID `gorm:"type:uuid" json:"currency_id"`
	Currency   *Currency  `gorm:"foreignKey:CurrencyID" json:"currency,omitempty"`

	PreferredLanguage string `gorm:"type:varchar(10);default:'en'" json:"preferred_language"` // en, ar
	Status            string `gorm:"type:varchar(20);default:'active'" json:"status"`
	Notes             string `gorm:"type:text" json:"notes"`

	DeleteRequested bool       `gorm:"default:false" json:"delete_requested"`
	DeletedAt       *time.Time `gorm:"index" json:"deleted_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CustomerCodePrefix maps a customer type to its code prefix
func CustomerCodePrefix(customerType string) string {
	switch customerType {
	case CustomerTypeOwner:
		return "OWN"
	case CustomerTypeCommercial:
		return "COM"
	case CustomerTypeConsultant:
		return "CON"
	default:
		return "CUS"
	}
}

// IsDeleted reports whether the customer has been soft-deleted
func (c *Customer) IsDeleted() bool {
	return c.DeletedAt != nil
}
