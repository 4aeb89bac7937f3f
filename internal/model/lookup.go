package model

import (
	"time"

	"github.com/google/uuid"
)

// Country is a reference table for customer/supplier addresses
type Country struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// City belongs to a Country
type City struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null;index" json:"name"`
	CountryID uuid.UUID `gorm:"type:uuid;not null;index" json:"country_id"`
	Country   *Country  `gorm:"foreignKey:CountryID" json:"country,omitempty"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Currency is a reference table used by customer billing preferences
type Currency struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Bank is a reference table for bank accounts
type Bank struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name       string     `gorm:"type:varchar(150);uniqueIndex;not null" json:"name"`
	NameArabic string     `gorm:"type:varchar(150)" json:"name_arabic"`
	SwiftCode  string     `gorm:"type:varchar(20)" json:"swift_code"`
	CountryID  *uuid.UUID `gorm:"type:uuid" json:"country_id"`
	Country    *Country   `gorm:"foreignKey:CountryID" json:"country,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// BankAccount links a bank to an account holder, optionally tied to a customer
type BankAccount struct {
	ID                uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BankID            uuid.UUID  `gorm:"type:uuid;not null;index" json:"bank_id"`
	Bank              *Bank      `gorm:"foreignKey:BankID" json:"bank,omitempty"`
	AccountHolderName string     `gorm:"type:varchar(255);not null" json:"account_holder_name"`
	AccountNumber     string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"account_number"`
	IBANNumber        string     `gorm:"column:iban_number;type:varchar(50)" json:"iban_number"`
	LinkedCustomerID  *uuid.UUID `gorm:"type:uuid;index" json:"linked_customer_id"`
	LinkedCustomer    *Customer  `gorm:"foreignKey:LinkedCustomerID" json:"linked_customer,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
