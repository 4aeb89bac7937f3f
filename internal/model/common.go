package model

// ContactInfo groups the contact fields shared by customers and suppliers.
// Embedded by value with a column prefix instead of inheriting a base table.
type ContactInfo struct {
	Email          string `gorm:"type:varchar(255)" json:"email"`
	Phone          string `gorm:"type:varchar(20)" json:"phone"`
	WhatsappNumber string `gorm:"type:varchar(20)" json:"whatsapp_number"`
}

// BankDetails groups banking fields attached to supplier records.
type BankDetails struct {
	BankName      string `gorm:"type:varchar(150)" json:"bank_name"`
	AccountNumber string `gorm:"type:varchar(100)" json:"account_number"`
	IBANNumber    string `gorm:"column:iban_number;type:varchar(50)" json:"iban_number"`
}
