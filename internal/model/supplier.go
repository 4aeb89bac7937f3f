package model

import (
	"time"

	"github.com/google/uuid"
)

// SupplierHistory enum constants
const (
	SupplierHistoryNew      = "NEW"
	SupplierHistoryPrevious = "PREVIOUS"
)

// ScopeOfWork classifies suppliers by the kind of work they provide
type ScopeOfWork struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Supplier represents a vendor company. Soft-deleted through the approval
// workflow, same as customers.
type Supplier struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SupplierCode string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"supplier_code"`

	CompanyNameArabic  string `gorm:"type:varchar(255)" json:"company_name_arabic"`
	CompanyNameEnglish string `gorm:"type:varchar(255);not null" json:"company_name_english"`

	ContactInfo ContactInfo `gorm:"embedded" json:"contact_info"`
	BankDetails BankDetails `gorm:"embedded;embeddedPrefix:bank_" json:"bank_details"`

	ScopeOfWorkID *uuid.UUID   `gorm:"type:uuid;index" json:"scope_of_work_id"`
	ScopeOfWork   *ScopeOfWork `gorm:"foreignKey:ScopeOfWorkID" json:"scope_of_work,omitempty"`

	TRNNumber       string `gorm:"column:trn_number;type:varchar(50)" json:"trn_number"`
	LegalStructure  string `gorm:"type:varchar(50)" json:"legal_structure"` // SOLE_PROPRIETORSHIP, PARTNERSHIP, LLC
	BranchAddress   string `gorm:"type:varchar(100)" json:"branch_address"`
	CompanyWebsite  string `gorm:"type:varchar(512)" json:"company_website"`
	SupplierHistory string `gorm:"type:varchar(20);default:'NEW'" json:"supplier_history"` // NEW, PREVIOUS

	IsActive        bool       `gorm:"default:true" json:"is_active"`
	DeleteRequested bool       `gorm:"default:false" json:"delete_requested"`
	DeletedAt       *time.Time `gorm:"index" json:"deleted_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsDeleted reports whether the supplier has been soft-deleted
func (s *Supplier) IsDeleted() bool {
	return s.DeletedAt != nil
}
