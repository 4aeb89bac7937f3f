package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentSource enum constants
const (
	PaymentSourceClient = "CLIENT"
	PaymentSourceBank   = "BANK"
	PaymentSourceOther  = "OTHER"
)

// Project holds the contract, financing-split, and duration inputs of the
// financial statement. Derived figures are never stored — the finance package
// recomputes them from the live row and its children on every read.
type Project struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BankProjectNumber int       `gorm:"uniqueIndex;not null" json:"bank_project_number"`
	ProjectCode       string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"project_code"`

	OwnerID        uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner          *Customer `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	ConsultantID   uuid.UUID `gorm:"type:uuid;not null;index" json:"consultant_id"`
	Consultant     *Customer `gorm:"foreignKey:ConsultantID" json:"consultant,omitempty"`
	MainContractor string    `gorm:"type:varchar(255)" json:"main_contractor"`
	Description    string    `gorm:"type:text" json:"description"`

	// Report header helpers
	ReportAsOf           *time.Time `gorm:"type:date" json:"report_as_of"`
	EngineeringAuditor   string     `gorm:"type:varchar(255)" json:"engineering_auditor"`
	EngineeringAuditDate *time.Time `gorm:"type:date" json:"engineering_audit_date"`
	AccountingAuditor    string     `gorm:"type:varchar(255)" json:"accounting_auditor"`
	AccountingAuditDate  *time.Time `gorm:"type:date" json:"accounting_audit_date"`
	Notes                string     `gorm:"type:text" json:"notes"`

	FirstFundingAgency  string `gorm:"type:varchar(255)" json:"first_funding_agency"`
	SecondFundingAgency string `gorm:"type:varchar(255)" json:"second_funding_agency"`

	// Duration inputs
	StartDate         *time.Time `gorm:"type:date" json:"start_date"`
	DurationMonths    *int       `json:"duration_months"`
	TimeExtensionDays *int       `json:"time_extension_days"`

	// Global contract inputs
	BaseContractValue    *decimal.Decimal `gorm:"type:decimal(20,2)" json:"base_contract_value"`
	CompletionPercentage decimal.Decimal  `gorm:"type:decimal(5,2);default:0" json:"completion_percentage"`
	ConsultantPercentage *decimal.Decimal `gorm:"type:decimal(5,2)" json:"consultant_percentage"`

	// Bank financing inputs
	BankTotalFinancingValue  *decimal.Decimal `gorm:"type:decimal(20,2)" json:"bank_total_financing_value"`
	BankCompletionPercentage decimal.Decimal  `gorm:"type:decimal(5,2);default:0" json:"bank_completion_percentage"`
	BankConsultantPercentage *decimal.Decimal `gorm:"type:decimal(5,2)" json:"bank_consultant_percentage"`

	// Owner financing inputs (the owner base itself is derived)
	OwnerCompletionPercentage decimal.Decimal  `gorm:"type:decimal(5,2);default:0" json:"owner_completion_percentage"`
	OwnerConsultantPercentage *decimal.Decimal `gorm:"type:decimal(5,2)" json:"owner_consultant_percentage"`

	VariationOrders []VariationOrder `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"variation_orders"`
	Payments        []Payment        `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"payments"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VariationOrder is a signed adjustment to the project's contract value.
// A negative amount is a deduction.
type VariationOrder struct {
	ID              uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID       uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:idx_project_variation_no" json:"project_id"`
	VariationNumber string           `gorm:"type:varchar(100);not null;uniqueIndex:idx_project_variation_no" json:"variation_number"`
	Date            *time.Time       `gorm:"type:date" json:"date"`
	Amount          decimal.Decimal  `gorm:"type:decimal(20,2);not null" json:"amount"`
	FeePercentage   *decimal.Decimal `gorm:"column:consultant_fee_percentage;type:decimal(5,2)" json:"consultant_fee_percentage"`
	IsApproved      bool             `gorm:"default:true" json:"is_approved"`
	Note            string           `gorm:"type:varchar(255)" json:"note"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Payment records money received against a project
type Payment struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"project_id"`
	Date        time.Time       `gorm:"type:date;not null" json:"date"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Source      string          `gorm:"type:varchar(10);not null;default:'CLIENT'" json:"source"` // CLIENT, BANK, OTHER
	Description string          `gorm:"type:varchar(255)" json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
