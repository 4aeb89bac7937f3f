package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

// --- DTOs ---

type CreateSupplierRequest struct {
	CompanyNameArabic  string  `json:"company_name_arabic"`
	CompanyNameEnglish string  `json:"company_name_english" binding:"required"`
	Email              string  `json:"email" binding:"omitempty,email"`
	Phone              string  `json:"phone"`
	WhatsappNumber     string  `json:"whatsapp_number"`
	BankName           string  `json:"bank_name"`
	BankAccountNumber  string  `json:"bank_account_number"`
	BankIBANNumber     string  `json:"bank_iban_number"`
	ScopeOfWorkID      *string `json:"scope_of_work_id" binding:"omitempty,uuid"`
	TRNNumber          string  `json:"trn_number"`
	LegalStructure     string  `json:"legal_structure" binding:"omitempty,oneof=SOLE_PROPRIETORSHIP PARTNERSHIP LLC"`
	BranchAddress      string  `json:"branch_address"`
	CompanyWebsite     string  `json:"company_website"`
	SupplierHistory    string  `json:"supplier_history" binding:"omitempty,oneof=NEW PREVIOUS"`
}

type UpdateSupplierRequest struct {
	CompanyNameArabic  string  `json:"company_name_arabic"`
	CompanyNameEnglish string  `json:"company_name_english"`
	Email              string  `json:"email" binding:"omitempty,email"`
	Phone              string  `json:"phone"`
	WhatsappNumber     string  `json:"whatsapp_number"`
	BankName           string  `json:"bank_name"`
	BankAccountNumber  string  `json:"bank_account_number"`
	BankIBANNumber     string  `json:"bank_iban_number"`
	ScopeOfWorkID      *string `json:"scope_of_work_id" binding:"omitempty,uuid"`
	TRNNumber          string  `json:"trn_number"`
	LegalStructure     string  `json:"legal_structure" binding:"omitempty,oneof=SOLE_PROPRIETORSHIP PARTNERSHIP LLC"`
	BranchAddress      string  `json:"branch_address"`
	CompanyWebsite     string  `json:"company_website"`
	SupplierHistory    string  `json:"supplier_history" binding:"omitempty,oneof=NEW PREVIOUS"`
	IsActive           *bool   `json:"is_active"`
}

type SupplierFilter struct {
	ScopeOfWorkID string
	Search        string
	Page          int
	Limit         int
}

// --- Interface ---

type SupplierService interface {
	Create(ctx context.Context, req CreateSupplierRequest, actorID *uuid.UUID) (*model.Supplier, error)
	GetByID(ctx context.Context, id string) (*model.Supplier, error)
	List(ctx context.Context, filter SupplierFilter) ([]model.Supplier, int64, error)
	Update(ctx context.Context, id string, req UpdateSupplierRequest, actorID *uuid.UUID) (*model.Supplier, error)
	ListScopesOfWork(ctx context.Context) ([]model.ScopeOfWork, error)
}

type supplierService struct {
	repo   repository.SupplierRepository
	audits repository.AuditRepository
}

func NewSupplierService(repo repository.SupplierRepository, audits repository.AuditRepository) SupplierService {
	return &supplierService{repo: repo, audits: audits}
}

// --- Implementation ---

func (s *supplierService) Create(ctx context.Context, req CreateSupplierRequest, actorID *uuid.UUID) (*model.Supplier, error) {
	supplier := &model.Supplier{
		CompanyNameArabic:  req.CompanyNameArabic,
		CompanyNameEnglish: req.CompanyNameEnglish,
		ContactInfo: model.ContactInfo{
			Email:          req.Email,
			Phone:          req.Phone,
			WhatsappNumber: req.WhatsappNumber,
		},
		BankDetails: model.BankDetails{
			BankName:      req.BankName,
			AccountNumber: req.BankAccountNumber,
			IBANNumber:    req.BankIBANNumber,
		},
		TRNNumber:       req.TRNNumber,
		LegalStructure:  req.LegalStructure,
		BranchAddress:   req.BranchAddress,
		CompanyWebsite:  req.CompanyWebsite,
		SupplierHistory: req.SupplierHistory,
		IsActive:        true,
	}
	if supplier.SupplierHistory == "" {
		supplier.SupplierHistory = model.SupplierHistoryNew
	}

	var err error
	if supplier.ScopeOfWorkID, err = parseOptionalUUID(req.ScopeOfWorkID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, supplier); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: supplier code already in use", ErrInvalidInput)
		}
		return nil, err
	}

	s.logAction(ctx, actorID, model.ActionCreateSupplier, supplier)

	return supplier, nil
}

func (s *supplierService) GetByID(ctx context.Context, id string) (*model.Supplier, error) {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid supplier id", ErrInvalidInput)
	}

	supplier, err := s.repo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if supplier.IsDeleted() {
		return nil, ErrNotFound
	}

	return supplier, nil
}

func (s *supplierService) List(ctx context.Context, filter SupplierFilter) ([]model.Supplier, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.repo.List(ctx, filter.ScopeOfWorkID, filter.Search, filter.Page, filter.Limit)
}

func (s *supplierService) Update(ctx context.Context, id string, req UpdateSupplierRequest, actorID *uuid.UUID) (*model.Supplier, error) {
	supplier, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CompanyNameArabic != "" {
		supplier.CompanyNameArabic = req.CompanyNameArabic
	}
	if req.CompanyNameEnglish != "" {
		supplier.CompanyNameEnglish = req.CompanyNameEnglish
	}
	if req.Email != "" {
		supplier.ContactInfo.Email = req.Email
	}
	if req.Phone != "" {
		supplier.ContactInfo.Phone = req.Phone
	}
	if req.WhatsappNumber != "" {
		supplier.ContactInfo.WhatsappNumber = req.WhatsappNumber
	}
	if req.BankName != "" {
		supplier.BankDetails.BankName = req.BankName
	}
	if req.BankAccountNumber != "" {
		supplier.BankDetails.AccountNumber = req.BankAccountNumber
	}
	if req.BankIBANNumber != "" {
		supplier.BankDetails.IBANNumber = req.BankIBANNumber
	}
	if req.TRNNumber != "" {
		supplier.TRNNumber = req.TRNNumber
	}
	if req.LegalStructure != "" {
		supplier.LegalStructure = req.LegalStructure
	}
	if req.BranchAddress != "" {
		supplier.BranchAddress = req.BranchAddress
	}
	if req.CompanyWebsite != "" {
		supplier.CompanyWebsite = req.CompanyWebsite
	}
	if req.SupplierHistory != "" {
		supplier.SupplierHistory = req.SupplierHistory
	}
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}

	if req.ScopeOfWorkID != nil {
		if supplier.ScopeOfWorkID, err = parseOptionalUUID(req.ScopeOfWorkID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, supplier); err != nil {
		return nil, err
	}

	s.logAction(ctx, actorID, model.ActionUpdateSupplier, supplier)

	return supplier, nil
}

func (s *supplierService) ListScopesOfWork(ctx context.Context) ([]model.ScopeOfWork, error) {
	return s.repo.ListScopesOfWork(ctx)
}

func (s *supplierService) logAction(ctx context.Context, actorID *uuid.UUID, action string, supplier *model.Supplier) {
	details, _ := json.Marshal(map[string]interface{}{
		"supplier_code": supplier.SupplierCode,
	})
	entry := model.AuditLog{
		UserID:     actorID,
		Action:     action,
		EntityID:   supplier.ID.String(),
		EntityName: supplier.CompanyNameEnglish,
		Details:    string(details),
	}
	_ = s.audits.Log(ctx, &entry)
}
