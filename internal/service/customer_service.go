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

type CreateCustomerRequest struct {
	CustomerType      string  `json:"customer_type" binding:"required,oneof=OWNER COMMERCIAL CONSULTANT"`
	FullNameArabic    string  `json:"full_name_arabic" binding:"required"`
	FullNameEnglish   string  `json:"full_name_english" binding:"required"`
	Email             string  `json:"email" binding:"omitempty,email"`
	Phone             string  `json:"phone"`
	WhatsappNumber    string  `json:"whatsapp_number"`
	CountryID         *string `json:"country_id" binding:"omitempty,uuid"`
	CityID            *string `json:"city_id" binding:"omitempty,uuid"`
	CurrencyID        *string `json:"currency_id" binding:"omitempty,uuid"`
	PreferredLanguage string  `json:"preferred_language" binding:"omitempty,oneof=en ar"`
	Notes             string  `json:"notes"`
}

type UpdateCustomerRequest struct {
	FullNameArabic    string  `json:"full_name_arabic"`
	FullNameEnglish   string  `json:"full_name_english"`
	Email             string  `json:"email" binding:"omitempty,email"`
	Phone             string  `json:"phone"`
	WhatsappNumber    string  `json:"whatsapp_number"`
	CountryID         *string `json:"country_id" binding:"omitempty,uuid"`
	CityID            *string `json:"city_id" binding:"omitempty,uuid"`
	CurrencyID        *string `json:"currency_id" binding:"omitempty,uuid"`
	PreferredLanguage string  `json:"preferred_language" binding:"omitempty,oneof=en ar"`
	Status            string  `json:"status" binding:"omitempty,oneof=active inactive"`
	Notes             string  `json:"notes"`
}

type CustomerFilter struct {
	CustomerType string
	Search       string
	Page         int
	Limit        int
}

// --- Interface ---

type CustomerService interface {
	Create(ctx context.Context, req CreateCustomerRequest, actorID *uuid.UUID) (*model.Customer, error)
	GetByID(ctx context.Context, id string) (*model.Customer, error)
	List(ctx context.Context, filter CustomerFilter) ([]model.Customer, int64, error)
	Update(ctx context.Context, id string, req UpdateCustomerRequest, actorID *uuid.UUID) (*model.Customer, error)
}

type customerService struct {
	repo   repository.CustomerRepository
	audits repository.AuditRepository
}

func NewCustomerService(repo repository.CustomerRepository, audits repository.AuditRepository) CustomerService {
	return &customerService{repo: repo, audits: audits}
}

// --- Implementation ---

func (s *customerService) Create(ctx context.Context, req CreateCustomerRequest, actorID *uuid.UUID) (*model.Customer, error) {
	customer := &model.Customer{
		CustomerType:    req.CustomerType,
		FullNameArabic:  req.FullNameArabic,
		FullNameEnglish: req.FullNameEnglish,
		ContactInfo: model.ContactInfo{
			Email:          req.Email,
			Phone:          req.Phone,
			WhatsappNumber: req.WhatsappNumber,
		},
		PreferredLanguage: req.PreferredLanguage,
		Notes:             req.Notes,
		Status:            model.CustomerStatusActive,
	}
	if customer.PreferredLanguage == "" {
		customer.PreferredLanguage = "en"
	}

	var err error
	if customer.CountryID, err = parseOptionalUUID(req.CountryID); err != nil {
		return nil, err
	}
	if customer.CityID, err = parseOptionalUUID(req.CityID); err != nil {
		return nil, err
	}
	if customer.CurrencyID, err = parseOptionalUUID(req.CurrencyID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, customer); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: customer code already in use", ErrInvalidInput)
		}
		return nil, err
	}

	s.logAction(ctx, actorID, model.ActionCreateCustomer, customer)

	return customer, nil
}

func (s *customerService) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid customer id", ErrInvalidInput)
	}

	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if customer.IsDeleted() {
		return nil, ErrNotFound
	}

	return customer, nil
}

func (s *customerService) List(ctx context.Context, filter CustomerFilter) ([]model.Customer, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.repo.List(ctx, filter.CustomerType, filter.Search, filter.Page, filter.Limit)
}

func (s *customerService) Update(ctx context.Context, id string, req UpdateCustomerRequest, actorID *uuid.UUID) (*model.Customer, error) {
	customer, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullNameArabic != "" {
		customer.FullNameArabic = req.FullNameArabic
	}
	if req.FullNameEnglish != "" {
		customer.FullNameEnglish = req.FullNameEnglish
	}
	if req.Email != "" {
		customer.ContactInfo.Email = req.Email
	}
	if req.Phone != "" {
		customer.ContactInfo.Phone = req.Phone
	}
	if req.WhatsappNumber != "" {
		customer.ContactInfo.WhatsappNumber = req.WhatsappNumber
	}
	if req.PreferredLanguage != "" {
		customer.PreferredLanguage = req.PreferredLanguage
	}
	if req.Status != "" {
		customer.Status = req.Status
	}
	if req.Notes != "" {
		customer.Notes = req.Notes
	}

	if req.CountryID != nil {
		if customer.CountryID, err = parseOptionalUUID(req.CountryID); err != nil {
			return nil, err
		}
	}
	if req.CityID != nil {
		if customer.CityID, err = parseOptionalUUID(req.CityID); err != nil {
			return nil, err
		}
	}
	if req.CurrencyID != nil {
		if customer.CurrencyID, err = parseOptionalUUID(req.CurrencyID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, err
	}

	s.logAction(ctx, actorID, model.ActionUpdateCustomer, customer)

	return customer, nil
}

func (s *customerService) logAction(ctx context.Context, actorID *uuid.UUID, action string, customer *model.Customer) {
	details, _ := json.Marshal(map[string]interface{}{
		"customer_code": customer.CustomerCode,
		"customer_type": customer.CustomerType,
	})
	entry := model.AuditLog{
		UserID:     actorID,
		Action:     action,
		EntityID:   customer.ID.String(),
		EntityName: customer.FullNameEnglish,
		Details:    string(details),
	}
	// Audit failures on direct writes are not fatal to the request
	_ = s.audits.Log(ctx, &entry)
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(*s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid uuid %q", ErrInvalidInput, *s)
	}
	return &parsed, nil
}
