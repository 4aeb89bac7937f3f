package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"backoffice/internal/finance"
	"backoffice/internal/model"
	"backoffice/internal/repository"
)

// --- DTOs ---

type CreateProjectRequest struct {
	BankProjectNumber int    `json:"bank_project_number" binding:"required"`
	OwnerID           string `json:"owner_id" binding:"required,uuid"`
	ConsultantID      string `json:"consultant_id" binding:"required,uuid"`
	MainContractor    string `json:"main_contractor"`
	Description       string `json:"description"`

	ReportAsOf           *string `json:"report_as_of"`
	EngineeringAuditor   string  `json:"engineering_auditor"`
	EngineeringAuditDate *string `json:"engineering_audit_date"`
	AccountingAuditor    string  `json:"accounting_auditor"`
	AccountingAuditDate  *string `json:"accounting_audit_date"`
	Notes                string  `json:"notes"`
	FirstFundingAgency   string  `json:"first_funding_agency"`
	SecondFundingAgency  string  `json:"second_funding_agency"`

	StartDate         *string `json:"start_date"`
	DurationMonths    *int    `json:"duration_months"`
	TimeExtensionDays *int    `json:"time_extension_days"`

	BaseContractValue    *decimal.Decimal `json:"base_contract_value"`
	CompletionPercentage *decimal.Decimal `json:"completion_percentage"`
	ConsultantPercentage *decimal.Decimal `json:"consultant_percentage"`

	BankTotalFinancingValue  *decimal.Decimal `json:"bank_total_financing_value"`
	BankCompletionPercentage *decimal.Decimal `json:"bank_completion_percentage"`
	BankConsultantPercentage *decimal.Decimal `json:"bank_consultant_percentage"`

	OwnerCompletionPercentage *decimal.Decimal `json:"owner_completion_percentage"`
	OwnerConsultantPercentage *decimal.Decimal `json:"owner_consultant_percentage"`
}

// UpdateProjectRequest uses a raw field map so only the submitted keys are
// touched; zero values like a 0% completion stay distinguishable from "unset".
type UpdateProjectRequest map[string]json.RawMessage

type CreateVariationRequest struct {
	VariationNumber string           `json:"variation_number" binding:"required"`
	Date            *string          `json:"date"`
	Amount          decimal.Decimal  `json:"amount" binding:"required"`
	FeePercentage   *decimal.Decimal `json:"consultant_fee_percentage"`
	IsApproved      *bool            `json:"is_approved"`
	Note            string           `json:"note"`
}

type UpdateVariationRequest struct {
	Date          *string          `json:"date"`
	Amount        *decimal.Decimal `json:"amount"`
	FeePercentage *decimal.Decimal `json:"consultant_fee_percentage"`
	IsApproved    *bool            `json:"is_approved"`
	Note          string           `json:"note"`
}

type CreatePaymentRequest struct {
	Date        string          `json:"date" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Source      string          `json:"source" binding:"omitempty,oneof=CLIENT BANK OTHER"`
	Description string          `json:"description"`
}

type UpdatePaymentRequest struct {
	Date        *string          `json:"date"`
	Amount      *decimal.Decimal `json:"amount"`
	Source      string           `json:"source" binding:"omitempty,oneof=CLIENT BANK OTHER"`
	Description string           `json:"description"`
}

type ProjectFilter struct {
	OwnerID string
	Search  string
	Page    int
	Limit   int
}

// ProjectDetail couples the stored inputs with the derived financial figures
type ProjectDetail struct {
	Project  *model.Project   `json:"project"`
	Snapshot finance.Snapshot `json:"snapshot"`
}

// --- Interface ---

type ProjectService interface {
	Create(ctx context.Context, req CreateProjectRequest, actorID *uuid.UUID) (*ProjectDetail, error)
	GetByID(ctx context.Context, id string) (*ProjectDetail, error)
	List(ctx context.Context, filter ProjectFilter) ([]model.Project, int64, error)
	Update(ctx context.Context, id string, req UpdateProjectRequest, actorID *uuid.UUID) (*ProjectDetail, error)
	Delete(ctx context.Context, id string) error

	AddVariation(ctx context.Context, projectID string, req CreateVariationRequest) (*ProjectDetail, error)
	UpdateVariation(ctx context.Context, projectID, variationID string, req UpdateVariationRequest) (*ProjectDetail, error)
	DeleteVariation(ctx context.Context, projectID, variationID string) error

	AddPayment(ctx context.Context, projectID string, req CreatePaymentRequest) (*ProjectDetail, error)
	UpdatePayment(ctx context.Context, projectID, paymentID string, req UpdatePaymentRequest) (*ProjectDetail, error)
	DeletePayment(ctx context.Context, projectID, paymentID string) error
}

type projectService struct {
	repo      repository.ProjectRepository
	customers repository.CustomerRepository
	audits    repository.AuditRepository
}

func NewProjectService(repo repository.ProjectRepository, customers repository.CustomerRepository, audits repository.AuditRepository) ProjectService {
	return &projectService{repo: repo, customers: customers, audits: audits}
}

// --- Implementation ---

func (s *projectService) Create(ctx context.Context, req CreateProjectRequest, actorID *uuid.UUID) (*ProjectDetail, error) {
	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid owner_id", ErrInvalidInput)
	}
	consultantID, err := uuid.Parse(req.ConsultantID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid consultant_id", ErrInvalidInput)
	}

	if err := s.checkCustomerRole(ctx, ownerID, model.CustomerTypeOwner, "owner"); err != nil {
		return nil, err
	}
	if err := s.checkCustomerRole(ctx, consultantID, model.CustomerTypeConsultant, "consultant"); err != nil {
		return nil, err
	}

	project := &model.Project{
		BankProjectNumber:   req.BankProjectNumber,
		OwnerID:             ownerID,
		ConsultantID:        consultantID,
		MainContractor:      req.MainContractor,
		Description:         req.Description,
		EngineeringAuditor:  req.EngineeringAuditor,
		AccountingAuditor:   req.AccountingAuditor,
		Notes:               req.Notes,
		FirstFundingAgency:  req.FirstFundingAgency,
		SecondFundingAgency: req.SecondFundingAgency,

		DurationMonths:    req.DurationMonths,
		TimeExtensionDays: req.TimeExtensionDays,

		BaseContractValue:    req.BaseContractValue,
		ConsultantPercentage: req.ConsultantPercentage,

		BankTotalFinancingValue:  req.BankTotalFinancingValue,
		BankConsultantPercentage: req.BankConsultantPercentage,

		OwnerConsultantPercentage: req.OwnerConsultantPercentage,
	}

	if req.CompletionPercentage != nil {
		project.CompletionPercentage = *req.CompletionPercentage
	}
	if req.BankCompletionPercentage != nil {
		project.BankCompletionPercentage = *req.BankCompletionPercentage
	}
	if req.OwnerCompletionPercentage != nil {
		project.OwnerCompletionPercentage = *req.OwnerCompletionPercentage
	}

	if project.ReportAsOf, err = parseOptionalDate(req.ReportAsOf); err != nil {
		return nil, err
	}
	if project.EngineeringAuditDate, err = parseOptionalDate(req.EngineeringAuditDate); err != nil {
		return nil, err
	}
	if project.AccountingAuditDate, err = parseOptionalDate(req.AccountingAuditDate); err != nil {
		return nil, err
	}
	if project.StartDate, err = parseOptionalDate(req.StartDate); err != nil {
		return nil, err
	}

	if err := validateProjectFinancials(project); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, project); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: bank project number already in use", ErrInvalidInput)
		}
		return nil, err
	}

	s.logAction(ctx, actorID, model.ActionCreateProject, project)

	return s.detail(ctx, project.ID)
}

func (s *projectService) GetByID(ctx context.Context, id string) (*ProjectDetail, error) {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid project id", ErrInvalidInput)
	}
	return s.detail(ctx, projectID)
}

func (s *projectService) List(ctx context.Context, filter ProjectFilter) ([]model.Project, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.repo.List(ctx, filter.OwnerID, filter.Search, filter.Page, filter.Limit)
}

func (s *projectService) Update(ctx context.Context, id string, req UpdateProjectRequest, actorID *uuid.UUID) (*ProjectDetail, error) {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid project id", ErrInvalidInput)
	}

	project, err := s.repo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := applyProjectPatch(project, req); err != nil {
		return nil, err
	}
	if err := validateProjectFinancials(project); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, project); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: bank project number already in use", ErrInvalidInput)
		}
		return nil, err
	}

	s.logAction(ctx, actorID, model.ActionUpdateProject, project)

	return s.detail(ctx, projectID)
}

func (s *projectService) Delete(ctx context.Context, id string) error {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: invalid project id", ErrInvalidInput)
	}
	if _, err := s.repo.FindByID(ctx, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.repo.Delete(ctx, projectID)
}

func (s *projectService) AddVariation(ctx context.Context, projectID string, req CreateVariationRequest) (*ProjectDetail, error) {
	pid, err := uuid.Parse(projectID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid project id", ErrInvalidInput)
	}
	if _, err := s.repo.FindByID(ctx, pid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	vo := &model.VariationOrder{
		ProjectID:       pid,
		VariationNumber: req.VariationNumber,
		Amount:          req.Amount,
		FeePercentage:   req.FeePercentage,
		IsApproved:      true,
		Note:            req.Note,
	}
	if req.IsApproved != nil {
		vo.IsApproved = *req.IsApproved
	}
	if vo.Date, err = parseOptionalDate(req.Date); err != nil {
		return nil, err
	}
	if err := checkPercentage("consultant_fee_percentage", vo.FeePercentage); err != nil {
		return nil, err
	}

	if err := s.repo.AddVariation(ctx, vo); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: variation number already used on this project", ErrInvalidInput)
		}
		return nil, err
	}

	return s.detail(ctx, pid)
}

func (s *projectService) UpdateVariation(ctx context.Context, projectID, variationID string, req UpdateVariationRequest) (*ProjectDetail, error) {
	pid, err := uuid.Parse(projectID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid project id", ErrInvalidInput)
	}
	vid, err := uuid.Parse(variationID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid variation id", ErrInvalidInput)
	}

	vo, err := s.repo.FindVariation(ctx, pid, vid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Date != nil {
		if vo.Date, err = parseOptionalDate(req.Date); err != nil {
			return nil, err
		}
	}
	if req.Amount != nil {
		vo.Amount = *req.Amount
	}
	if req.FeePercentage != nil {
		if err := checkPercentage("consultant_fee_percentage", req.FeePercentage); err != nil {
			return nil, err
		}
		vo.FeePercentage = req.FeePercentage
	}
	if req.IsApproved != nil {
		vo.IsApproved = *req.IsApproved
	}
	if req.Note != "" {
		vo.Note = req.Note
	}

	if err := s.repo.UpdateVariation(ctx, vo); err != nil {
		return nil, err
	}

	return s.detail(ctx, pid)
}

func (s *projectService) DeleteVariation(ctx context.Context, projectID, variationID string) error {
	pid, err := uuid.Parse(projectID)
	if err != nil {
		return fmt.Errorf("%w: invalid project id", ErrInvalidInput)
	}
	vid, err := uuid.Parse(variationID)
	if err != nil {
		return fmt.Errorf("%w: invalid variation id", ErrInvalidInput)
	}
	if err := s.repo.DeleteVariation(ctx, pid, vid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *projectService) AddPayment(ctx context.Context, projectID string, req CreatePaymentRequest) (*ProjectDetail, error) {
	pid, err := uuid.Parse(projectID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid project id", ErrInvalidInput)
	}
	if _, err := s.repo.FindByID(ctx, pid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", ErrInvalidInput, req.Date)
	}
	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}

	payment := &model.Payment{
		ProjectID:   pid,
		Date:        date,
		Amount:      req.Amount,
		Source:      req.Source,
		Description: req.Description,
	}
	if payment.Source == "" {
		payment.Source = model.PaymentSourceClient
	}

	if err := s.repo.AddPayment(ctx, payment); err != nil {
		return nil, err
	}

	return s.detail(ctx, pid)
}

func (s *projectService) UpdatePayment(ctx context.Context, projectID, paymentID string, req UpdatePaymentRequest) (*ProjectDetail, error) {
	pid, err := uuid.Parse(projectID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid project id", ErrInvalidInput)
	}
	payID, err := uuid.Parse(paymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid payment id", ErrInvalidInput)
	}

	payment, err := s.repo.FindPayment(ctx, pid, payID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date %q", ErrInvalidInput, *req.Date)
		}
		payment.Date = date
	}
	if req.Amount != nil {
		if req.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
		}
		payment.Amount = *req.Amount
	}
	if req.Source != "" {
		payment.Source = req.Source
	}
	if req.Description != "" {
		payment.Description = req.Description
	}

	if err := s.repo.UpdatePayment(ctx, payment); err != nil {
		return nil, err
	}

	return s.detail(ctx, pid)
}

func (s *projectService) DeletePayment(ctx context.Context, projectID, paymentID string) error {
	pid, err := uuid.Parse(projectID)
	if err != nil {
		return fmt.Errorf("%w: invalid project id", ErrInvalidInput)
	}
	payID, err := uuid.Parse(paymentID)
	if err != nil {
		return fmt.Errorf("%w: invalid payment id", ErrInvalidInput)
	}
	if err := s.repo.DeletePayment(ctx, pid, payID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// detail reloads a project with its children and derives the financial snapshot
func (s *projectService) detail(ctx context.Context, id uuid.UUID) (*ProjectDetail, error) {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ProjectDetail{
		Project:  project,
		Snapshot: finance.Derive(project),
	}, nil
}

func (s *projectService) checkCustomerRole(ctx context.Context, id uuid.UUID, wantType, role string) error {
	customer, err := s.customers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s not found", ErrInvalidInput, role)
		}
		return err
	}
	if customer.IsDeleted() {
		return fmt.Errorf("%w: %s not found", ErrInvalidInput, role)
	}
	if customer.CustomerType != wantType {
		return fmt.Errorf("%w: %s must be a %s customer", ErrInvalidInput, role, wantType)
	}
	return nil
}

func (s *projectService) logAction(ctx context.Context, actorID *uuid.UUID, action string, project *model.Project) {
	details, _ := json.Marshal(map[string]interface{}{
		"project_code":        project.ProjectCode,
		"bank_project_number": project.BankProjectNumber,
	})
	entry := model.AuditLog{
		UserID:     actorID,
		Action:     action,
		EntityID:   project.ID.String(),
		EntityName: project.ProjectCode,
		Details:    string(details),
	}
	_ = s.audits.Log(ctx, &entry)
}

var hundred = decimal.NewFromInt(100)

func checkNonNegative(name string, v *decimal.Decimal) error {
	if v != nil && v.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, name)
	}
	return nil
}

func checkPercentage(name string, v *decimal.Decimal) error {
	if v == nil {
		return nil
	}
	if v.IsNegative() || v.GreaterThan(hundred) {
		return fmt.Errorf("%w: %s must be between 0 and 100", ErrInvalidInput, name)
	}
	return nil
}

// validateProjectFinancials rejects inputs the derivation must never see:
// negative monetary values or durations, and percentages outside 0..100.
func validateProjectFinancials(p *model.Project) error {
	if err := checkNonNegative("base_contract_value", p.BaseContractValue); err != nil {
		return err
	}
	if err := checkNonNegative("bank_total_financing_value", p.BankTotalFinancingValue); err != nil {
		return err
	}

	percentages := map[string]*decimal.Decimal{
		"completion_percentage":       &p.CompletionPercentage,
		"consultant_percentage":       p.ConsultantPercentage,
		"bank_completion_percentage":  &p.BankCompletionPercentage,
		"bank_consultant_percentage":  p.BankConsultantPercentage,
		"owner_completion_percentage": &p.OwnerCompletionPercentage,
		"owner_consultant_percentage": p.OwnerConsultantPercentage,
	}
	for name, v := range percentages {
		if err := checkPercentage(name, v); err != nil {
			return err
		}
	}

	if p.DurationMonths != nil && *p.DurationMonths < 0 {
		return fmt.Errorf("%w: duration_months must not be negative", ErrInvalidInput)
	}
	if p.TimeExtensionDays != nil && *p.TimeExtensionDays < 0 {
		return fmt.Errorf("%w: time_extension_days must not be negative", ErrInvalidInput)
	}
	return nil
}

// applyProjectPatch applies only the keys present in the request body
func applyProjectPatch(project *model.Project, req UpdateProjectRequest) error {
	for field, raw := range req {
		var err error
		switch field {
		case "bank_project_number":
			err = json.Unmarshal(raw, &project.BankProjectNumber)
		case "main_contractor":
			err = json.Unmarshal(raw, &project.MainContractor)
		case "description":
			err = json.Unmarshal(raw, &project.Description)
		case "engineering_auditor":
			err = json.Unmarshal(raw, &project.EngineeringAuditor)
		case "accounting_auditor":
			err = json.Unmarshal(raw, &project.AccountingAuditor)
		case "notes":
			err = json.Unmarshal(raw, &project.Notes)
		case "first_funding_agency":
			err = json.Unmarshal(raw, &project.FirstFundingAgency)
		case "second_funding_agency":
			err = json.Unmarshal(raw, &project.SecondFundingAgency)
		case "report_as_of":
			project.ReportAsOf, err = unmarshalOptionalDate(raw)
		case "engineering_audit_date":
			project.EngineeringAuditDate, err = unmarshalOptionalDate(raw)
		case "accounting_audit_date":
			project.AccountingAuditDate, err = unmarshalOptionalDate(raw)
		case "start_date":
			project.StartDate, err = unmarshalOptionalDate(raw)
		case "duration_months":
			err = json.Unmarshal(raw, &project.DurationMonths)
		case "time_extension_days":
			err = json.Unmarshal(raw, &project.TimeExtensionDays)
		case "base_contract_value":
			err = json.Unmarshal(raw, &project.BaseContractValue)
		case "completion_percentage":
			err = json.Unmarshal(raw, &project.CompletionPercentage)
		case "consultant_percentage":
			err = json.Unmarshal(raw, &project.ConsultantPercentage)
		case "bank_total_financing_value":
			err = json.Unmarshal(raw, &project.BankTotalFinancingValue)
		case "bank_completion_percentage":
			err = json.Unmarshal(raw, &project.BankCompletionPercentage)
		case "bank_consultant_percentage":
			err = json.Unmarshal(raw, &project.BankConsultantPercentage)
		case "owner_completion_percentage":
			err = json.Unmarshal(raw, &project.OwnerCompletionPercentage)
		case "owner_consultant_percentage":
			err = json.Unmarshal(raw, &project.OwnerConsultantPercentage)
		default:
			return fmt.Errorf("%w: unknown field %q", ErrInvalidInput, field)
		}
		if err != nil {
			return fmt.Errorf("%w: bad value for %q", ErrInvalidInput, field)
		}
	}
	return nil
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", ErrInvalidInput, *s)
	}
	return &t, nil
}

func unmarshalOptionalDate(raw json.RawMessage) (*time.Time, error) {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return parseOptionalDate(s)
}
