package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

type CreateBankAccountRequest struct {
	BankID            string  `json:"bank_id" binding:"required,uuid"`
	AccountHolderName string  `json:"account_holder_name" binding:"required"`
	AccountNumber     string  `json:"account_number" binding:"required"`
	IBANNumber        string  `json:"iban_number"`
	LinkedCustomerID  *string `json:"linked_customer_id" binding:"omitempty,uuid"`
}

// LookupService exposes the reference tables that back form dropdowns
type LookupService interface {
	Countries(ctx context.Context) ([]model.Country, error)
	Cities(ctx context.Context, countryID string) ([]model.City, error)
	Currencies(ctx context.Context) ([]model.Currency, error)
	Banks(ctx context.Context) ([]model.Bank, error)

	CreateBankAccount(ctx context.Context, req CreateBankAccountRequest) (*model.BankAccount, error)
	BankAccounts(ctx context.Context, customerID string) ([]model.BankAccount, error)
	DeleteBankAccount(ctx context.Context, id string) error
}

type lookupService struct {
	repo repository.LookupRepository
}

func NewLookupService(repo repository.LookupRepository) LookupService {
	return &lookupService{repo: repo}
}

func (s *lookupService) Countries(ctx context.Context) ([]model.Country, error) {
	return s.repo.ListCountries(ctx)
}

func (s *lookupService) Cities(ctx context.Context, countryID string) ([]model.City, error) {
	return s.repo.ListCities(ctx, countryID)
}

func (s *lookupService) Currencies(ctx context.Context) ([]model.Currency, error) {
	return s.repo.ListCurrencies(ctx)
}

func (s *lookupService) Banks(ctx context.Context) ([]model.Bank, error) {
	return s.repo.ListBanks(ctx)
}

func (s *lookupService) CreateBankAccount(ctx context.Context, req CreateBankAccountRequest) (*model.BankAccount, error) {
	bankID, err := uuid.Parse(req.BankID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid bank_id", ErrInvalidInput)
	}

	account := &model.BankAccount{
		BankID:            bankID,
		AccountHolderName: req.AccountHolderName,
		AccountNumber:     req.AccountNumber,
		IBANNumber:        req.IBANNumber,
	}
	if account.LinkedCustomerID, err = parseOptionalUUID(req.LinkedCustomerID); err != nil {
		return nil, err
	}

	if err := s.repo.CreateBankAccount(ctx, account); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: account number already registered", ErrInvalidInput)
		}
		return nil, err
	}
	return account, nil
}

func (s *lookupService) BankAccounts(ctx context.Context, customerID string) ([]model.BankAccount, error) {
	return s.repo.ListBankAccounts(ctx, customerID)
}

func (s *lookupService) DeleteBankAccount(ctx context.Context, id string) error {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: invalid bank account id", ErrInvalidInput)
	}
	if err := s.repo.DeleteBankAccount(ctx, accountID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
