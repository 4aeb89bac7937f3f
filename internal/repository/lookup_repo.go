package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"backoffice/internal/model"
)

// LookupRepository serves the small reference tables backing dropdowns
type LookupRepository interface {
	ListCountries(ctx context.Context) ([]model.Country, error)
	ListCities(ctx context.Context, countryID string) ([]model.City, error)
	ListCurrencies(ctx context.Context) ([]model.Currency, error)
	ListBanks(ctx context.Context) ([]model.Bank, error)

	CreateBankAccount(ctx context.Context, account *model.BankAccount) error
	ListBankAccounts(ctx context.Context, customerID string) ([]model.BankAccount, error)
	DeleteBankAccount(ctx context.Context, id uuid.UUID) error
}

type lookupRepository struct {
	db *gorm.DB
}

func NewLookupRepository(db *gorm.DB) LookupRepository {
	return &lookupRepository{db: db}
}

func (r *lookupRepository) ListCountries(ctx context.Context) ([]model.Country, error) {
	var countries []model.Country
	if err := GetDB(ctx, r.db).Where("is_active = true").Order("name").Find(&countries).Error; err != nil {
		return nil, err
	}
	return countries, nil
}

func (r *lookupRepository) ListCities(ctx context.Context, countryID string) ([]model.City, error) {
	var cities []model.City
	query := GetDB(ctx, r.db).Where("is_active = true")
	if countryID != "" {
		query = query.Where("country_id = ?", countryID)
	}
	if err := query.Order("name").Find(&cities).Error; err != nil {
		return nil, err
	}
	return cities, nil
}

func (r *lookupRepository) ListCurrencies(ctx context.Context) ([]model.Currency, error) {
	var currencies []model.Currency
	if err := GetDB(ctx, r.db).Where("is_active = true").Order("name").Find(&currencies).Error; err != nil {
		return nil, err
	}
	return currencies, nil
}

func (r *lookupRepository) ListBanks(ctx context.Context) ([]model.Bank, error) {
	var banks []model.Bank
	if err := GetDB(ctx, r.db).Preload("Country").Order("name").Find(&banks).Error; err != nil {
		return nil, err
	}
	return banks, nil
}

func (r *lookupRepository) CreateBankAccount(ctx context.Context, account *model.BankAccount) error {
	return GetDB(ctx, r.db).Create(account).Error
}

func (r *lookupRepository) ListBankAccounts(ctx context.Context, customerID string) ([]model.BankAccount, error) {
	var accounts []model.BankAccount
	query := GetDB(ctx, r.db).Preload("Bank")
	if customerID != "" {
		query = query.Where("linked_customer_id = ?", customerID)
	}
	if err := query.Order("created_at DESC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *lookupRepository) DeleteBankAccount(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Delete(&model.BankAccount{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
