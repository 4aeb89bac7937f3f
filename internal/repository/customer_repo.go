package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"backoffice/internal/model"
)

// CustomerRepository defines data access for Customer entities. Reads exclude
// soft-deleted rows unless stated otherwise; customers are never hard-deleted.
type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	Update(ctx context.Context, customer *model.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	List(ctx context.Context, customerType, search string, page, limit int) ([]model.Customer, int64, error)
	SetDeleteRequested(ctx context.Context, id uuid.UUID, requested bool) error
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	ApplyPatch(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
}

type customerRepository struct {
	db       *gorm.DB
	counters CodeCounterRepository
}

func NewCustomerRepository(db *gorm.DB, counters CodeCounterRepository) CustomerRepository {
	return &customerRepository{db: db, counters: counters}
}

// Create persists a new customer, generating a unique prefixed code from the
// per-type counter. On a code collision the counter is advanced and the
// insert retried, bounded by maxCodeAttempts.
func (r *customerRepository) Create(ctx context.Context, customer *model.Customer) error {
	prefix := model.CustomerCodePrefix(customer.CustomerType)

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		if customer.CustomerCode == "" {
			next, err := r.counters.Next(ctx, "customer_"+prefix)
			if err != nil {
				return err
			}
			customer.CustomerCode = FormatCode(prefix, next)
		}

		err := GetDB(ctx, r.db).Create(customer).Error
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			customer.CustomerCode = ""
			continue
		}
		return err
	}
	return fmt.Errorf("failed to allocate unique customer code after %d attempts", maxCodeAttempts)
}

func (r *customerRepository) Update(ctx context.Context, customer *model.Customer) error {
	return GetDB(ctx, r.db).Save(customer).Error
}

func (r *customerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := GetDB(ctx, r.db).
		Preload("Country").Preload("City").Preload("Currency").
		First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) List(ctx context.Context, customerType, search string, page, limit int) ([]model.Customer, int64, error) {
	var customers []model.Customer
	var total int64

	db := GetDB(ctx, r.db)
	base := func() *gorm.DB {
		q := db.Model(&model.Customer{}).Where("deleted_at IS NULL")
		if customerType != "" {
			q = q.Where("customer_type = ?", customerType)
		}
		if search != "" {
			like := "%" + search + "%"
			q = q.Where("full_name_english ILIKE ? OR full_name_arabic ILIKE ? OR customer_code ILIKE ? OR email ILIKE ?",
				like, like, like, like)
		}
		return q
	}

	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := base().
		Preload("Country").Preload("City").Preload("Currency").
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&customers).Error; err != nil {
		return nil, 0, err
	}

	return customers, total, nil
}

func (r *customerRepository) SetDeleteRequested(ctx context.Context, id uuid.UUID, requested bool) error {
	return GetDB(ctx, r.db).Model(&model.Customer{}).
		Where("id = ?", id).
		Update("delete_requested", requested).Error
}

// SoftDelete stamps deleted_at and clears the delete_requested flag
func (r *customerRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.Customer{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted_at":       at,
			"delete_requested": false,
		}).Error
}

func (r *customerRepository) ApplyPatch(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Model(&model.Customer{}).
		Where("id = ?", id).
		Updates(fields).Error
}
