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

// SupplierRepository defines data access for Supplier entities
type SupplierRepository interface {
	Create(ctx context.Context, supplier *model.Supplier) error
	Update(ctx context.Context, supplier *model.Supplier) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	List(ctx context.Context, scopeOfWorkID, search string, page, limit int) ([]model.Supplier, int64, error)
	SetDeleteRequested(ctx context.Context, id uuid.UUID, requested bool) error
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	ApplyPatch(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	ListScopesOfWork(ctx context.Context) ([]model.ScopeOfWork, error)
}

type supplierRepository struct {
	db       *gorm.DB
	counters CodeCounterRepository
}

func NewSupplierRepository(db *gorm.DB, counters CodeCounterRepository) SupplierRepository {
	return &supplierRepository{db: db, counters: counters}
}

func (r *supplierRepository) Create(ctx context.Context, supplier *model.Supplier) error {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		if supplier.SupplierCode == "" {
			next, err := r.counters.Next(ctx, "supplier")
			if err != nil {
				return err
			}
			supplier.SupplierCode = FormatCode("SUP", next)
		}

		err := GetDB(ctx, r.db).Create(supplier).Error
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			supplier.SupplierCode = ""
			continue
		}
		return err
	}
	return fmt.Errorf("failed to allocate unique supplier code after %d attempts", maxCodeAttempts)
}

func (r *supplierRepository) Update(ctx context.Context, supplier *model.Supplier) error {
	return GetDB(ctx, r.db).Save(supplier).Error
}

func (r *supplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := GetDB(ctx, r.db).
		Preload("ScopeOfWork").
		First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepository) List(ctx context.Context, scopeOfWorkID, search string, page, limit int) ([]model.Supplier, int64, error) {
	var suppliers []model.Supplier
	var total int64

	db := GetDB(ctx, r.db)
	base := func() *gorm.DB {
		q := db.Model(&model.Supplier{}).Where("deleted_at IS NULL")
		if scopeOfWorkID != "" {
			q = q.Where("scope_of_work_id = ?", scopeOfWorkID)
		}
		if search != "" {
			like := "%" + search + "%"
			q = q.Where("company_name_english ILIKE ? OR company_name_arabic ILIKE ? OR supplier_code ILIKE ? OR email ILIKE ?",
				like, like, like, like)
		}
		return q
	}

	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := base().
		Preload("ScopeOfWork").
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&suppliers).Error; err != nil {
		return nil, 0, err
	}

	return suppliers, total, nil
}

func (r *supplierRepository) SetDeleteRequested(ctx context.Context, id uuid.UUID, requested bool) error {
	return GetDB(ctx, r.db).Model(&model.Supplier{}).
		Where("id = ?", id).
		Update("delete_requested", requested).Error
}

func (r *supplierRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.Supplier{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted_at":       at,
			"delete_requested": false,
		}).Error
}

func (r *supplierRepository) ApplyPatch(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Model(&model.Supplier{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *supplierRepository) ListScopesOfWork(ctx context.Context) ([]model.ScopeOfWork, error) {
	var scopes []model.ScopeOfWork
	if err := GetDB(ctx, r.db).Order("name").Find(&scopes).Error; err != nil {
		return nil, err
	}
	return scopes, nil
}
