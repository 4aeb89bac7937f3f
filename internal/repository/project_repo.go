package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"backoffice/internal/model"
)

// ProjectRepository defines data access for projects and their children
type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	List(ctx context.Context, ownerID, search string, page, limit int) ([]model.Project, int64, error)

	AddVariation(ctx context.Context, vo *model.VariationOrder) error
	UpdateVariation(ctx context.Context, vo *model.VariationOrder) error
	DeleteVariation(ctx context.Context, projectID, variationID uuid.UUID) error
	FindVariation(ctx context.Context, projectID, variationID uuid.UUID) (*model.VariationOrder, error)

	AddPayment(ctx context.Context, payment *model.Payment) error
	UpdatePayment(ctx context.Context, payment *model.Payment) error
	DeletePayment(ctx context.Context, projectID, paymentID uuid.UUID) error
	FindPayment(ctx context.Context, projectID, paymentID uuid.UUID) (*model.Payment, error)
}

type projectRepository struct {
	db       *gorm.DB
	counters CodeCounterRepository
}

func NewProjectRepository(db *gorm.DB, counters CodeCounterRepository) ProjectRepository {
	return &projectRepository{db: db, counters: counters}
}

func (r *projectRepository) Create(ctx context.Context, project *model.Project) error {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		if project.ProjectCode == "" {
			next, err := r.counters.Next(ctx, "project")
			if err != nil {
				return err
			}
			project.ProjectCode = FormatCode("PRJ", next)
		}

		err := GetDB(ctx, r.db).Create(project).Error
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			project.ProjectCode = ""
			continue
		}
		return err
	}
	return fmt.Errorf("failed to allocate unique project code after %d attempts", maxCodeAttempts)
}

func (r *projectRepository) Update(ctx context.Context, project *model.Project) error {
	return GetDB(ctx, r.db).
		Omit("VariationOrders", "Payments").
		Save(project).Error
}

func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Project{}, "id = ?", id).Error
}

func (r *projectRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := GetDB(ctx, r.db).
		Preload("Owner").
		Preload("Consultant").
		Preload("VariationOrders", func(db *gorm.DB) *gorm.DB {
			return db.Order("variation_orders.date, variation_orders.created_at")
		}).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payments.date, payments.created_at")
		}).
		First(&project, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) List(ctx context.Context, ownerID, search string, page, limit int) ([]model.Project, int64, error) {
	var projects []model.Project
	var total int64

	db := GetDB(ctx, r.db)
	base := func() *gorm.DB {
		q := db.Model(&model.Project{})
		if ownerID != "" {
			q = q.Where("owner_id = ?", ownerID)
		}
		if search != "" {
			like := "%" + search + "%"
			q = q.Where("project_code ILIKE ? OR description ILIKE ? OR main_contractor ILIKE ?", like, like, like)
		}
		return q
	}

	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := base().
		Preload("Owner").
		Preload("Consultant").
		Order("bank_project_number").Offset(offset).Limit(limit).
		Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

func (r *projectRepository) AddVariation(ctx context.Context, vo *model.VariationOrder) error {
	return GetDB(ctx, r.db).Create(vo).Error
}

func (r *projectRepository) UpdateVariation(ctx context.Context, vo *model.VariationOrder) error {
	return GetDB(ctx, r.db).Save(vo).Error
}

func (r *projectRepository) DeleteVariation(ctx context.Context, projectID, variationID uuid.UUID) error {
	res := GetDB(ctx, r.db).
		Where("project_id = ?", projectID).
		Delete(&model.VariationOrder{}, "id = ?", variationID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *projectRepository) FindVariation(ctx context.Context, projectID, variationID uuid.UUID) (*model.VariationOrder, error) {
	var vo model.VariationOrder
	if err := GetDB(ctx, r.db).
		Where("project_id = ?", projectID).
		First(&vo, "id = ?", variationID).Error; err != nil {
		return nil, err
	}
	return &vo, nil
}

func (r *projectRepository) AddPayment(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Create(payment).Error
}

func (r *projectRepository) UpdatePayment(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Save(payment).Error
}

func (r *projectRepository) DeletePayment(ctx context.Context, projectID, paymentID uuid.UUID) error {
	res := GetDB(ctx, r.db).
		Where("project_id = ?", projectID).
		Delete(&model.Payment{}, "id = ?", paymentID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *projectRepository) FindPayment(ctx context.Context, projectID, paymentID uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	if err := GetDB(ctx, r.db).
		Where("project_id = ?", projectID).
		First(&payment, "id = ?", paymentID).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}
