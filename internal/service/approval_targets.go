package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

// ApprovalTarget adapts one entity type to the approval workflow. Each
// implementation wraps that entity's repository; the service never touches
// a target table directly.
type ApprovalTarget interface {
	// Snapshot returns the target's current field values as a JSON object,
	// plus a human-readable label for notifications and audit entries.
	Snapshot(ctx context.Context, id uuid.UUID) (map[string]interface{}, string, error)
	// SetDeleteRequested flips the flag shown in list views while a DELETE
	// request is pending.
	SetDeleteRequested(ctx context.Context, id uuid.UUID, requested bool) error
	// SoftDelete applies an approved DELETE request.
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	// ApplyPatch applies an approved UPDATE request's field map.
	ApplyPatch(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
}

// TargetRegistry maps a target kind to its adapter. Registering a new entity
// type is the only change needed to put it under the approval workflow.
type TargetRegistry map[string]ApprovalTarget

func (r TargetRegistry) Resolve(kind string) (ApprovalTarget, error) {
	target, ok := r[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown target kind %q", ErrInvalidInput, kind)
	}
	return target, nil
}

// NewTargetRegistry wires the entity types governed by the approval workflow.
func NewTargetRegistry(customers repository.CustomerRepository, suppliers repository.SupplierRepository) TargetRegistry {
	return TargetRegistry{
		model.TargetKindCustomer: &customerTarget{repo: customers},
		model.TargetKindSupplier: &supplierTarget{repo: suppliers},
	}
}

type customerTarget struct {
	repo repository.CustomerRepository
}

func (t *customerTarget) Snapshot(ctx context.Context, id uuid.UUID) (map[string]interface{}, string, error) {
	customer, err := t.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	if customer.IsDeleted() {
		return nil, "", ErrNotFound
	}
	fields, err := entityFields(customer)
	if err != nil {
		return nil, "", err
	}
	return fields, customer.FullNameEnglish, nil
}

func (t *customerTarget) SetDeleteRequested(ctx context.Context, id uuid.UUID, requested bool) error {
	return t.repo.SetDeleteRequested(ctx, id, requested)
}

func (t *customerTarget) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	return t.repo.SoftDelete(ctx, id, at)
}

func (t *customerTarget) ApplyPatch(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return t.repo.ApplyPatch(ctx, id, fields)
}

type supplierTarget struct {
	repo repository.SupplierRepository
}

func (t *supplierTarget) Snapshot(ctx context.Context, id uuid.UUID) (map[string]interface{}, string, error) {
	supplier, err := t.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	if supplier.IsDeleted() {
		return nil, "", ErrNotFound
	}
	fields, err := entityFields(supplier)
	if err != nil {
		return nil, "", err
	}
	return fields, supplier.CompanyNameEnglish, nil
}

func (t *supplierTarget) SetDeleteRequested(ctx context.Context, id uuid.UUID, requested bool) error {
	return t.repo.SetDeleteRequested(ctx, id, requested)
}

func (t *supplierTarget) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	return t.repo.SoftDelete(ctx, id, at)
}

func (t *supplierTarget) ApplyPatch(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return t.repo.ApplyPatch(ctx, id, fields)
}

// entityFields flattens an entity through its JSON form so snapshot keys
// line up with the field names clients send in update requests.
func entityFields(entity interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(entity)
	if err != nil {
		return nil, err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
