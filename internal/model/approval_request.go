package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrAlreadyProcessed is returned when approving or rejecting a request
// that has already left the PENDING state.
var ErrAlreadyProcessed = errors.New("approval request already processed")

// ApprovalKind enum constants
const (
	ApprovalKindDelete = "DELETE"
	ApprovalKindUpdate = "UPDATE"
)

// ApprovalStatus enum constants
const (
	ApprovalPending  = "PENDING"
	ApprovalApproved = "APPROVED"
	ApprovalRejected = "REJECTED"
)

// TargetKind enum constants — keys into the approval target registry
const (
	TargetKindCustomer = "CUSTOMER"
	TargetKindSupplier = "SUPPLIER"
)

// ApprovalRequest wraps a pending change (delete or field update) against an
// arbitrary target entity, identified by (target_kind, target_id). The side
// effect of an approval is applied in the same transaction as the status flip.
type ApprovalRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Kind       string    `gorm:"type:varchar(20);not null;index" json:"kind"`        // DELETE, UPDATE
	TargetKind string    `gorm:"type:varchar(30);not null;index" json:"target_kind"` // CUSTOMER, SUPPLIER, ...
	TargetID   uuid.UUID `gorm:"type:uuid;not null;index" json:"target_id"`

	// Field snapshots for UPDATE requests (field name -> value)
	OldData string `gorm:"type:jsonb" json:"old_data"`
	NewData string `gorm:"type:jsonb" json:"new_data"`

	Status      string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	RequestedBy *uuid.UUID `gorm:"type:uuid;index" json:"requested_by"`
	Requester   *User      `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	ApprovedBy  *uuid.UUID `gorm:"type:uuid" json:"approved_by"`
	Approver    *User      `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at"`
	Comment     string     `gorm:"type:text" json:"comment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MarkApproved transitions the request to APPROVED. It fails with
// ErrAlreadyProcessed unless the request is still PENDING; the terminal
// fields are therefore only ever written once.
func (r *ApprovalRequest) MarkApproved(approver uuid.UUID, at time.Time) error {
	if r.Status != ApprovalPending {
		return ErrAlreadyProcessed
	}
	r.Status = ApprovalApproved
	r.ApprovedBy = &approver
	r.ApprovedAt = &at
	return nil
}

// MarkRejected transitions the request to REJECTED, storing the reviewer's
// comment. Same single-shot guard as MarkApproved.
func (r *ApprovalRequest) MarkRejected(approver uuid.UUID, comment string, at time.Time) error {
	if r.Status != ApprovalPending {
		return ErrAlreadyProcessed
	}
	r.Status = ApprovalRejected
	r.ApprovedBy = &approver
	r.ApprovedAt = &at
	r.Comment = comment
	return nil
}
