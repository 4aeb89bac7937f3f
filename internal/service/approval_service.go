package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

// --- DTOs ---

type CreateApprovalRequestDTO struct {
	Kind        string                 `json:"kind" binding:"required,oneof=DELETE UPDATE"`
	TargetKind  string                 `json:"target_kind" binding:"required"`
	TargetID    string                 `json:"target_id" binding:"required,uuid"`
	NewData     map[string]interface{} `json:"new_data"` // field -> value, UPDATE only
	Comment     string                 `json:"comment"`
	RequestedBy string                 `json:"-"` // taken from the auth context, never the body
}

type ApprovalFilter struct {
	Status     string // PENDING, APPROVED, REJECTED or empty for all
	TargetKind string // CUSTOMER, SUPPLIER or empty for all
	Page       int
	Limit      int
}

type RejectRequestDTO struct {
	Comment string `json:"comment"`
}

type ApprovalRequestResponse struct {
	ID            string          `json:"id"`
	Kind          string          `json:"kind"`
	TargetKind    string          `json:"target_kind"`
	TargetID      string          `json:"target_id"`
	OldData       json.RawMessage `json:"old_data,omitempty"`
	NewData       json.RawMessage `json:"new_data,omitempty"`
	Status        string          `json:"status"`
	RequestedBy   *string         `json:"requested_by"`
	RequesterName string          `json:"requester_name"`
	ApprovedBy    *string         `json:"approved_by"`
	ApproverName  string          `json:"approver_name"`
	ApprovedAt    *string         `json:"approved_at"`
	Comment       string          `json:"comment"`
	CreatedAt     string          `json:"created_at"`
}

// --- Interface ---

type ApprovalService interface {
	CreateRequest(ctx context.Context, req CreateApprovalRequestDTO) (ApprovalRequestResponse, error)
	ListRequests(ctx context.Context, filter ApprovalFilter) ([]ApprovalRequestResponse, int64, error)
	GetRequest(ctx context.Context, id string) (ApprovalRequestResponse, error)
	Approve(ctx context.Context, id, userID string) (ApprovalRequestResponse, error)
	Reject(ctx context.Context, id, userID, comment string) (ApprovalRequestResponse, error)
}

type approvalService struct {
	approvals     repository.ApprovalRepository
	audits        repository.AuditRepository
	users         repository.UserRepository
	targets       TargetRegistry
	txManager     repository.TransactionManager
	notifications NotificationService
	log           zerolog.Logger
}

func NewApprovalService(
	approvals repository.ApprovalRepository,
	audits repository.AuditRepository,
	users repository.UserRepository,
	targets TargetRegistry,
	txManager repository.TransactionManager,
	notifications NotificationService,
	log zerolog.Logger,
) ApprovalService {
	return &approvalService{
		approvals:     approvals,
		audits:        audits,
		users:         users,
		targets:       targets,
		txManager:     txManager,
		notifications: notifications,
		log:           log,
	}
}

// --- Implementation ---

func (s *approvalService) CreateRequest(ctx context.Context, req CreateApprovalRequestDTO) (ApprovalRequestResponse, error) {
	target, err := s.targets.Resolve(req.TargetKind)
	if err != nil {
		return ApprovalRequestResponse{}, err
	}

	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		return ApprovalRequestResponse{}, fmt.Errorf("%w: invalid target_id", ErrInvalidInput)
	}

	var requesterID *uuid.UUID
	if req.RequestedBy != "" {
		parsed, parseErr := uuid.Parse(req.RequestedBy)
		if parseErr != nil {
			return ApprovalRequestResponse{}, fmt.Errorf("%w: invalid requester id", ErrInvalidInput)
		}
		requesterID = &parsed
	}

	snapshot, label, err := target.Snapshot(ctx, targetID)
	if err != nil {
		return ApprovalRequestResponse{}, err
	}

	approval := model.ApprovalRequest{
		Kind:        req.Kind,
		TargetKind:  req.TargetKind,
		TargetID:    targetID,
		Status:      model.ApprovalPending,
		RequestedBy: requesterID,
		Comment:     req.Comment,
	}

	if req.Kind == model.ApprovalKindUpdate {
		if len(req.NewData) == 0 {
			return ApprovalRequestResponse{}, fmt.Errorf("%w: update request needs new_data", ErrInvalidInput)
		}
		oldData := make(map[string]interface{}, len(req.NewData))
		for field := range req.NewData {
			oldData[field] = snapshot[field]
		}
		oldJSON, _ := json.Marshal(oldData)
		newJSON, _ := json.Marshal(req.NewData)
		approval.OldData = string(oldJSON)
		approval.NewData = string(newJSON)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		pending, pendingErr := s.approvals.HasPendingForTarget(txCtx, req.Kind, req.TargetKind, targetID)
		if pendingErr != nil {
			return pendingErr
		}
		if pending {
			return ErrDuplicatePending
		}

		if createErr := s.approvals.Create(txCtx, &approval); createErr != nil {
			return fmt.Errorf("failed to create approval request: %w", createErr)
		}

		if req.Kind == model.ApprovalKindDelete {
			if flagErr := target.SetDeleteRequested(txCtx, targetID, true); flagErr != nil {
				return fmt.Errorf("failed to flag target for deletion: %w", flagErr)
			}
		}

		return s.writeAudit(txCtx, requesterID, model.ActionCreateApprovalRequest, approval, label, nil)
	})
	if err != nil {
		return ApprovalRequestResponse{}, err
	}

	s.notifyApprovers(ctx, approval, label)

	reloaded, err := s.approvals.FindByIDWithRelations(ctx, approval.ID)
	if err != nil {
		return ApprovalRequestResponse{}, fmt.Errorf("failed to reload approval request: %w", err)
	}

	return toApprovalResponse(*reloaded), nil
}

func (s *approvalService) ListRequests(ctx context.Context, filter ApprovalFilter) ([]ApprovalRequestResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	approvals, total, err := s.approvals.List(ctx, filter.Status, filter.TargetKind, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch approval requests: %w", err)
	}

	result := make([]ApprovalRequestResponse, 0, len(approvals))
	for _, a := range approvals {
		result = append(result, toApprovalResponse(a))
	}

	return result, total, nil
}

func (s *approvalService) GetRequest(ctx context.Context, id string) (ApprovalRequestResponse, error) {
	approvalID, err := uuid.Parse(id)
	if err != nil {
		return ApprovalRequestResponse{}, fmt.Errorf("%w: invalid approval request id", ErrInvalidInput)
	}

	approval, err := s.approvals.FindByIDWithRelations(ctx, approvalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ApprovalRequestResponse{}, ErrNotFound
		}
		return ApprovalRequestResponse{}, err
	}

	return toApprovalResponse(*approval), nil
}

func (s *approvalService) Approve(ctx context.Context, id, userID string) (ApprovalRequestResponse, error) {
	approvalID, approverID, err := s.checkReviewer(ctx, id, userID)
	if err != nil {
		return ApprovalRequestResponse{}, err
	}

	var approval *model.ApprovalRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		approval, txErr = s.approvals.FindByIDForUpdate(txCtx, approvalID)
		if txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return txErr
		}

		now := time.Now()
		if markErr := approval.MarkApproved(approverID, now); markErr != nil {
			return markErr
		}

		target, resolveErr := s.targets.Resolve(approval.TargetKind)
		if resolveErr != nil {
			return resolveErr
		}

		switch approval.Kind {
		case model.ApprovalKindDelete:
			if delErr := target.SoftDelete(txCtx, approval.TargetID, now); delErr != nil {
				return fmt.Errorf("failed to apply delete: %w", delErr)
			}
		case model.ApprovalKindUpdate:
			fields, parseErr := parsePatch(approval.NewData)
			if parseErr != nil {
				return parseErr
			}
			if patchErr := target.ApplyPatch(txCtx, approval.TargetID, fields); patchErr != nil {
				return fmt.Errorf("failed to apply update: %w", patchErr)
			}
		default:
			return fmt.Errorf("%w: unknown request kind %q", ErrInvalidInput, approval.Kind)
		}

		if saveErr := s.approvals.Update(txCtx, approval); saveErr != nil {
			return fmt.Errorf("failed to update approval request: %w", saveErr)
		}

		return s.writeAudit(txCtx, &approverID, model.ActionApproveRequest, *approval, "", nil)
	})
	if err != nil {
		return ApprovalRequestResponse{}, err
	}

	s.notifyRequester(ctx, *approval, "approved", "")

	reloaded, err := s.approvals.FindByIDWithRelations(ctx, approval.ID)
	if err != nil {
		return ApprovalRequestResponse{}, fmt.Errorf("failed to reload approval request: %w", err)
	}

	return toApprovalResponse(*reloaded), nil
}

func (s *approvalService) Reject(ctx context.Context, id, userID, comment string) (ApprovalRequestResponse, error) {
	approvalID, approverID, err := s.checkReviewer(ctx, id, userID)
	if err != nil {
		return ApprovalRequestResponse{}, err
	}

	var approval *model.ApprovalRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		approval, txErr = s.approvals.FindByIDForUpdate(txCtx, approvalID)
		if txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return txErr
		}

		now := time.Now()
		if markErr := approval.MarkRejected(approverID, comment, now); markErr != nil {
			return markErr
		}

		// A rejected delete request releases the pending-deletion flag
		if approval.Kind == model.ApprovalKindDelete {
			target, resolveErr := s.targets.Resolve(approval.TargetKind)
			if resolveErr != nil {
				return resolveErr
			}
			if flagErr := target.SetDeleteRequested(txCtx, approval.TargetID, false); flagErr != nil {
				return fmt.Errorf("failed to clear deletion flag: %w", flagErr)
			}
		}

		if saveErr := s.approvals.Update(txCtx, approval); saveErr != nil {
			return fmt.Errorf("failed to update approval request: %w", saveErr)
		}

		return s.writeAudit(txCtx, &approverID, model.ActionRejectRequest, *approval, "", map[string]interface{}{"comment": comment})
	})
	if err != nil {
		return ApprovalRequestResponse{}, err
	}

	s.notifyRequester(ctx, *approval, "rejected", comment)

	reloaded, err := s.approvals.FindByIDWithRelations(ctx, approval.ID)
	if err != nil {
		return ApprovalRequestResponse{}, fmt.Errorf("failed to reload approval request: %w", err)
	}

	return toApprovalResponse(*reloaded), nil
}

// checkReviewer parses ids and verifies the acting user holds an approver role.
func (s *approvalService) checkReviewer(ctx context.Context, id, userID string) (uuid.UUID, uuid.UUID, error) {
	approvalID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: invalid approval request id", ErrInvalidInput)
	}

	approverID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: invalid user id", ErrInvalidInput)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, uuid.Nil, ErrPermissionDenied
		}
		return uuid.Nil, uuid.Nil, err
	}
	if !user.IsApprover() {
		return uuid.Nil, uuid.Nil, ErrPermissionDenied
	}

	return approvalID, approverID, nil
}

func (s *approvalService) writeAudit(ctx context.Context, userID *uuid.UUID, action string, approval model.ApprovalRequest, label string, extra map[string]interface{}) error {
	payload := map[string]interface{}{
		"kind":        approval.Kind,
		"target_kind": approval.TargetKind,
		"target_id":   approval.TargetID.String(),
	}
	for k, v := range extra {
		payload[k] = v
	}
	details, _ := json.Marshal(payload)

	entityName := label
	if entityName == "" {
		entityName = approval.TargetKind
	}

	entry := model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   approval.ID.String(),
		EntityName: entityName,
		Details:    string(details),
	}
	if err := s.audits.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// notifyApprovers fans a new-request notification out to every approver.
// Runs after commit; failures are logged inside the notification service.
func (s *approvalService) notifyApprovers(ctx context.Context, approval model.ApprovalRequest, label string) {
	approvers, err := s.users.ListApprovers(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list approvers for notification")
		return
	}

	ids := make([]uuid.UUID, 0, len(approvers))
	for _, u := range approvers {
		// The requester does not need to be told about their own request
		if approval.RequestedBy != nil && u.ID == *approval.RequestedBy {
			continue
		}
		ids = append(ids, u.ID)
	}

	title := fmt.Sprintf("New %s request", approval.Kind)
	body := fmt.Sprintf("%s request for %s %q awaits review", approval.Kind, approval.TargetKind, label)
	s.notifications.NotifyMany(ctx, ids, title, body)
}

func (s *approvalService) notifyRequester(ctx context.Context, approval model.ApprovalRequest, outcome, comment string) {
	if approval.RequestedBy == nil {
		return
	}
	title := fmt.Sprintf("Request %s", outcome)
	body := fmt.Sprintf("Your %s request for %s was %s", approval.Kind, approval.TargetKind, outcome)
	if comment != "" {
		body += ": " + comment
	}
	s.notifications.Notify(ctx, *approval.RequestedBy, title, body)
}

func parsePatch(raw string) (map[string]interface{}, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("%w: malformed update payload", ErrInvalidInput)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty update payload", ErrInvalidInput)
	}
	return fields, nil
}

// --- Helpers ---

func toApprovalResponse(a model.ApprovalRequest) ApprovalRequestResponse {
	resp := ApprovalRequestResponse{
		ID:         a.ID.String(),
		Kind:       a.Kind,
		TargetKind: a.TargetKind,
		TargetID:   a.TargetID.String(),
		Status:     a.Status,
		Comment:    a.Comment,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
	}

	if a.OldData != "" {
		resp.OldData = json.RawMessage(a.OldData)
	}
	if a.NewData != "" {
		resp.NewData = json.RawMessage(a.NewData)
	}
	if a.RequestedBy != nil {
		s := a.RequestedBy.String()
		resp.RequestedBy = &s
	}
	if a.Requester != nil {
		resp.RequesterName = a.Requester.Username
	}
	if a.ApprovedBy != nil {
		s := a.ApprovedBy.String()
		resp.ApprovedBy = &s
	}
	if a.Approver != nil {
		resp.ApproverName = a.Approver.Username
	}
	if a.ApprovedAt != nil {
		s := a.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &s
	}

	return resp
}
