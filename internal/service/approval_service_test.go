package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"backoffice/internal/model"
	"backoffice/internal/service"
)

// --- Test doubles ---

// passthroughTx runs the callback directly, no transaction semantics needed
// for in-memory doubles.
type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type memApprovalRepo struct {
	byID       map[uuid.UUID]*model.ApprovalRequest
	hasPending bool
}

func newMemApprovalRepo() *memApprovalRepo {
	return &memApprovalRepo{byID: make(map[uuid.UUID]*model.ApprovalRequest)}
}

func (r *memApprovalRepo) Create(_ context.Context, req *model.ApprovalRequest) error {
	req.ID = uuid.New()
	req.CreatedAt = time.Now()
	stored := *req
	r.byID[req.ID] = &stored
	return nil
}

func (r *memApprovalRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ApprovalRequest, error) {
	req, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *req
	return &copied, nil
}

func (r *memApprovalRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error) {
	return r.FindByID(ctx, id)
}

func (r *memApprovalRepo) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error) {
	return r.FindByID(ctx, id)
}

func (r *memApprovalRepo) HasPendingForTarget(_ context.Context, _, _ string, _ uuid.UUID) (bool, error) {
	return r.hasPending, nil
}

func (r *memApprovalRepo) List(_ context.Context, status, targetKind string, _, _ int) ([]model.ApprovalRequest, int64, error) {
	var out []model.ApprovalRequest
	for _, req := range r.byID {
		if status != "" && req.Status != status {
			continue
		}
		if targetKind != "" && req.TargetKind != targetKind {
			continue
		}
		out = append(out, *req)
	}
	return out, int64(len(out)), nil
}

func (r *memApprovalRepo) Update(_ context.Context, req *model.ApprovalRequest) error {
	stored := *req
	r.byID[req.ID] = &stored
	return nil
}

type memAuditRepo struct {
	entries []model.AuditLog
}

func (r *memAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memAuditRepo) List(_ context.Context, _ string, _, _ int) ([]model.AuditLog, int64, error) {
	return r.entries, int64(len(r.entries)), nil
}

type memUserRepo struct {
	byID      map[string]*model.User
	tokens    map[string]*model.RefreshToken
	approvers []model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byID:   make(map[string]*model.User),
		tokens: make(map[string]*model.RefreshToken),
	}
}

func (r *memUserRepo) add(u model.User) model.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	stored := u
	r.byID[u.ID.String()] = &stored
	if stored.IsApprover() {
		r.approvers = append(r.approvers, stored)
	}
	return stored
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	*user = r.add(*user)
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) List(_ context.Context, _ string, _, _ int) ([]model.User, int64, error) {
	return nil, 0, nil
}

func (r *memUserRepo) ListApprovers(_ context.Context) ([]model.User, error) {
	return r.approvers, nil
}

func (r *memUserRepo) Update(_ context.Context, _ *model.User) error { return nil }
func (r *memUserRepo) Delete(_ context.Context, _ string) error      { return nil }

func (r *memUserRepo) SaveRefreshToken(_ context.Context, token *model.RefreshToken) error {
	stored := *token
	r.tokens[token.Token] = &stored
	return nil
}

func (r *memUserRepo) GetRefreshToken(_ context.Context, token string) (*model.RefreshToken, error) {
	stored, ok := r.tokens[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return stored, nil
}

func (r *memUserRepo) DeleteRefreshToken(_ context.Context, token string) error {
	delete(r.tokens, token)
	return nil
}

// recordingTarget captures the side effects the workflow applies to an entity.
type recordingTarget struct {
	snapshot map[string]interface{}
	label    string

	deleteRequested []bool
	softDeleted     bool
	patched         map[string]interface{}
}

func (t *recordingTarget) Snapshot(_ context.Context, _ uuid.UUID) (map[string]interface{}, string, error) {
	if t.snapshot == nil {
		return nil, "", service.ErrNotFound
	}
	return t.snapshot, t.label, nil
}

func (t *recordingTarget) SetDeleteRequested(_ context.Context, _ uuid.UUID, requested bool) error {
	t.deleteRequested = append(t.deleteRequested, requested)
	return nil
}

func (t *recordingTarget) SoftDelete(_ context.Context, _ uuid.UUID, _ time.Time) error {
	t.softDeleted = true
	return nil
}

func (t *recordingTarget) ApplyPatch(_ context.Context, _ uuid.UUID, fields map[string]interface{}) error {
	t.patched = fields
	return nil
}

type sentNotification struct {
	userIDs []uuid.UUID
	title   string
	body    string
}

type recordingNotifier struct {
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, userID uuid.UUID, title, body string) {
	n.sent = append(n.sent, sentNotification{userIDs: []uuid.UUID{userID}, title: title, body: body})
}

func (n *recordingNotifier) NotifyMany(_ context.Context, userIDs []uuid.UUID, title, body string) {
	n.sent = append(n.sent, sentNotification{userIDs: userIDs, title: title, body: body})
}

func (n *recordingNotifier) ListForUser(_ context.Context, _ uuid.UUID, _ bool, _, _ int) ([]model.Notification, int64, error) {
	return nil, 0, nil
}

func (n *recordingNotifier) MarkRead(_ context.Context, _, _ uuid.UUID) error { return nil }
func (n *recordingNotifier) MarkAllRead(_ context.Context, _ uuid.UUID) error { return nil }

// --- Fixture ---

type approvalFixture struct {
	svc       service.ApprovalService
	approvals *memApprovalRepo
	audits    *memAuditRepo
	users     *memUserRepo
	target    *recordingTarget
	notifier  *recordingNotifier

	requester model.User
	manager   model.User
	employee  model.User
}

func newApprovalFixture() *approvalFixture {
	f := &approvalFixture{
		approvals: newMemApprovalRepo(),
		audits:    &memAuditRepo{},
		users:     newMemUserRepo(),
		notifier:  &recordingNotifier{},
		target: &recordingTarget{
			label: "Al Noor Trading",
			snapshot: map[string]interface{}{
				"full_name_english": "Al Noor Trading",
				"email":             "info@alnoor.example",
				"phone":             "+971500000001",
			},
		},
	}

	f.requester = f.users.add(model.User{Username: "rita", Role: model.RoleEmployee})
	f.manager = f.users.add(model.User{Username: "maahir", Role: model.RoleManager})
	f.employee = f.users.add(model.User{Username: "eman", Role: model.RoleEmployee})

	registry := service.TargetRegistry{model.TargetKindCustomer: f.target}
	f.svc = service.NewApprovalService(
		f.approvals, f.audits, f.users, registry,
		passthroughTx{}, f.notifier, zerolog.Nop(),
	)
	return f
}

// --- Tests ---

func TestCreateRequest_Update_CapturesOldValues(t *testing.T) {
	f := newApprovalFixture()

	resp, err := f.svc.CreateRequest(context.Background(), service.CreateApprovalRequestDTO{
		Kind:        model.ApprovalKindUpdate,
		TargetKind:  model.TargetKindCustomer,
		TargetID:    uuid.NewString(),
		NewData:     map[string]interface{}{"email": "sales@alnoor.example"},
		RequestedBy: f.requester.ID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, model.ApprovalPending, resp.Status)
	assert.Equal(t, model.ApprovalKindUpdate, resp.Kind)

	// old_data holds only the fields being changed, valued from the snapshot
	var oldData map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.OldData, &oldData))
	assert.Equal(t, map[string]interface{}{"email": "info@alnoor.example"}, oldData)

	var newData map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.NewData, &newData))
	assert.Equal(t, map[string]interface{}{"email": "sales@alnoor.example"}, newData)

	// nothing is applied to the entity until approval
	assert.Empty(t, f.target.deleteRequested)
	assert.Nil(t, f.target.patched)

	require.Len(t, f.audits.entries, 1)
	assert.Equal(t, model.ActionCreateApprovalRequest, f.audits.entries[0].Action)
	assert.Equal(t, "Al Noor Trading", f.audits.entries[0].EntityName)
}

func TestCreateRequest_Update_RequiresNewData(t *testing.T) {
	f := newApprovalFixture()

	_, err := f.svc.CreateRequest(context.Background(), service.CreateApprovalRequestDTO{
		Kind:       model.ApprovalKindUpdate,
		TargetKind: model.TargetKindCustomer,
		TargetID:   uuid.NewString(),
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestCreateRequest_Delete_FlagsTarget(t *testing.T) {
	f := newApprovalFixture()

	resp, err := f.svc.CreateRequest(context.Background(), service.CreateApprovalRequestDTO{
		Kind:        model.ApprovalKindDelete,
		TargetKind:  model.TargetKindCustomer,
		TargetID:    uuid.NewString(),
		RequestedBy: f.requester.ID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, model.ApprovalPending, resp.Status)
	assert.Equal(t, []bool{true}, f.target.deleteRequested)
	assert.False(t, f.target.softDeleted)
}

func TestCreateRequest_DuplicatePending(t *testing.T) {
	f := newApprovalFixture()
	f.approvals.hasPending = true

	_, err := f.svc.CreateRequest(context.Background(), service.CreateApprovalRequestDTO{
		Kind:       model.ApprovalKindDelete,
		TargetKind: model.TargetKindCustomer,
		TargetID:   uuid.NewString(),
	})
	assert.ErrorIs(t, err, service.ErrDuplicatePending)
	assert.Empty(t, f.approvals.byID)
}

func TestCreateRequest_UnknownTargetKind(t *testing.T) {
	f := newApprovalFixture()

	_, err := f.svc.CreateRequest(context.Background(), service.CreateApprovalRequestDTO{
		Kind:       model.ApprovalKindDelete,
		TargetKind: "WAREHOUSE",
		TargetID:   uuid.NewString(),
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestCreateRequest_NotifiesApproversExceptRequester(t *testing.T) {
	f := newApprovalFixture()
	// promote the requester so the skip rule is observable
	supervisor := f.users.add(model.User{Username: "sami", Role: model.RoleSupervisor})

	_, err := f.svc.CreateRequest(context.Background(), service.CreateApprovalRequestDTO{
		Kind:        model.ApprovalKindDelete,
		TargetKind:  model.TargetKindCustomer,
		TargetID:    uuid.NewString(),
		RequestedBy: supervisor.ID.String(),
	})
	require.NoError(t, err)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, []uuid.UUID{f.manager.ID}, f.notifier.sent[0].userIDs)
	assert.Contains(t, f.notifier.sent[0].body, "Al Noor Trading")
}

func TestApprove_Delete_SoftDeletesTarget(t *testing.T) {
	f := newApprovalFixture()

	created, err := f.svc.CreateRequest(context.Background(), service.CreateApprovalRequestDTO{
		Kind:        model.ApprovalKindDelete,
		TargetKind:  model.TargetKindCustomer,
		TargetID:    uuid.NewString(),
		RequestedBy: f.requester.ID.String(),
	})
	require.NoError(t, err)

	resp, err := f.svc.Approve(context.Background(), created.ID, f.manager.ID.String())
	require.NoError(t, err)

	assert.Equal(t, model.ApprovalApproved, resp.Status)
	assert.True(t, f.target.softDeleted)
	require.NotNil(t, resp.ApprovedBy)
	assert.Equal(t, f.manager.ID.String(), *resp.ApprovedBy)
	assert.NotNil(t, resp.ApprovedAt)

	// requester is told the outcome
	last := f.notifier.sent[len(f.notifier.sent)-1]
	assert.Equal(t, []uuid.UUID{f.requester.ID}, last.userIDs)
	assert.Contains(t, last.title, "approved")
}

func TestApprove_Update_AppliesPatch(t *testing.T) {
	f := newApprovalFixture()

	created, err := f.svc.CreateRequest(context.Background(), service.CreateApprovalRequestDTO{
		Kind:        model.ApprovalKindUpdate,
		TargetKind:  model.TargetKindCustomer,
		TargetID:    uuid.NewString(),
		NewData:     map[string]interface{}{"phone": "+971500000099"},
		RequestedBy: f.requester.ID.String(),
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), created.ID, f.manager.ID.String())
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{"phone": "+971500000099"}, f.target.patched)
	assert.False(t, f.target.softDeleted)
}

func TestApprove_RequiresApproverRole(t *testing.T) {
	f := newApprovalFixture()

	created, err := f.svc.CreateRequest(context.Background(), service.CreateApprovalRequestDTO{
		Kind:       model.ApprovalKindDelete,
		TargetKind: model.TargetKindCustomer,
		TargetID:   uuid.NewString(),
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), created.ID, f.employee.ID.String())
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	_, err = f.svc.Approve(context.Background(), created.ID, uuid.NewString())
	assert.ErrorIs(t, err, service.ErrPermissionDenied)
}

func TestApprove_AlreadyProcessed(t *testing.T) {
	f := newApprovalFixture()

	created, err := f.svc.CreateRequest(context.Background(), service.CreateApprovalRequestDTO{
		Kind:       model.ApprovalKindDelete,
		TargetKind: model.TargetKindCustomer,
		TargetID:   uuid.NewString(),
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), created.ID, f.manager.ID.String())
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), created.ID, f.manager.ID.String())
	assert.ErrorIs(t, err, model.ErrAlreadyProcessed)

	_, err = f.svc.Reject(context.Background(), created.ID, f.manager.ID.String(), "changed my mind")
	assert.ErrorIs(t, err, model.ErrAlreadyProcessed)
}

func TestApprove_NotFound(t *testing.T) {
	f := newApprovalFixture()

	_, err := f.svc.Approve(context.Background(), uuid.NewString(), f.manager.ID.String())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestReject_Delete_ClearsDeletionFlag(t *testing.T) {
	f := newApprovalFixture()

	created, err := f.svc.CreateRequest(context.Background(), service.CreateApprovalRequestDTO{
		Kind:        model.ApprovalKindDelete,
		TargetKind:  model.TargetKindCustomer,
		TargetID:    uuid.NewString(),
		RequestedBy: f.requester.ID.String(),
	})
	require.NoError(t, err)

	resp, err := f.svc.Reject(context.Background(), created.ID, f.manager.ID.String(), "customer still has open projects")
	require.NoError(t, err)

	assert.Equal(t, model.ApprovalRejected, resp.Status)
	assert.Equal(t, "customer still has open projects", resp.Comment)
	// flag raised on create, released on reject
	assert.Equal(t, []bool{true, false}, f.target.deleteRequested)
	assert.False(t, f.target.softDeleted)

	last := f.notifier.sent[len(f.notifier.sent)-1]
	assert.Equal(t, []uuid.UUID{f.requester.ID}, last.userIDs)
	assert.Contains(t, last.body, "customer still has open projects")
}

func TestListRequests_FilterByStatus(t *testing.T) {
	f := newApprovalFixture()

	first, err := f.svc.CreateRequest(context.Background(), service.CreateApprovalRequestDTO{
		Kind:       model.ApprovalKindDelete,
		TargetKind: model.TargetKindCustomer,
		TargetID:   uuid.NewString(),
	})
	require.NoError(t, err)
	_, err = f.svc.Approve(context.Background(), first.ID, f.manager.ID.String())
	require.NoError(t, err)

	_, err = f.svc.CreateRequest(context.Background(), service.CreateApprovalRequestDTO{
		Kind:       model.ApprovalKindUpdate,
		TargetKind: model.TargetKindCustomer,
		TargetID:   uuid.NewString(),
		NewData:    map[string]interface{}{"email": "x@y.example"},
	})
	require.NoError(t, err)

	pending, total, err := f.svc.ListRequests(context.Background(), service.ApprovalFilter{Status: model.ApprovalPending})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, pending, 1)
	assert.Equal(t, model.ApprovalKindUpdate, pending[0].Kind)
}
