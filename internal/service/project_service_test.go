package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"backoffice/internal/model"
	"backoffice/internal/service"
)

// --- Test doubles ---

type memProjectRepo struct {
	byID map[uuid.UUID]*model.Project
}

func newMemProjectRepo() *memProjectRepo {
	return &memProjectRepo{byID: make(map[uuid.UUID]*model.Project)}
}

func (r *memProjectRepo) Create(_ context.Context, project *model.Project) error {
	project.ID = uuid.New()
	if project.ProjectCode == "" {
		project.ProjectCode = "PRJ-00001"
	}
	stored := *project
	r.byID[project.ID] = &stored
	return nil
}

func (r *memProjectRepo) Update(_ context.Context, project *model.Project) error {
	existing, ok := r.byID[project.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	updated := *project
	updated.VariationOrders = existing.VariationOrders
	updated.Payments = existing.Payments
	r.byID[project.ID] = &updated
	return nil
}

func (r *memProjectRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memProjectRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Project, error) {
	project, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *project
	return &copied, nil
}

func (r *memProjectRepo) List(_ context.Context, _, _ string, _, _ int) ([]model.Project, int64, error) {
	var out []model.Project
	for _, p := range r.byID {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *memProjectRepo) AddVariation(_ context.Context, vo *model.VariationOrder) error {
	project, ok := r.byID[vo.ProjectID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for _, existing := range project.VariationOrders {
		if existing.VariationNumber == vo.VariationNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	vo.ID = uuid.New()
	project.VariationOrders = append(project.VariationOrders, *vo)
	return nil
}

func (r *memProjectRepo) UpdateVariation(_ context.Context, vo *model.VariationOrder) error {
	project, ok := r.byID[vo.ProjectID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range project.VariationOrders {
		if project.VariationOrders[i].ID == vo.ID {
			project.VariationOrders[i] = *vo
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memProjectRepo) DeleteVariation(_ context.Context, projectID, variationID uuid.UUID) error {
	project, ok := r.byID[projectID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range project.VariationOrders {
		if project.VariationOrders[i].ID == variationID {
			project.VariationOrders = append(project.VariationOrders[:i], project.VariationOrders[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memProjectRepo) FindVariation(_ context.Context, projectID, variationID uuid.UUID) (*model.VariationOrder, error) {
	project, ok := r.byID[projectID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for i := range project.VariationOrders {
		if project.VariationOrders[i].ID == variationID {
			copied := project.VariationOrders[i]
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memProjectRepo) AddPayment(_ context.Context, payment *model.Payment) error {
	project, ok := r.byID[payment.ProjectID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	payment.ID = uuid.New()
	project.Payments = append(project.Payments, *payment)
	return nil
}

func (r *memProjectRepo) UpdatePayment(_ context.Context, payment *model.Payment) error {
	project, ok := r.byID[payment.ProjectID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range project.Payments {
		if project.Payments[i].ID == payment.ID {
			project.Payments[i] = *payment
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memProjectRepo) DeletePayment(_ context.Context, projectID, paymentID uuid.UUID) error {
	project, ok := r.byID[projectID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range project.Payments {
		if project.Payments[i].ID == paymentID {
			project.Payments = append(project.Payments[:i], project.Payments[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memProjectRepo) FindPayment(_ context.Context, projectID, paymentID uuid.UUID) (*model.Payment, error) {
	project, ok := r.byID[projectID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for i := range project.Payments {
		if project.Payments[i].ID == paymentID {
			copied := project.Payments[i]
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type memCustomerRepo struct {
	byID map[uuid.UUID]*model.Customer
}

func newMemCustomerRepo() *memCustomerRepo {
	return &memCustomerRepo{byID: make(map[uuid.UUID]*model.Customer)}
}

func (r *memCustomerRepo) add(c model.Customer) model.Customer {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	stored := c
	r.byID[c.ID] = &stored
	return stored
}

func (r *memCustomerRepo) Create(_ context.Context, customer *model.Customer) error {
	*customer = r.add(*customer)
	return nil
}

func (r *memCustomerRepo) Update(_ context.Context, customer *model.Customer) error {
	stored := *customer
	r.byID[customer.ID] = &stored
	return nil
}

func (r *memCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *memCustomerRepo) List(_ context.Context, _, _ string, _, _ int) ([]model.Customer, int64, error) {
	return nil, 0, nil
}

func (r *memCustomerRepo) SetDeleteRequested(_ context.Context, id uuid.UUID, requested bool) error {
	c, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.DeleteRequested = requested
	return nil
}

func (r *memCustomerRepo) SoftDelete(_ context.Context, id uuid.UUID, at time.Time) error {
	c, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.DeletedAt = &at
	return nil
}

func (r *memCustomerRepo) ApplyPatch(_ context.Context, _ uuid.UUID, _ map[string]interface{}) error {
	return nil
}

// --- Fixture ---

type projectFixture struct {
	svc        service.ProjectService
	projects   *memProjectRepo
	customers  *memCustomerRepo
	audits     *memAuditRepo
	owner      model.Customer
	consultant model.Customer
}

func newProjectFixture() *projectFixture {
	f := &projectFixture{
		projects:  newMemProjectRepo(),
		customers: newMemCustomerRepo(),
		audits:    &memAuditRepo{},
	}
	f.owner = f.customers.add(model.Customer{
		CustomerType:    model.CustomerTypeOwner,
		FullNameEnglish: "Hamdan Properties",
	})
	f.consultant = f.customers.add(model.Customer{
		CustomerType:    model.CustomerTypeConsultant,
		FullNameEnglish: "Sila Engineering",
	})
	f.svc = service.NewProjectService(f.projects, f.customers, f.audits)
	return f
}

func (f *projectFixture) createProject(t *testing.T) *service.ProjectDetail {
	t.Helper()

	base := decimal.RequireFromString("1000000")
	completion := decimal.RequireFromString("50")
	rate := decimal.RequireFromString("10")
	start := "2025-01-15"
	months := 24

	detail, err := f.svc.Create(context.Background(), service.CreateProjectRequest{
		BankProjectNumber:    4711,
		OwnerID:              f.owner.ID.String(),
		ConsultantID:         f.consultant.ID.String(),
		MainContractor:       "Desert Build LLC",
		StartDate:            &start,
		DurationMonths:       &months,
		BaseContractValue:    &base,
		CompletionPercentage: &completion,
		ConsultantPercentage: &rate,
	}, nil)
	require.NoError(t, err)
	return detail
}

// --- Tests ---

func TestProjectCreate_DerivesSnapshot(t *testing.T) {
	f := newProjectFixture()

	detail := f.createProject(t)

	assert.Equal(t, 4711, detail.Project.BankProjectNumber)
	require.NotNil(t, detail.Snapshot.ActualContractAmount)
	assert.Equal(t, "500000.00", detail.Snapshot.ActualContractAmount.StringFixed(2))
	require.NotNil(t, detail.Snapshot.ConsultantFeeAmount)
	assert.Equal(t, "50000.00", detail.Snapshot.ConsultantFeeAmount.StringFixed(2))

	require.Len(t, f.audits.entries, 1)
	assert.Equal(t, model.ActionCreateProject, f.audits.entries[0].Action)
}

func TestProjectCreate_OwnerMustBeOwnerType(t *testing.T) {
	f := newProjectFixture()

	_, err := f.svc.Create(context.Background(), service.CreateProjectRequest{
		BankProjectNumber: 1,
		OwnerID:           f.consultant.ID.String(), // wrong type
		ConsultantID:      f.consultant.ID.String(),
	}, nil)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestProjectCreate_DeletedCustomerRejected(t *testing.T) {
	f := newProjectFixture()
	now := time.Now()
	require.NoError(t, f.customers.SoftDelete(context.Background(), f.owner.ID, now))

	_, err := f.svc.Create(context.Background(), service.CreateProjectRequest{
		BankProjectNumber: 1,
		OwnerID:           f.owner.ID.String(),
		ConsultantID:      f.consultant.ID.String(),
	}, nil)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestProjectUpdate_PatchesOnlySubmittedFields(t *testing.T) {
	f := newProjectFixture()
	detail := f.createProject(t)

	patch := service.UpdateProjectRequest{
		"completion_percentage": json.RawMessage(`"75"`),
		"notes":                 json.RawMessage(`"phase two underway"`),
	}
	updated, err := f.svc.Update(context.Background(), detail.Project.ID.String(), patch, nil)
	require.NoError(t, err)

	assert.Equal(t, "75", updated.Project.CompletionPercentage.String())
	assert.Equal(t, "phase two underway", updated.Project.Notes)
	// untouched fields keep their values
	assert.Equal(t, "Desert Build LLC", updated.Project.MainContractor)
	assert.Equal(t, "750000.00", updated.Snapshot.ActualContractAmount.StringFixed(2))
}

func TestProjectUpdate_UnknownFieldRejected(t *testing.T) {
	f := newProjectFixture()
	detail := f.createProject(t)

	_, err := f.svc.Update(context.Background(), detail.Project.ID.String(), service.UpdateProjectRequest{
		"favourite_colour": json.RawMessage(`"blue"`),
	}, nil)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestProjectUpdate_BadDateRejected(t *testing.T) {
	f := newProjectFixture()
	detail := f.createProject(t)

	_, err := f.svc.Update(context.Background(), detail.Project.ID.String(), service.UpdateProjectRequest{
		"start_date": json.RawMessage(`"15/01/2025"`),
	}, nil)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestAddVariation_AffectsDerivedTotals(t *testing.T) {
	f := newProjectFixture()
	detail := f.createProject(t)

	updated, err := f.svc.AddVariation(context.Background(), detail.Project.ID.String(), service.CreateVariationRequest{
		VariationNumber: "VO-1",
		Amount:          decimal.RequireFromString("50000"),
	})
	require.NoError(t, err)

	assert.Equal(t, "50000.00", updated.Snapshot.VariationsTotalAmount.StringFixed(2))
	// falls back to the project consultant rate
	assert.Equal(t, "5000.00", updated.Snapshot.VariationsTotalConsultantFees.StringFixed(2))
	require.NotNil(t, updated.Snapshot.ContractPlusVariations)
	assert.Equal(t, "1050000.00", updated.Snapshot.ContractPlusVariations.StringFixed(2))
}

func TestAddVariation_DuplicateNumberRejected(t *testing.T) {
	f := newProjectFixture()
	detail := f.createProject(t)

	_, err := f.svc.AddVariation(context.Background(), detail.Project.ID.String(), service.CreateVariationRequest{
		VariationNumber: "VO-1",
		Amount:          decimal.RequireFromString("50000"),
	})
	require.NoError(t, err)

	_, err = f.svc.AddVariation(context.Background(), detail.Project.ID.String(), service.CreateVariationRequest{
		VariationNumber: "VO-1",
		Amount:          decimal.RequireFromString("10000"),
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestUnapprovedVariation_ExcludedFromTotals(t *testing.T) {
	f := newProjectFixture()
	detail := f.createProject(t)

	notApproved := false
	updated, err := f.svc.AddVariation(context.Background(), detail.Project.ID.String(), service.CreateVariationRequest{
		VariationNumber: "VO-1",
		Amount:          decimal.RequireFromString("50000"),
		IsApproved:      &notApproved,
	})
	require.NoError(t, err)

	assert.True(t, updated.Snapshot.VariationsTotalAmount.IsZero())
}

func TestAddPayment_DefaultsSourceToClient(t *testing.T) {
	f := newProjectFixture()
	detail := f.createProject(t)

	updated, err := f.svc.AddPayment(context.Background(), detail.Project.ID.String(), service.CreatePaymentRequest{
		Date:   "2025-06-01",
		Amount: decimal.RequireFromString("200000"),
	})
	require.NoError(t, err)

	require.Len(t, updated.Project.Payments, 1)
	assert.Equal(t, model.PaymentSourceClient, updated.Project.Payments[0].Source)
	assert.Equal(t, "200000.00", updated.Snapshot.PaymentsTotalAmount.StringFixed(2))
}

func TestDeletePayment_NotFound(t *testing.T) {
	f := newProjectFixture()
	detail := f.createProject(t)

	err := f.svc.DeletePayment(context.Background(), detail.Project.ID.String(), uuid.NewString())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUpdatePayment_AdjustsDerivedTotals(t *testing.T) {
	f := newProjectFixture()
	detail := f.createProject(t)

	withPayment, err := f.svc.AddPayment(context.Background(), detail.Project.ID.String(), service.CreatePaymentRequest{
		Date:   "2025-06-01",
		Amount: decimal.RequireFromString("200000"),
	})
	require.NoError(t, err)
	paymentID := withPayment.Project.Payments[0].ID.String()

	newAmount := decimal.RequireFromString("150000")
	updated, err := f.svc.UpdatePayment(context.Background(), detail.Project.ID.String(), paymentID, service.UpdatePaymentRequest{
		Amount: &newAmount,
		Source: model.PaymentSourceBank,
	})
	require.NoError(t, err)

	require.Len(t, updated.Project.Payments, 1)
	assert.Equal(t, model.PaymentSourceBank, updated.Project.Payments[0].Source)
	assert.Equal(t, "150000.00", updated.Snapshot.PaymentsTotalAmount.StringFixed(2))
}

func TestUpdatePayment_NotFound(t *testing.T) {
	f := newProjectFixture()
	detail := f.createProject(t)

	newAmount := decimal.RequireFromString("150000")
	_, err := f.svc.UpdatePayment(context.Background(), detail.Project.ID.String(), uuid.NewString(), service.UpdatePaymentRequest{
		Amount: &newAmount,
	})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestAddPayment_NegativeAmountRejected(t *testing.T) {
	f := newProjectFixture()
	detail := f.createProject(t)

	_, err := f.svc.AddPayment(context.Background(), detail.Project.ID.String(), service.CreatePaymentRequest{
		Date:   "2025-06-01",
		Amount: decimal.RequireFromString("-5000"),
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	unchanged, err := f.svc.GetByID(context.Background(), detail.Project.ID.String())
	require.NoError(t, err)
	assert.Empty(t, unchanged.Project.Payments)
}

func TestUpdatePayment_NegativeAmountRejected(t *testing.T) {
	f := newProjectFixture()
	detail := f.createProject(t)

	withPayment, err := f.svc.AddPayment(context.Background(), detail.Project.ID.String(), service.CreatePaymentRequest{
		Date:   "2025-06-01",
		Amount: decimal.RequireFromString("200000"),
	})
	require.NoError(t, err)
	paymentID := withPayment.Project.Payments[0].ID.String()

	negative := decimal.RequireFromString("-1")
	_, err = f.svc.UpdatePayment(context.Background(), detail.Project.ID.String(), paymentID, service.UpdatePaymentRequest{
		Amount: &negative,
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestProjectCreate_PercentageOver100Rejected(t *testing.T) {
	f := newProjectFixture()

	base := decimal.RequireFromString("1000000")
	completion := decimal.RequireFromString("250")
	_, err := f.svc.Create(context.Background(), service.CreateProjectRequest{
		BankProjectNumber:    4711,
		OwnerID:              f.owner.ID.String(),
		ConsultantID:         f.consultant.ID.String(),
		BaseContractValue:    &base,
		CompletionPercentage: &completion,
	}, nil)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestProjectCreate_NegativeContractValueRejected(t *testing.T) {
	f := newProjectFixture()

	base := decimal.RequireFromString("-1000000")
	_, err := f.svc.Create(context.Background(), service.CreateProjectRequest{
		BankProjectNumber: 4711,
		OwnerID:           f.owner.ID.String(),
		ConsultantID:      f.consultant.ID.String(),
		BaseContractValue: &base,
	}, nil)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestProjectUpdate_OutOfRangeFinancialsRejected(t *testing.T) {
	f := newProjectFixture()
	detail := f.createProject(t)

	cases := map[string]json.RawMessage{
		"completion_percentage":      json.RawMessage(`"250"`),
		"base_contract_value":        json.RawMessage(`"-1"`),
		"bank_total_financing_value": json.RawMessage(`"-600000"`),
		"duration_months":            json.RawMessage(`-6`),
	}
	for field, value := range cases {
		_, err := f.svc.Update(context.Background(), detail.Project.ID.String(), service.UpdateProjectRequest{
			field: value,
		}, nil)
		assert.ErrorIs(t, err, service.ErrInvalidInput, field)
	}

	// a rejected patch leaves the stored inputs alone
	unchanged, err := f.svc.GetByID(context.Background(), detail.Project.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "50", unchanged.Project.CompletionPercentage.String())
}

func TestAddVariation_FeePercentageOver100Rejected(t *testing.T) {
	f := newProjectFixture()
	detail := f.createProject(t)

	fee := decimal.RequireFromString("120")
	_, err := f.svc.AddVariation(context.Background(), detail.Project.ID.String(), service.CreateVariationRequest{
		VariationNumber: "VO-1",
		Amount:          decimal.RequireFromString("50000"),
		FeePercentage:   &fee,
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
