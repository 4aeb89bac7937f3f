package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/model"
	"backoffice/internal/service"
)

func TestCustomerCreate_WritesAuditEntry(t *testing.T) {
	repo := newMemCustomerRepo()
	audits := &memAuditRepo{}
	svc := service.NewCustomerService(repo, audits)

	customer, err := svc.Create(context.Background(), service.CreateCustomerRequest{
		CustomerType:    model.CustomerTypeCommercial,
		FullNameArabic:  "شركة النور",
		FullNameEnglish: "Al Noor Trading",
		Email:           "info@alnoor.example",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, model.CustomerTypeCommercial, customer.CustomerType)
	assert.Equal(t, model.CustomerStatusActive, customer.Status)

	require.Len(t, audits.entries, 1)
	assert.Equal(t, model.ActionCreateCustomer, audits.entries[0].Action)
	assert.Equal(t, "Al Noor Trading", audits.entries[0].EntityName)
}

func TestCustomerGetByID_HidesSoftDeleted(t *testing.T) {
	repo := newMemCustomerRepo()
	svc := service.NewCustomerService(repo, &memAuditRepo{})

	customer := repo.add(model.Customer{
		CustomerType:    model.CustomerTypeOwner,
		FullNameEnglish: "Hamdan Properties",
	})

	got, err := svc.GetByID(context.Background(), customer.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Hamdan Properties", got.FullNameEnglish)

	now := time.Now()
	require.NoError(t, repo.SoftDelete(context.Background(), customer.ID, now))

	_, err = svc.GetByID(context.Background(), customer.ID.String())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCustomerGetByID_InvalidID(t *testing.T) {
	svc := service.NewCustomerService(newMemCustomerRepo(), &memAuditRepo{})

	_, err := svc.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestCustomerCodePrefix(t *testing.T) {
	assert.Equal(t, "OWN", model.CustomerCodePrefix(model.CustomerTypeOwner))
	assert.Equal(t, "COM", model.CustomerCodePrefix(model.CustomerTypeCommercial))
	assert.Equal(t, "CON", model.CustomerCodePrefix(model.CustomerTypeConsultant))
	assert.Equal(t, "CUS", model.CustomerCodePrefix("SOMETHING_ELSE"))
}
