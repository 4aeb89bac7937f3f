package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"backoffice/internal/finance"
	"backoffice/internal/model"
	"backoffice/internal/report"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dptr(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func sampleProject() *model.Project {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	duration := 24
	voDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	return &model.Project{
		ProjectCode:       "PRJ-00007",
		BankProjectNumber: 4711,
		MainContractor:    "Desert Build LLC",
		Owner:             &model.Customer{FullNameEnglish: "Hamdan Properties"},
		Consultant:        &model.Customer{FullNameEnglish: "Sila Engineering"},

		StartDate:      &start,
		DurationMonths: &duration,

		BaseContractValue:    dptr("1000000"),
		CompletionPercentage: d("50"),
		ConsultantPercentage: dptr("10"),

		BankTotalFinancingValue:  dptr("600000"),
		BankCompletionPercentage: d("50"),
		BankConsultantPercentage: dptr("10"),

		OwnerCompletionPercentage: d("50"),
		OwnerConsultantPercentage: dptr("10"),

		VariationOrders: []model.VariationOrder{
			{VariationNumber: "VO-1", Date: &voDate, Amount: d("50000"), IsApproved: true, Note: "extra floor"},
		},
		Payments: []model.Payment{
			{Date: voDate, Amount: d("200000"), Source: model.PaymentSourceBank, Description: "first drawdown"},
		},
	}
}

func TestGenerate_StatementLayout(t *testing.T) {
	project := sampleProject()
	snapshot := finance.Derive(project)

	raw, err := report.NewGenerator().Generate(project, snapshot)
	require.NoError(t, err)

	workbook, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer workbook.Close()

	assert.Equal(t, []string{"Statement", "Variation Orders", "Payments"}, workbook.GetSheetList())

	cell := func(sheet, ref string) string {
		v, cellErr := workbook.GetCellValue(sheet, ref)
		require.NoError(t, cellErr)
		return v
	}

	assert.Equal(t, "Project code", cell("Statement", "A1"))
	assert.Equal(t, "PRJ-00007", cell("Statement", "B1"))
	assert.Equal(t, "4711", cell("Statement", "B2"))
	assert.Equal(t, "Hamdan Properties", cell("Statement", "B3"))
	assert.Equal(t, "Sila Engineering", cell("Statement", "B4"))
	assert.Equal(t, "2025-01-15", cell("Statement", "B7"))
	assert.Equal(t, "24", cell("Statement", "B8"))

	// contract block starts at row 11
	assert.Equal(t, "Base contract value", cell("Statement", "A11"))
	assert.Equal(t, "1000000.00", cell("Statement", "B11"))
	assert.Equal(t, "Actual contract amount", cell("Statement", "A12"))
	assert.Equal(t, snapshot.ActualContractAmount.StringFixed(2), cell("Statement", "B12"))
}

func TestGenerate_VariationAndPaymentSheets(t *testing.T) {
	project := sampleProject()
	snapshot := finance.Derive(project)

	raw, err := report.NewGenerator().Generate(project, snapshot)
	require.NoError(t, err)

	workbook, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer workbook.Close()

	cell := func(sheet, ref string) string {
		v, cellErr := workbook.GetCellValue(sheet, ref)
		require.NoError(t, cellErr)
		return v
	}

	assert.Equal(t, "Variation no.", cell("Variation Orders", "A1"))
	assert.Equal(t, "VO-1", cell("Variation Orders", "A2"))
	assert.Equal(t, "50000.00", cell("Variation Orders", "C2"))
	// no per-order override, so the project consultant rate applies
	assert.Equal(t, "5000.00", cell("Variation Orders", "D2"))
	assert.Equal(t, "extra floor", cell("Variation Orders", "F2"))

	assert.Equal(t, "Date", cell("Payments", "A1"))
	assert.Equal(t, "2025-06-01", cell("Payments", "A2"))
	assert.Equal(t, "200000.00", cell("Payments", "B2"))
	assert.Equal(t, model.PaymentSourceBank, cell("Payments", "C2"))
}

func TestGenerate_EmptyOptionalInputs(t *testing.T) {
	project := &model.Project{ProjectCode: "PRJ-00001", BankProjectNumber: 1}
	snapshot := finance.Derive(project)

	raw, err := report.NewGenerator().Generate(project, snapshot)
	require.NoError(t, err)

	workbook, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer workbook.Close()

	owner, err := workbook.GetCellValue("Statement", "B3")
	require.NoError(t, err)
	assert.Empty(t, owner)

	base, err := workbook.GetCellValue("Statement", "B11")
	require.NoError(t, err)
	assert.Empty(t, base)
}
