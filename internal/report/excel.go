// Package report renders a project's financial statement as an xlsx workbook.
package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"backoffice/internal/finance"
	"backoffice/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate builds the workbook: a statement sheet with the header block,
// financing branches, and the to-date chain, plus one sheet each for
// variation orders and payments.
func (g *Generator) Generate(project *model.Project, snapshot finance.Snapshot) ([]byte, error) {
	file := excelize.NewFile()

	statementSheet := "Statement"
	file.SetSheetName("Sheet1", statementSheet)
	if err := g.writeStatement(file, statementSheet, project, snapshot); err != nil {
		return nil, err
	}

	variationsSheet := "Variation Orders"
	file.NewSheet(variationsSheet)
	if err := g.writeVariations(file, variationsSheet, project); err != nil {
		return nil, err
	}

	paymentsSheet := "Payments"
	file.NewSheet(paymentsSheet)
	if err := g.writePayments(file, paymentsSheet, project); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeStatement(file *excelize.File, sheet string, project *model.Project, s finance.Snapshot) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Project code")
	set("B1", project.ProjectCode)
	set("A2", "Bank project number")
	set("B2", project.BankProjectNumber)
	set("A3", "Owner")
	set("B3", customerName(project.Owner))
	set("A4", "Consultant")
	set("B4", customerName(project.Consultant))
	set("A5", "Main contractor")
	set("B5", project.MainContractor)
	set("A6", "Report as of")
	set("B6", formatDate(project.ReportAsOf))
	set("A7", "Start date")
	set("B7", formatDate(project.StartDate))
	set("A8", "Final duration, months")
	set("B8", formatInt(s.FinalDurationMonths))
	set("A9", "End date incl. extension")
	set("B9", formatDate(s.EndDateWithExtension))

	rows := []struct {
		label string
		value string
	}{
		{"Base contract value", formatDecimal(project.BaseContractValue)},
		{"Actual contract amount", formatDecimal(s.ActualContractAmount)},
		{"Consultant fee amount", formatDecimal(s.ConsultantFeeAmount)},
		{"Total contract incl. consultant fees", formatDecimal(s.TotalContractInclConsultantFees)},
		{"", ""},
		{"Bank total financing value", formatDecimal(project.BankTotalFinancingValue)},
		{"Bank actual contract amount", formatDecimal(s.BankActualContractAmount)},
		{"Bank consultant fee amount", formatDecimal(s.BankConsultantFeeAmount)},
		{"Bank share incl. consultant", formatDecimal(s.BankShareInclConsultant)},
		{"", ""},
		{"Owner total financing value", formatDecimal(s.OwnerTotalFinancingValue)},
		{"Owner actual contract amount", formatDecimal(s.OwnerActualContractAmount)},
		{"Owner consultant fee amount", formatDecimal(s.OwnerConsultantFeeAmount)},
		{"Owner share incl. consultant", formatDecimal(s.OwnerShareInclConsultant)},
		{"", ""},
		{"Variations total amount", s.VariationsTotalAmount.StringFixed(2)},
		{"Variations total consultant fees", s.VariationsTotalConsultantFees.StringFixed(2)},
		{"Payments total amount", s.PaymentsTotalAmount.StringFixed(2)},
		{"", ""},
		{"Contract plus variations", formatDecimal(s.ContractPlusVariations)},
		{"Payable to date", formatDecimal(s.PayableToDate)},
		{"Consultant to date", formatDecimal(s.ConsultantToDate)},
		{"Total to date", formatDecimal(s.TotalToDate)},
		{"VAT to date", formatDecimal(s.VATToDate)},
		{"Grand total to date", formatDecimal(s.GrandTotalToDate)},
		{"Remaining to pay", formatDecimal(s.RemainingToPay)},
	}

	startRow := 11
	for i, r := range rows {
		if r.label == "" {
			continue
		}
		set(fmt.Sprintf("A%d", startRow+i), r.label)
		set(fmt.Sprintf("B%d", startRow+i), r.value)
	}

	vatRow := startRow + len(rows) + 1
	set(fmt.Sprintf("A%d", vatRow), "VAT breakdown")
	set(fmt.Sprintf("B%d", vatRow), "VAT")
	set(fmt.Sprintf("C%d", vatRow), "Total incl. VAT")

	vatRows := []struct {
		label string
		pair  finance.VATPair
	}{
		{"Bank share incl. consultant", s.VATBankShareInclConsultant},
		{"Owner share incl. consultant", s.VATOwnerShareInclConsultant},
		{"Total contract incl. consultant", s.VATTotalContractInclConsultant},
		{"Bank consultant fee", s.VATBankConsultantFee},
		{"Owner consultant fee", s.VATOwnerConsultantFee},
		{"Total consultant fee", s.VATTotalConsultantFee},
		{"Bank actual contract", s.VATBankActualContract},
		{"Owner actual contract", s.VATOwnerActualContract},
		{"Total actual contract", s.VATTotalActualContract},
	}
	for i, r := range vatRows {
		row := vatRow + 1 + i
		set(fmt.Sprintf("A%d", row), r.label)
		set(fmt.Sprintf("B%d", row), formatDecimal(r.pair.VAT))
		set(fmt.Sprintf("C%d", row), formatDecimal(r.pair.TotalInclVAT))
	}

	_ = file.SetColWidth(sheet, "A", "A", 40)
	_ = file.SetColWidth(sheet, "B", "C", 20)
	return nil
}

func (g *Generator) writeVariations(file *excelize.File, sheet string, project *model.Project) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"Variation no.", "Date", "Amount", "Consultant fee", "Approved", "Note"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i := range project.VariationOrders {
		vo := &project.VariationOrders[i]
		row := 2 + i
		set(fmt.Sprintf("A%d", row), vo.VariationNumber)
		set(fmt.Sprintf("B%d", row), formatDate(vo.Date))
		set(fmt.Sprintf("C%d", row), vo.Amount.StringFixed(2))
		set(fmt.Sprintf("D%d", row), finance.VariationConsultantFee(project, vo).StringFixed(2))
		set(fmt.Sprintf("E%d", row), vo.IsApproved)
		set(fmt.Sprintf("F%d", row), vo.Note)
	}

	_ = file.SetColWidth(sheet, "A", "B", 16)
	_ = file.SetColWidth(sheet, "C", "D", 18)
	_ = file.SetColWidth(sheet, "F", "F", 40)
	return nil
}

func (g *Generator) writePayments(file *excelize.File, sheet string, project *model.Project) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"Date", "Amount", "Source", "Description"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i := range project.Payments {
		p := &project.Payments[i]
		row := 2 + i
		set(fmt.Sprintf("A%d", row), p.Date.Format("2006-01-02"))
		set(fmt.Sprintf("B%d", row), p.Amount.StringFixed(2))
		set(fmt.Sprintf("C%d", row), p.Source)
		set(fmt.Sprintf("D%d", row), p.Description)
	}

	_ = file.SetColWidth(sheet, "A", "C", 16)
	_ = file.SetColWidth(sheet, "D", "D", 40)
	return nil
}

func customerName(c *model.Customer) string {
	if c == nil {
		return ""
	}
	return c.FullNameEnglish
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func formatDecimal(v *decimal.Decimal) string {
	if v == nil {
		return ""
	}
	return v.StringFixed(2)
}
