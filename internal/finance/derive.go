// Package finance computes the derived financial statement of a project.
// Derivation is a pure function of the project row and its loaded variation
// orders and payments: nothing here touches the database or caches results.
package finance

import (
	"time"

	"github.com/shopspring/decimal"

	"backoffice/internal/model"
)

// VATRate is the flat value-added tax applied on top of any
// "share including consultant" figure.
var VATRate = decimal.NewFromFloat(0.05)

var hundred = decimal.NewFromInt(100)

// VATPair carries a VAT amount together with the gross (net + VAT) figure.
// Both are nil when the underlying net figure is not derivable.
type VATPair struct {
	VAT          *decimal.Decimal `json:"vat"`
	TotalInclVAT *decimal.Decimal `json:"total_incl_vat"`
}

// Snapshot is the full set of derived fields for one project. Every monetary
// value is quantized to 2 decimal places, round half up, at each exposed
// step — not only at the end. A field is nil when a required input of its
// branch is missing; derivation is best-effort per branch and never fails.
type Snapshot struct {
	// Duration
	FinalDurationMonths  *int       `json:"final_duration_months"`
	EndDateWithExtension *time.Time `json:"end_date_with_extension"`

	// Global contract branch
	ActualContractAmount            *decimal.Decimal `json:"actual_contract_amount"`
	ConsultantFeeAmount             *decimal.Decimal `json:"consultant_fee_amount"`
	TotalContractInclConsultantFees *decimal.Decimal `json:"total_contract_incl_consultant_fees"`

	// Bank financing branch
	BankActualContractAmount *decimal.Decimal `json:"bank_actual_contract_amount"`
	BankConsultantFeeAmount  *decimal.Decimal `json:"bank_consultant_fee_amount"`
	BankShareInclConsultant  *decimal.Decimal `json:"bank_share_incl_consultant"`

	// Owner financing branch (base = max(0, contract - bank financing))
	OwnerTotalFinancingValue  *decimal.Decimal `json:"owner_total_financing_value"`
	OwnerActualContractAmount *decimal.Decimal `json:"owner_actual_contract_amount"`
	OwnerConsultantFeeAmount  *decimal.Decimal `json:"owner_consultant_fee_amount"`
	OwnerShareInclConsultant  *decimal.Decimal `json:"owner_share_incl_consultant"`

	// VAT views
	VATBankShareInclConsultant     VATPair `json:"vat_bank_share_incl_consultant"`
	VATOwnerShareInclConsultant    VATPair `json:"vat_owner_share_incl_consultant"`
	VATTotalContractInclConsultant VATPair `json:"vat_total_contract_incl_consultant"`
	VATBankConsultantFee           VATPair `json:"vat_bank_consultant_fee"`
	VATOwnerConsultantFee          VATPair `json:"vat_owner_consultant_fee"`
	VATTotalConsultantFee          VATPair `json:"vat_total_consultant_fee"`
	VATOwnerActualContract         VATPair `json:"vat_owner_actual_contract"`
	VATBankActualContract          VATPair `json:"vat_bank_actual_contract"`
	VATTotalActualContract         VATPair `json:"vat_total_actual_contract"`

	// Aggregates over live children
	VariationsTotalAmount         decimal.Decimal `json:"variations_total_amount"`
	VariationsTotalConsultantFees decimal.Decimal `json:"variations_total_consultant_fees"`
	PaymentsTotalAmount           decimal.Decimal `json:"payments_total_amount"`

	// To-date chain (contract + variations scaled by completion)
	ContractPlusVariations *decimal.Decimal `json:"contract_plus_variations"`
	PayableToDate          *decimal.Decimal `json:"payable_to_date"`
	ConsultantToDate       *decimal.Decimal `json:"consultant_to_date"`
	TotalToDate            *decimal.Decimal `json:"total_to_date"`
	VATToDate              *decimal.Decimal `json:"vat_to_date"`
	GrandTotalToDate       *decimal.Decimal `json:"grand_total_to_date"`
	// May be negative; presentation decides how to flag overpayment.
	RemainingToPay *decimal.Decimal `json:"remaining_to_pay"`
}

// Derive computes the snapshot for a project whose VariationOrders and
// Payments are already loaded. Deterministic: recomputing from the same
// inputs yields identical decimals.
func Derive(p *model.Project) Snapshot {
	var s Snapshot

	s.FinalDurationMonths = finalDurationMonths(p)
	s.EndDateWithExtension = endDateWithExtension(p)

	// Global branch
	s.ActualContractAmount = scaleByPct(p.BaseContractValue, p.CompletionPercentage)
	s.ConsultantFeeAmount = scaleByOptPct(s.ActualContractAmount, p.ConsultantPercentage)
	s.TotalContractInclConsultantFees = sum2(s.ActualContractAmount, s.ConsultantFeeAmount)

	// Bank branch
	s.BankActualContractAmount = scaleByPct(p.BankTotalFinancingValue, p.BankCompletionPercentage)
	s.BankConsultantFeeAmount = scaleByOptPct(s.BankActualContractAmount, p.BankConsultantPercentage)
	s.BankShareInclConsultant = sum2(s.BankActualContractAmount, s.BankConsultantFeeAmount)

	// Owner branch
	s.OwnerTotalFinancingValue = ownerFinancingBase(p)
	s.OwnerActualContractAmount = scaleByPct(s.OwnerTotalFinancingValue, p.OwnerCompletionPercentage)
	s.OwnerConsultantFeeAmount = scaleByOptPct(s.OwnerActualContractAmount, p.OwnerConsultantPercentage)
	s.OwnerShareInclConsultant = sum2(s.OwnerActualContractAmount, s.OwnerConsultantFeeAmount)

	s.VATBankShareInclConsultant = vatOf(s.BankShareInclConsultant)
	s.VATOwnerShareInclConsultant = vatOf(s.OwnerShareInclConsultant)
	s.VATTotalContractInclConsultant = vatOf(s.TotalContractInclConsultantFees)
	s.VATBankConsultantFee = vatOf(s.BankConsultantFeeAmount)
	s.VATOwnerConsultantFee = vatOf(s.OwnerConsultantFeeAmount)
	s.VATTotalConsultantFee = vatOf(s.ConsultantFeeAmount)
	s.VATOwnerActualContract = vatOf(s.OwnerActualContractAmount)
	s.VATBankActualContract = vatOf(s.BankActualContractAmount)
	s.VATTotalActualContract = vatOf(s.ActualContractAmount)

	s.VariationsTotalAmount, s.VariationsTotalConsultantFees = variationTotals(p)
	s.PaymentsTotalAmount = paymentsTotal(p)

	deriveToDate(p, &s)

	return s
}

// VariationConsultantFee returns the consultant fee of one variation order,
// using the order's own percentage when set and falling back to the
// project's rate otherwise.
func VariationConsultantFee(p *model.Project, vo *model.VariationOrder) decimal.Decimal {
	pct := decimal.Zero
	switch {
	case vo.FeePercentage != nil:
		pct = *vo.FeePercentage
	case p.ConsultantPercentage != nil:
		pct = *p.ConsultantPercentage
	}
	return round2(vo.Amount.Mul(pct.Div(hundred)))
}

func variationTotals(p *model.Project) (total, fees decimal.Decimal) {
	sum := decimal.Zero
	feeSum := decimal.Zero
	for i := range p.VariationOrders {
		vo := &p.VariationOrders[i]
		if !vo.IsApproved {
			continue
		}
		sum = sum.Add(vo.Amount)
		feeSum = feeSum.Add(VariationConsultantFee(p, vo))
	}
	return round2(sum), round2(feeSum)
}

func paymentsTotal(p *model.Project) decimal.Decimal {
	sum := decimal.Zero
	for i := range p.Payments {
		sum = sum.Add(p.Payments[i].Amount)
	}
	return round2(sum)
}

// deriveToDate fills the contract+variations chain. The whole chain needs a
// base contract value; everything else defaults to zero.
func deriveToDate(p *model.Project, s *Snapshot) {
	if p.BaseContractValue == nil {
		return
	}
	base := *p.BaseContractValue
	prog := p.CompletionPercentage.Div(hundred)

	feeOnContract := decimal.Zero
	if p.ConsultantPercentage != nil {
		feeOnContract = round2(base.Mul(p.ConsultantPercentage.Div(hundred)))
	}

	cpv := round2(base.Add(s.VariationsTotalAmount))
	payable := round2(cpv.Mul(prog))
	consultTd := round2(feeOnContract.Add(s.VariationsTotalConsultantFees).Mul(prog))
	totalTd := round2(payable.Add(consultTd))
	vatTd := round2(totalTd.Mul(VATRate))
	grandTd := round2(totalTd.Add(vatTd))
	remaining := round2(grandTd.Sub(s.PaymentsTotalAmount))

	s.ContractPlusVariations = &cpv
	s.PayableToDate = &payable
	s.ConsultantToDate = &consultTd
	s.TotalToDate = &totalTd
	s.VATToDate = &vatTd
	s.GrandTotalToDate = &grandTd
	s.RemainingToPay = &remaining
}

func finalDurationMonths(p *model.Project) *int {
	if p.DurationMonths == nil || p.TimeExtensionDays == nil {
		return nil
	}
	months := *p.DurationMonths + ceilDiv(*p.TimeExtensionDays, 30)
	return &months
}

func endDateWithExtension(p *model.Project) *time.Time {
	if p.StartDate == nil || p.DurationMonths == nil || p.TimeExtensionDays == nil {
		return nil
	}
	end := addMonths(*p.StartDate, *p.DurationMonths).AddDate(0, 0, *p.TimeExtensionDays)
	return &end
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}

// addMonths advances by calendar months, clamping to the last day of the
// target month (Jan 31 + 1 month = Feb 28, not Mar 3).
func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// scaleByPct computes base × pct/100, nil when base is nil.
func scaleByPct(base *decimal.Decimal, pct decimal.Decimal) *decimal.Decimal {
	if base == nil {
		return nil
	}
	v := round2(base.Mul(pct.Div(hundred)))
	return &v
}

// scaleByOptPct treats a nil percentage as zero, but propagates a nil base.
func scaleByOptPct(base *decimal.Decimal, pct *decimal.Decimal) *decimal.Decimal {
	if base == nil {
		return nil
	}
	rate := decimal.Zero
	if pct != nil {
		rate = *pct
	}
	v := round2(base.Mul(rate.Div(hundred)))
	return &v
}

func sum2(a, b *decimal.Decimal) *decimal.Decimal {
	if a == nil || b == nil {
		return nil
	}
	v := round2(a.Add(*b))
	return &v
}

func ownerFinancingBase(p *model.Project) *decimal.Decimal {
	if p.BaseContractValue == nil || p.BankTotalFinancingValue == nil {
		return nil
	}
	v := p.BaseContractValue.Sub(*p.BankTotalFinancingValue)
	if v.IsNegative() {
		v = decimal.Zero
	}
	v = round2(v)
	return &v
}

func vatOf(net *decimal.Decimal) VATPair {
	if net == nil {
		return VATPair{}
	}
	vat := round2(net.Mul(VATRate))
	gross := round2(net.Add(vat))
	return VATPair{VAT: &vat, TotalInclVAT: &gross}
}
