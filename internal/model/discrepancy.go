package model

import "github.com/shopspring/decimal"

// DiscrepancyCategory classifies one reconciled record.
type DiscrepancyCategory string

const (
	CategoryExactMatch        DiscrepancyCategory = "exact_match"
	CategoryOverpayment       DiscrepancyCategory = "overpayment"
	CategoryUnderpayment      DiscrepancyCategory = "underpayment"
	CategoryUnexpectedPayment DiscrepancyCategory = "unexpected_payment"
	CategoryMissingCommission DiscrepancyCategory = "missing_commission"
)

// DiscrepancyRecord is one row of the final report.
//
// VarianceAmount is always actual - expected, signed, with no rounding
// beyond the source precision. VariancePercent is nil when the expected
// amount was zero and the absolute threshold alone governed classification.
type DiscrepancyRecord struct {
	PolicyID        string              `json:"policy_id"`
	MemberName      string              `json:"member_name,omitempty"`
	CarrierCode     string              `json:"carrier_code"`
	ExpectedAmount  decimal.Decimal     `json:"expected_amount"`
	ActualAmount    decimal.Decimal     `json:"actual_amount"`
	VarianceAmount  decimal.Decimal     `json:"variance_amount"`
	VariancePercent *decimal.Decimal    `json:"variance_percent,omitempty"`
	Category        DiscrepancyCategory `json:"category"`
	SourceFile      string              `json:"source_file,omitempty"`
}
