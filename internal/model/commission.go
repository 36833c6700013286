package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionEntry is one paid-commission line extracted from a carrier
// statement. Entries are built by the column mapper and treated as read-only
// downstream.
type CommissionEntry struct {
	MemberID      string            `json:"member_id"`
	EffectiveDate time.Time         `json:"effective_date"`
	PaidAmount    decimal.Decimal   `json:"paid_amount"` // negative for clawbacks
	CarrierCode   string            `json:"carrier_code"`
	SourceFile    string            `json:"source_file"`
	FirstName     string            `json:"first_name,omitempty"`
	LastName      string            `json:"last_name,omitempty"`
	MemberName    string            `json:"member_name,omitempty"`
	ProductName   string            `json:"product_name,omitempty"`
	PlanName      string            `json:"plan_name,omitempty"`
	RawFields     map[string]string `json:"raw_fields,omitempty"` // original header -> raw cell, for audit
}

// EnrollmentRecord is one expected-commission row from the enrollment book.
// Records are loaded once per run and are read-only for its duration.
type EnrollmentRecord struct {
	PolicyID       string          `json:"policy_id"`
	EffectiveDate  time.Time       `json:"effective_date"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	CarrierCode    string          `json:"carrier_code"`
	MemberName     string          `json:"member_name,omitempty"`
	PlanName       string          `json:"plan_name,omitempty"`
	AnnualPremium  decimal.Decimal `json:"annual_premium,omitempty"`
}
