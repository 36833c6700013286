package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CarrierFailure records a carrier statement that could not be processed.
type CarrierFailure struct {
	CarrierCode string `json:"carrier_code"`
	SourceFile  string `json:"source_file,omitempty"`
	Reason      string `json:"reason"`
}

// CarrierSummary is the per-carrier slice of the aggregate report.
type CarrierSummary struct {
	CarrierCode   string                      `json:"carrier_code"`
	TotalPaid     decimal.Decimal             `json:"total_paid"`
	TotalExpected decimal.Decimal             `json:"total_expected"`
	TotalVariance decimal.Decimal             `json:"total_variance"`
	Categories    map[DiscrepancyCategory]int `json:"categories"`
	RejectedRows  int                         `json:"rejected_rows"`
	Discrepancies []DiscrepancyRecord         `json:"discrepancies"`
}

// ReconciliationReport aggregates one reconciliation run across carriers.
// Total failure of every carrier is still a report, never an error.
type ReconciliationReport struct {
	RunID         string                      `json:"run_id"`
	StartedAt     time.Time                   `json:"started_at"`
	Duration      time.Duration               `json:"duration_ns"`
	TotalPaid     decimal.Decimal             `json:"total_paid"`
	TotalExpected decimal.Decimal             `json:"total_expected"`
	TotalVariance decimal.Decimal             `json:"total_variance"`
	Categories    map[DiscrepancyCategory]int `json:"categories"`
	Carriers      []CarrierSummary            `json:"carriers"`
	Failures      []CarrierFailure            `json:"failures"`
}
