package recon

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karthik2sekhar/CompiSure-Agents/internal/learning"
	"github.com/karthik2sekhar/CompiSure-Agents/internal/match"
	"github.com/karthik2sekhar/CompiSure-Agents/internal/model"
	"github.com/karthik2sekhar/CompiSure-Agents/internal/variance"
)

func testIndex() *match.Index {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return match.NewIndex([]model.EnrollmentRecord{
		{PolicyID: "AET001234", EffectiveDate: day(2025, 1, 15), CarrierCode: "aetna", ExpectedAmount: decimal.RequireFromString("750.00")},
		{PolicyID: "AET005678", EffectiveDate: day(2025, 1, 20), CarrierCode: "aetna", ExpectedAmount: decimal.RequireFromString("300.00")},
		{PolicyID: "CIG000111", EffectiveDate: day(2025, 2, 1), CarrierCode: "cigna", ExpectedAmount: decimal.RequireFromString("200.00")},
	})
}

func aetnaBatch() CarrierBatch {
	return CarrierBatch{
		CarrierCode: "aetna",
		Statements: []Statement{{
			SourceFile: "aetna_jan.xlsx",
			Rows: [][]string{
				{"Policy Number", "Effective Date", "Commission Amount"},
				{"AET001234", "2025-01-15", "1250.00"}, // $500 over expected
				{"AET005678", "2025-01-20", "295.00"},  // within $10
				{"AET999999", "2025-01-20", "42.00"},   // unknown policy
			},
		}},
	}
}

func TestRun_SingleCarrier(t *testing.T) {
	r := New(learning.NewMemory(), variance.DefaultTolerance(), 4)

	report, err := r.Run(context.Background(), []CarrierBatch{aetnaBatch()}, testIndex())
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.NotEmpty(t, report.RunID)
	assert.Empty(t, report.Failures)
	require.Len(t, report.Carriers, 1)

	carrier := report.Carriers[0]
	assert.Equal(t, "aetna", carrier.CarrierCode)
	assert.Equal(t, 1, carrier.Categories[model.CategoryOverpayment])
	assert.Equal(t, 1, carrier.Categories[model.CategoryExactMatch])
	assert.Equal(t, 1, carrier.Categories[model.CategoryUnexpectedPayment])
	assert.Equal(t, 0, carrier.Categories[model.CategoryMissingCommission])
	assert.True(t, carrier.TotalPaid.Equal(decimal.RequireFromString("1587.00")))
	assert.True(t, carrier.TotalExpected.Equal(decimal.RequireFromString("1050.00")))
	assert.True(t, carrier.TotalVariance.Equal(decimal.RequireFromString("537.00")))
}

func TestRun_SchemaFailureIsolatedPerCarrier(t *testing.T) {
	store := learning.NewMemory()
	r := New(store, variance.DefaultTolerance(), 4)

	broken := CarrierBatch{
		CarrierCode: "cigna",
		Statements: []Statement{{
			SourceFile: "cigna_feb.csv",
			Rows: [][]string{
				{"Garbage", "Columns"},
				{"x", "y"},
			},
		}},
	}

	report, err := r.Run(context.Background(), []CarrierBatch{aetnaBatch(), broken}, testIndex())
	require.NoError(t, err)

	// The healthy carrier still produced a summary.
	require.Len(t, report.Carriers, 1)
	assert.Equal(t, "aetna", report.Carriers[0].CarrierCode)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, "cigna", report.Failures[0].CarrierCode)
	assert.Equal(t, "cigna_feb.csv", report.Failures[0].SourceFile)
	assert.Contains(t, report.Failures[0].Reason, "unresolved required fields")

	// The failed attempt still landed on the learning profile.
	p, err := store.GetProfile(context.Background(), "cigna")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 1, p.Attempts)
	assert.Equal(t, 0, p.Successes)
}

func TestRun_AllCarriersFailedStillAReport(t *testing.T) {
	r := New(learning.NewMemory(), variance.DefaultTolerance(), 2)

	batches := []CarrierBatch{
		{CarrierCode: "aetna", Statements: []Statement{{SourceFile: "aetna_jan.xlsx"}}},
		{CarrierCode: "cigna", Statements: []Statement{{
			SourceFile: "cigna_feb.csv",
			Rows:       [][]string{{"nope"}},
		}}},
	}

	report, err := r.Run(context.Background(), batches, testIndex())
	require.NoError(t, err)
	assert.Empty(t, report.Carriers)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, "empty statement", report.Failures[0].Reason)
	assert.True(t, report.TotalPaid.IsZero())
	assert.True(t, report.TotalVariance.IsZero())
}

func TestRun_MissingCommissionForUnpaidEnrollment(t *testing.T) {
	r := New(learning.NewMemory(), variance.DefaultTolerance(), 1)

	batch := CarrierBatch{
		CarrierCode: "aetna",
		Statements: []Statement{{
			SourceFile: "aetna_jan.xlsx",
			Rows: [][]string{
				{"Policy Number", "Effective Date", "Commission Amount"},
				{"AET001234", "2025-01-15", "750.00"},
				// AET005678 never paid
			},
		}},
	}

	report, err := r.Run(context.Background(), []CarrierBatch{batch}, testIndex())
	require.NoError(t, err)
	require.Len(t, report.Carriers, 1)

	carrier := report.Carriers[0]
	assert.Equal(t, 1, carrier.Categories[model.CategoryExactMatch])
	assert.Equal(t, 1, carrier.Categories[model.CategoryMissingCommission])

	var missing *model.DiscrepancyRecord
	for i := range carrier.Discrepancies {
		if carrier.Discrepancies[i].Category == model.CategoryMissingCommission {
			missing = &carrier.Discrepancies[i]
		}
	}
	require.NotNil(t, missing)
	assert.Equal(t, "AET005678", missing.PolicyID)
	assert.True(t, missing.VarianceAmount.Equal(decimal.RequireFromString("-300.00")))
}

func TestRun_ConfigFixedMappingExtractsUnmappableHeaders(t *testing.T) {
	r := New(learning.NewMemory(), variance.DefaultTolerance(), 1)

	batch := CarrierBatch{
		CarrierCode: "aetna",
		FixedMapping: map[string]int{
			"member_id":      0,
			"effective_date": 1,
			"payout":         2,
		},
		Statements: []Statement{{
			SourceFile: "aetna_jan.xlsx",
			Rows: [][]string{
				{"Col1", "Col2", "Col3"}, // headers no alias can resolve
				{"AET001234", "2025-01-15", "750.00"},
			},
		}},
	}

	report, err := r.Run(context.Background(), []CarrierBatch{batch}, testIndex())
	require.NoError(t, err)
	assert.Empty(t, report.Failures)
	require.Len(t, report.Carriers, 1)
	assert.Equal(t, 1, report.Carriers[0].Categories[model.CategoryExactMatch])
}

func TestRun_MappingLearnedFromEarlierStatementInBatch(t *testing.T) {
	store := learning.NewMemory()
	r := New(store, variance.DefaultTolerance(), 1)

	batch := CarrierBatch{
		CarrierCode: "aetna",
		Statements: []Statement{
			{
				SourceFile: "aetna_jan.xlsx",
				Rows: [][]string{
					{"Policy Number", "Effective Date", "Commission Amount"},
					{"AET001234", "2025-01-15", "750.00"},
				},
			},
			{
				// Same layout, unreadable header cells. Only the mapping
				// recorded from the first statement can resolve it.
				SourceFile: "aetna_feb.xlsx",
				Rows: [][]string{
					{"????", "????", "????"},
					{"AET005678", "2025-01-20", "300.00"},
				},
			},
		},
	}

	report, err := r.Run(context.Background(), []CarrierBatch{batch}, testIndex())
	require.NoError(t, err)
	assert.Empty(t, report.Failures)
	require.Len(t, report.Carriers, 1)
	assert.Equal(t, 2, report.Carriers[0].Categories[model.CategoryExactMatch])

	p, err := store.GetProfile(context.Background(), "aetna")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, map[string]int{
		"member_id":      0,
		"effective_date": 1,
		"payout":         2,
	}, p.FixedMapping)
}

func TestRun_LearnsProfileAcrossRuns(t *testing.T) {
	ctx := context.Background()
	store := learning.NewMemory()
	r := New(store, variance.DefaultTolerance(), 4)

	_, err := r.Run(ctx, []CarrierBatch{aetnaBatch()}, testIndex())
	require.NoError(t, err)
	_, err = r.Run(ctx, []CarrierBatch{aetnaBatch()}, testIndex())
	require.NoError(t, err)

	p, err := store.GetProfile(ctx, "aetna")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 2, p.Attempts)
	assert.Equal(t, 2, p.Successes)
	assert.Contains(t, p.ObservedIDPatterns, "AET001234")
	assert.Equal(t, model.DocumentTabular, p.DocumentType)
	assert.Equal(t, "Policy Number", p.PrimaryIdentifierField)
	assert.Equal(t, map[string]int{
		"member_id":      0,
		"effective_date": 1,
		"payout":         2,
	}, p.FixedMapping)
}

func TestRun_IdempotentAggregates(t *testing.T) {
	ctx := context.Background()
	r := New(learning.NewMemory(), variance.DefaultTolerance(), 4)

	first, err := r.Run(ctx, []CarrierBatch{aetnaBatch()}, testIndex())
	require.NoError(t, err)
	second, err := r.Run(ctx, []CarrierBatch{aetnaBatch()}, testIndex())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.True(t, first.TotalPaid.Equal(second.TotalPaid))
	assert.True(t, first.TotalVariance.Equal(second.TotalVariance))
	assert.Equal(t, first.Categories, second.Categories)
}

func TestRun_TableDetectionSkipsPreamble(t *testing.T) {
	r := New(learning.NewMemory(), variance.DefaultTolerance(), 1)

	batch := CarrierBatch{
		CarrierCode:      "cigna",
		TableIdentifiers: []string{"policy id", "commission"},
		Statements: []Statement{{
			SourceFile: "cigna_feb.csv",
			Rows: [][]string{
				{"Cigna Healthcare"},
				{"Producer Statement, February 2025"},
				{"Policy ID", "Effective Date", "Commission"},
				{"CIG000111", "2025-02-01", "200.00"},
			},
		}},
	}

	report, err := r.Run(context.Background(), []CarrierBatch{batch}, testIndex())
	require.NoError(t, err)
	require.Len(t, report.Carriers, 1)
	assert.Equal(t, 1, report.Carriers[0].Categories[model.CategoryExactMatch])
	assert.Empty(t, report.Failures)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(learning.NewMemory(), variance.DefaultTolerance(), 1)
	_, err := r.Run(ctx, []CarrierBatch{aetnaBatch()}, testIndex())
	assert.Error(t, err)
}
