package variance

import (
	"github.com/shopspring/decimal"

	"github.com/karthik2sekhar/CompiSure-Agents/internal/model"
)

// Mode selects how the two tolerance thresholds combine.
type Mode string

const (
	// ModeAny treats a pair as within tolerance when EITHER threshold
	// holds. This is the observed production policy: borderline cases are
	// marked acceptable rather than flooding the report with cents-level
	// variances.
	ModeAny Mode = "any"
	// ModeAll requires BOTH thresholds to hold.
	ModeAll Mode = "all"
)

// Tolerance is the configured allowance within which a payment variance is
// not treated as a discrepancy.
type Tolerance struct {
	// PercentThreshold is in percent units, e.g. 5.0 means 5%.
	PercentThreshold decimal.Decimal
	// AbsoluteThreshold is in currency units, e.g. 10.00.
	AbsoluteThreshold decimal.Decimal
	Mode              Mode
}

// DefaultTolerance mirrors the configuration defaults: 5% or $10, either
// sufficing.
func DefaultTolerance() Tolerance {
	return Tolerance{
		PercentThreshold:  decimal.NewFromFloat(5.0),
		AbsoluteThreshold: decimal.NewFromFloat(10.00),
		Mode:              ModeAny,
	}
}

var hundred = decimal.NewFromInt(100)

// Classify turns one match result into a discrepancy record.
//
// Matched pairs compare actual against expected under the tolerance.
// Unmatched commissions classify as unexpected_payment; unmatched
// enrollments as missing_commission. VarianceAmount is exact and signed.
// When the expected amount is zero the percent condition is skipped (only
// the absolute threshold applies) and VariancePercent stays nil.
func Classify(mr model.MatchResult, tol Tolerance) model.DiscrepancyRecord {
	switch mr.Outcome {
	case model.OutcomeUnmatchedCommission:
		return model.DiscrepancyRecord{
			PolicyID:       mr.Entry.MemberID,
			MemberName:     mr.Entry.MemberName,
			CarrierCode:    mr.Entry.CarrierCode,
			ExpectedAmount: decimal.Zero,
			ActualAmount:   mr.Entry.PaidAmount,
			VarianceAmount: mr.Entry.PaidAmount,
			Category:       model.CategoryUnexpectedPayment,
			SourceFile:     mr.Entry.SourceFile,
		}
	case model.OutcomeUnmatchedEnrollment:
		return model.DiscrepancyRecord{
			PolicyID:       mr.Enrollment.PolicyID,
			MemberName:     mr.Enrollment.MemberName,
			CarrierCode:    mr.Enrollment.CarrierCode,
			ExpectedAmount: mr.Enrollment.ExpectedAmount,
			ActualAmount:   decimal.Zero,
			VarianceAmount: mr.Enrollment.ExpectedAmount.Neg(),
			Category:       model.CategoryMissingCommission,
			SourceFile:     "",
		}
	}

	expected := mr.Enrollment.ExpectedAmount
	actual := mr.Entry.PaidAmount
	varianceAmt := actual.Sub(expected)

	rec := model.DiscrepancyRecord{
		PolicyID:       mr.Enrollment.PolicyID,
		MemberName:     mr.Enrollment.MemberName,
		CarrierCode:    mr.Entry.CarrierCode,
		ExpectedAmount: expected,
		ActualAmount:   actual,
		VarianceAmount: varianceAmt,
		SourceFile:     mr.Entry.SourceFile,
	}

	withinAbs := varianceAmt.Abs().LessThanOrEqual(tol.AbsoluteThreshold)

	var withinPct, pctKnown bool
	if !expected.IsZero() {
		pct := varianceAmt.Div(expected.Abs()).Mul(hundred)
		rounded := pct.Round(2)
		rec.VariancePercent = &rounded
		withinPct = pct.Abs().LessThanOrEqual(tol.PercentThreshold)
		pctKnown = true
	}

	within := withinAbs
	if pctKnown {
		if tol.Mode == ModeAll {
			within = withinAbs && withinPct
		} else {
			within = withinAbs || withinPct
		}
	}

	switch {
	case within:
		rec.Category = model.CategoryExactMatch
	case varianceAmt.IsPositive():
		rec.Category = model.CategoryOverpayment
	default:
		rec.Category = model.CategoryUnderpayment
	}
	return rec
}
