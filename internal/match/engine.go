package match

import (
	"go.uber.org/zap"

	"github.com/karthik2sekhar/CompiSure-Agents/internal/model"
)

// Match joins commission entries to the enrollment index under the strict
// exact-match policy: a commission entry matches an enrollment record iff
// the normalized IDs are equal AND both dates fall on the same calendar day.
// Partial matches (ID-only or date-only) never count — a false positive here
// corrupts financial figures downstream.
//
// Matching is carrier-scoped: entries are joined only against enrollment
// rows sharing the batch's carrier code. Every commission entry yields
// exactly one result; every carrier enrollment row no entry consumed yields
// an unmatched_enrollment result.
func Match(entries []model.CommissionEntry, idx *Index, carrier string) []model.MatchResult {
	results := make([]model.MatchResult, 0, len(entries))
	consumed := make(map[*model.EnrollmentRecord]bool)

	for i := range entries {
		entry := &entries[i]
		rec := idx.Lookup(entry.MemberID, entry.EffectiveDate, carrier)
		if rec == nil {
			results = append(results, model.MatchResult{
				Outcome: model.OutcomeUnmatchedCommission,
				Entry:   entry,
			})
			continue
		}
		consumed[rec] = true
		results = append(results, model.MatchResult{
			Outcome:    model.OutcomeMatched,
			Entry:      entry,
			Enrollment: rec,
		})
	}

	unmatchedEnrollments := 0
	for _, rec := range idx.CarrierRecords(carrier) {
		if consumed[rec] {
			continue
		}
		unmatchedEnrollments++
		results = append(results, model.MatchResult{
			Outcome:    model.OutcomeUnmatchedEnrollment,
			Enrollment: rec,
		})
	}

	zap.L().Info("match: carrier joined",
		zap.String("carrier", carrier),
		zap.Int("entries", len(entries)),
		zap.Int("matched", len(consumed)),
		zap.Int("unmatched_enrollments", unmatchedEnrollments),
	)
	return results
}
