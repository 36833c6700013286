package match

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/karthik2sekhar/CompiSure-Agents/internal/model"
)

// NormalizeID folds a member/policy identifier for exact comparison:
// surrounding whitespace trimmed, uppercased.
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// dateKey reduces a timestamp to its calendar day; time-of-day is ignored
// by the match policy.
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Index is a read-only, one-to-many lookup of enrollment records keyed by
// normalized policy ID. A single policy may carry multiple rows across
// effective dates (renewals); the date check disambiguates among them.
// Safe for concurrent use once built.
type Index struct {
	byPolicy map[string][]*model.EnrollmentRecord
	records  []model.EnrollmentRecord
}

// NewIndex builds the enrollment index, preserving file order within each
// policy. Rows duplicating an earlier (policy_id, effective_date) pair are
// kept but logged; lookup returns the first encountered.
func NewIndex(records []model.EnrollmentRecord) *Index {
	idx := &Index{
		byPolicy: make(map[string][]*model.EnrollmentRecord),
		records:  records,
	}

	seen := make(map[string]bool, len(records))
	for i := range idx.records {
		rec := &idx.records[i]
		key := NormalizeID(rec.PolicyID)
		idx.byPolicy[key] = append(idx.byPolicy[key], rec)

		pair := key + "|" + dateKey(rec.EffectiveDate)
		if seen[pair] {
			zap.L().Warn("match: duplicate enrollment row, first occurrence wins",
				zap.String("policy_id", rec.PolicyID),
				zap.String("effective_date", dateKey(rec.EffectiveDate)),
				zap.Int("row", i),
			)
		}
		seen[pair] = true
	}
	return idx
}

// Lookup returns the first enrollment row for the normalized policy ID whose
// effective date falls on the same calendar day and whose carrier matches.
func (idx *Index) Lookup(policyID string, date time.Time, carrier string) *model.EnrollmentRecord {
	day := dateKey(date)
	for _, rec := range idx.byPolicy[NormalizeID(policyID)] {
		if rec.CarrierCode != carrier {
			continue
		}
		if dateKey(rec.EffectiveDate) == day {
			return rec
		}
	}
	return nil
}

// CarrierRecords returns pointers to every enrollment row for a carrier, in
// file order.
func (idx *Index) CarrierRecords(carrier string) []*model.EnrollmentRecord {
	var out []*model.EnrollmentRecord
	for i := range idx.records {
		if idx.records[i].CarrierCode == carrier {
			out = append(out, &idx.records[i])
		}
	}
	return out
}

// Len reports the number of indexed enrollment rows.
func (idx *Index) Len() int { return len(idx.records) }
