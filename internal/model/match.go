package model

// MatchOutcome tags the result of joining a commission entry against the
// enrollment index.
type MatchOutcome string

const (
	// OutcomeMatched means member ID and effective date both lined up.
	OutcomeMatched MatchOutcome = "matched"
	// OutcomeUnmatchedCommission means the carrier paid for a policy with
	// no qualifying enrollment row.
	OutcomeUnmatchedCommission MatchOutcome = "unmatched_commission"
	// OutcomeUnmatchedEnrollment means an enrolled policy received no
	// commission entry (a missing-commission signal).
	OutcomeUnmatchedEnrollment MatchOutcome = "unmatched_enrollment"
)

// MatchResult pairs zero-or-one commission entry with zero-or-one enrollment
// record. Exactly one side is nil for the unmatched outcomes.
type MatchResult struct {
	Outcome    MatchOutcome      `json:"outcome"`
	Entry      *CommissionEntry  `json:"entry,omitempty"`
	Enrollment *EnrollmentRecord `json:"enrollment,omitempty"`
}
