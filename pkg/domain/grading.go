package domain

import dErrors "claimtrail/pkg/domain-errors"

// Grading is the outcome of evaluating a claim's declared cost against the
// external system.
//
// Invariants:
//   - GradingApproved is terminal for the periodic path: reevaluation
//     refuses an approved claim. Only a fresh batch declaration may change
//     it again.
//   - The severity rank orders gradings only to describe improvement vs
//     regression between two evaluations; it carries no transition-legality
//     meaning of its own.
type Grading string

const (
	GradingApproved Grading = "approved"
	GradingPending  Grading = "pending"
	GradingRejected Grading = "rejected"
	GradingNotFound Grading = "not_found"
)

// gradingRank is the fixed severity order: approved > pending > rejected >
// not_found.
var gradingRank = map[Grading]int{
	GradingApproved: 4,
	GradingPending:  3,
	GradingRejected: 2,
	GradingNotFound: 1,
}

// ParseGrading validates a stored or wire-level grading string.
func ParseGrading(raw string) (Grading, error) {
	g := Grading(raw)
	if _, ok := gradingRank[g]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown grading %q", raw)
	}
	return g, nil
}

func (g Grading) String() string { return string(g) }

// IsTerminal reports whether the grading closes the claim.
func (g Grading) IsTerminal() bool { return g == GradingApproved }

// Rank returns the grading's severity rank. Unknown gradings rank zero,
// below every legal value.
func (g Grading) Rank() int { return gradingRank[g] }

// ImprovesOn reports whether g is a strictly better outcome than previous.
func (g Grading) ImprovesOn(previous Grading) bool {
	return g.Rank() > previous.Rank()
}
