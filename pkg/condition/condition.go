// Package condition normalizes raw per-issue vision signals into a single
// 0-100 condition score with a categorical grade.
package condition

import (
	"errors"
	"fmt"

	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
)

// ErrInvalidSignal is returned when a signal carries a severity outside [0, 1].
var ErrInvalidSignal = errors.New("invalid condition signal")

// Penalties maps each issue type to its base score deduction at full
// severity. The effective deduction is base penalty times severity.
type Penalties map[domain.IssueType]float64

// DefaultPenalties returns the default per-issue base penalties.
func DefaultPenalties() Penalties {
	return Penalties{
		domain.IssueScratch:          8,
		domain.IssueCrack:            25,
		domain.IssueDent:             12,
		domain.IssueDiscoloration:    5,
		domain.IssueMissingPart:      30,
		domain.IssueFunctionalDefect: 35,
	}
}

// Grade thresholds. Exhaustive and non-overlapping over [0, 100].
const (
	thresholdExcellent = 90
	thresholdGood      = 75
	thresholdFair      = 50
	thresholdPoor      = 25
)

// Normalize maps a sequence of condition signals to a ConditionAssessment.
// An empty sequence is treated as pristine (score 100, grade excellent).
//
// All signals are validated before any deduction is computed, so the call
// is atomic: it returns either a full assessment or an error, never a
// partial score.
func Normalize(signals []domain.ConditionSignal, p Penalties) (domain.ConditionAssessment, error) {
	for i, s := range signals {
		if s.Severity < 0 || s.Severity > 1 {
			return domain.ConditionAssessment{}, fmt.Errorf(
				"%w: signal %d (%s) severity %.2f outside [0,1]",
				ErrInvalidSignal, i, s.Issue, s.Severity,
			)
		}
	}

	score := 100.0
	for _, s := range signals {
		score -= p[s.Issue] * s.Severity
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	kept := make([]domain.ConditionSignal, len(signals))
	copy(kept, signals)

	return domain.ConditionAssessment{
		Score:   score,
		Grade:   GradeFor(score),
		Signals: kept,
	}, nil
}

// GradeFor maps a condition score to its categorical grade.
func GradeFor(score float64) domain.Grade {
	switch {
	case score >= thresholdExcellent:
		return domain.GradeExcellent
	case score >= thresholdGood:
		return domain.GradeGood
	case score >= thresholdFair:
		return domain.GradeFair
	case score >= thresholdPoor:
		return domain.GradePoor
	default:
		return domain.GradeDamaged
	}
}
