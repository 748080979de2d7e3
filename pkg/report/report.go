// Package report assembles the structured, language-parameterized
// justification for a valuation result. The composer decides which facts
// appear and in what order; turning facts into prose is delegated to a
// Renderer collaborator.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"

	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
)

// ErrUnsupportedLanguage is returned for report languages other than en/ar.
// There is no silent fallback language.
var ErrUnsupportedLanguage = errors.New("unsupported report language")

// maxSignalFactors caps how many condition signals appear as factors,
// highest severity first.
const maxSignalFactors = 3

// Fact is a single contributor the composer has decided must appear in the
// report. Effect carries only numbers already present in the
// ValuationResult; the renderer must not invent values.
type Fact struct {
	Kind   domain.FactorKind
	Effect string
	// Signal is set for condition_signal facts.
	Signal domain.ConditionSignal
}

// Renderer turns an ordered fact list into prose in the requested language.
type Renderer interface {
	Render(
		ctx context.Context,
		result domain.ValuationResult,
		facts []Fact,
		lang domain.Language,
	) (summary string, explanations []string, err error)
}

// Composer builds justification reports.
type Composer struct {
	renderer Renderer
}

// NewComposer creates a Composer. A nil renderer uses the deterministic
// bilingual template renderer.
func NewComposer(r Renderer) *Composer {
	if r == nil {
		r = NewTemplateRenderer()
	}
	return &Composer{renderer: r}
}

// Compose produces the justification report for a valuation result.
// Fact order is fixed: market facts, then condition facts, then caveats.
func (c *Composer) Compose(
	ctx context.Context,
	result domain.ValuationResult,
	lang domain.Language,
) (domain.JustificationReport, error) {
	if lang != domain.LanguageEnglish && lang != domain.LanguageArabic {
		return domain.JustificationReport{}, fmt.Errorf(
			"%w: %q", ErrUnsupportedLanguage, lang,
		)
	}

	facts := Facts(result)

	summary, explanations, err := c.renderer.Render(ctx, result, facts, lang)
	if err != nil {
		return domain.JustificationReport{}, fmt.Errorf("rendering report: %w", err)
	}
	if len(explanations) != len(facts) {
		return domain.JustificationReport{}, fmt.Errorf(
			"renderer returned %d explanations for %d facts",
			len(explanations), len(facts),
		)
	}

	rep := domain.JustificationReport{
		Language: lang,
		Summary:  summary,
		Factors:  make([]domain.Factor, 0, len(facts)),
	}
	for i, f := range facts {
		rep.Factors = append(rep.Factors, domain.Factor{
			Kind:        f.Kind,
			Effect:      f.Effect,
			Explanation: explanations[i],
		})
	}
	return rep, nil
}

// Facts selects and orders the meaningful contributors for a result:
// market band position, condition grade, the top contributing signals, and
// a fallback caveat when the price did not come from market data.
func Facts(result domain.ValuationResult) []Fact {
	var facts []Fact

	if !result.Band.Insufficient() {
		facts = append(facts, Fact{
			Kind: domain.FactorMarketBand,
			Effect: fmt.Sprintf("median %s %s over %d listings (%s-%s)",
				result.Band.Median, result.Band.Currency,
				result.Band.SampleSize, result.Band.Low, result.Band.High,
			),
		})
	}

	facts = append(facts, Fact{
		Kind:   domain.FactorConditionGrade,
		Effect: fmt.Sprintf("%s (score %.1f/100)", result.Assessment.Grade, result.Assessment.Score),
	})

	for _, s := range topSignals(result.Assessment.Signals, maxSignalFactors) {
		facts = append(facts, Fact{
			Kind:   domain.FactorConditionSignal,
			Effect: fmt.Sprintf("%s severity %.2f", s.Issue, s.Severity),
			Signal: s,
		})
	}

	if result.Confidence == domain.ConfidenceLow {
		facts = append(facts, Fact{
			Kind:   domain.FactorFallbackNotice,
			Effect: "insufficient market data",
		})
	}

	return facts
}

// topSignals returns up to n signals ordered by severity, highest first.
// Ties keep input order so repeated composition is stable.
func topSignals(signals []domain.ConditionSignal, n int) []domain.ConditionSignal {
	sorted := make([]domain.ConditionSignal, len(signals))
	copy(sorted, signals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity > sorted[j].Severity
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
