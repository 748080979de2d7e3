package report

import (
	"context"
	"fmt"

	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
)

// TemplateRenderer renders reports from fixed bilingual phrase tables.
// Deterministic; used directly and as the fallback when an LLM renderer
// is unavailable or fails.
type TemplateRenderer struct{}

// NewTemplateRenderer creates a TemplateRenderer.
func NewTemplateRenderer() *TemplateRenderer {
	return &TemplateRenderer{}
}

var gradePhrases = map[domain.Language]map[domain.Grade]string{
	domain.LanguageEnglish: {
		domain.GradeExcellent: "excellent condition with minimal wear",
		domain.GradeGood:      "good, well-maintained condition",
		domain.GradeFair:      "fair condition with visible wear",
		domain.GradePoor:      "poor condition with significant wear",
		domain.GradeDamaged:   "damaged condition",
	},
	domain.LanguageArabic: {
		domain.GradeExcellent: "حالة ممتازة مع استخدام طفيف",
		domain.GradeGood:      "حالة جيدة ومحافظ عليها",
		domain.GradeFair:      "حالة مقبولة مع آثار استخدام واضحة",
		domain.GradePoor:      "حالة ضعيفة مع تآكل كبير",
		domain.GradeDamaged:   "حالة متضررة",
	},
}

var issuePhrases = map[domain.Language]map[domain.IssueType]string{
	domain.LanguageEnglish: {
		domain.IssueScratch:          "scratches",
		domain.IssueCrack:            "a crack",
		domain.IssueDent:             "a dent",
		domain.IssueDiscoloration:    "discoloration",
		domain.IssueMissingPart:      "a missing part",
		domain.IssueFunctionalDefect: "a functional defect",
	},
	domain.LanguageArabic: {
		domain.IssueScratch:          "خدوش",
		domain.IssueCrack:            "شرخ",
		domain.IssueDent:             "انبعاج",
		domain.IssueDiscoloration:    "تغير في اللون",
		domain.IssueMissingPart:      "جزء مفقود",
		domain.IssueFunctionalDefect: "عطل وظيفي",
	},
}

// Render produces deterministic prose for each fact plus a one-line summary.
func (*TemplateRenderer) Render(
	_ context.Context,
	result domain.ValuationResult,
	facts []Fact,
	lang domain.Language,
) (string, []string, error) {
	explanations := make([]string, 0, len(facts))
	for _, f := range facts {
		explanations = append(explanations, renderFact(result, f, lang))
	}
	return renderSummary(result, lang), explanations, nil
}

func renderFact(result domain.ValuationResult, f Fact, lang domain.Language) string {
	ar := lang == domain.LanguageArabic

	switch f.Kind {
	case domain.FactorMarketBand:
		if ar {
			return fmt.Sprintf(
				"السعر الوسيط في السوق %s %s من %d إعلان (النطاق %s إلى %s).",
				result.Band.Median, result.Band.Currency, result.Band.SampleSize,
				result.Band.Low, result.Band.High,
			)
		}
		return fmt.Sprintf(
			"The market median is %s %s across %d listings (band %s to %s).",
			result.Band.Median, result.Band.Currency, result.Band.SampleSize,
			result.Band.Low, result.Band.High,
		)

	case domain.FactorConditionGrade:
		if ar {
			return fmt.Sprintf("تقييم الحالة %.1f من 100: %s.",
				result.Assessment.Score, gradePhrases[lang][result.Assessment.Grade])
		}
		return fmt.Sprintf("Condition scored %.1f/100: %s.",
			result.Assessment.Score, gradePhrases[lang][result.Assessment.Grade])

	case domain.FactorConditionSignal:
		issue := issuePhrases[lang][f.Signal.Issue]
		if ar {
			if f.Signal.Location != "" {
				return fmt.Sprintf("تم رصد %s في %s (الشدة %.2f).",
					issue, f.Signal.Location, f.Signal.Severity)
			}
			return fmt.Sprintf("تم رصد %s (الشدة %.2f).", issue, f.Signal.Severity)
		}
		if f.Signal.Location != "" {
			return fmt.Sprintf("Detected %s on the %s (severity %.2f).",
				issue, f.Signal.Location, f.Signal.Severity)
		}
		return fmt.Sprintf("Detected %s (severity %.2f).", issue, f.Signal.Severity)

	case domain.FactorFallbackNotice:
		if ar {
			return "لا تتوفر بيانات سوق كافية؛ السعر مبني على تقدير مرجعي وبثقة منخفضة."
		}
		return "Not enough market data was available; the price is a reference estimate with low confidence."

	default:
		return f.Effect
	}
}

func renderSummary(result domain.ValuationResult, lang domain.Language) string {
	name := deviceName(result.Spec)
	if lang == domain.LanguageArabic {
		return fmt.Sprintf("السعر العادل المقترح لجهاز %s هو %s %s.",
			name, result.RecommendedPrice, result.Currency)
	}
	return fmt.Sprintf("The recommended fair price for the %s is %s %s.",
		name, result.RecommendedPrice, result.Currency)
}

func deviceName(spec domain.DeviceSpec) string {
	switch {
	case spec.Brand != "" && spec.Model != "":
		return spec.Brand + " " + spec.Model
	case spec.Model != "":
		return spec.Model
	case spec.Brand != "":
		return spec.Brand
	default:
		return "device"
	}
}
