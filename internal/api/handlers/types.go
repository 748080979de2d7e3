package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
)

// SpecInput identifies the device being valued.
type SpecInput struct {
	Brand       string            `json:"brand,omitempty" doc:"Device manufacturer" example:"Samsung"`
	Model       string            `json:"model" minLength:"1" doc:"Device model" example:"Galaxy S21"`
	ReleaseYear int               `json:"release_year,omitempty" doc:"Year of release" example:"2021"`
	StorageGB   int               `json:"storage_gb,omitempty" doc:"Storage capacity in gigabytes" example:"128"`
	Attributes  map[string]string `json:"attributes,omitempty" doc:"Free-form spec attributes"`
}

// SignalInput is one observed physical or functional issue.
type SignalInput struct {
	IssueType string  `json:"issue_type" enum:"scratch,crack,dent,discoloration,missing_part,functional_defect" doc:"Issue category"`
	Severity  float64 `json:"severity" minimum:"0" maximum:"1" doc:"Issue severity in [0,1]"`
	Location  string  `json:"location,omitempty" doc:"Where on the device" example:"screen"`
}

// ObservationInput is one market listing price.
type ObservationInput struct {
	Price     float64   `json:"price" doc:"Listing price" example:"12500"`
	Currency  string    `json:"currency" minLength:"3" doc:"ISO currency code" example:"EGP"`
	Source    string    `json:"source,omitempty" doc:"Marketplace or store name" example:"Jumia Egypt"`
	Timestamp time.Time `json:"timestamp,omitempty" doc:"When the listing was observed"`
	Condition string    `json:"condition,omitempty" doc:"Listing condition label" example:"used"`
}

// BandOutput summarizes a market price band.
type BandOutput struct {
	Low        float64 `json:"low" doc:"Lower bound of the band"`
	Median     float64 `json:"median" doc:"Median market price"`
	High       float64 `json:"high" doc:"Upper bound of the band"`
	SampleSize int     `json:"sample_size" doc:"Cleaned observations behind the band"`
	Currency   string  `json:"currency" doc:"Band currency"`
}

// AssessmentOutput is a normalized condition assessment.
type AssessmentOutput struct {
	Score   float64       `json:"score" doc:"Condition score 0-100"`
	Grade   string        `json:"grade" doc:"Condition grade"`
	Signals []SignalInput `json:"signals,omitempty" doc:"Signals behind the score"`
}

// FactorOutput is one entry of a justification report.
type FactorOutput struct {
	Kind        string `json:"kind" doc:"Contributor kind"`
	Effect      string `json:"effect" doc:"Numeric weight or adjustment contributed"`
	Explanation string `json:"explanation" doc:"Human-readable explanation"`
}

// ReportOutput is the language-specific justification report.
type ReportOutput struct {
	Language string         `json:"language" doc:"Report language"`
	Summary  string         `json:"summary" doc:"One-paragraph summary"`
	Factors  []FactorOutput `json:"factors" doc:"Ordered contributing factors"`
}

func (s SpecInput) toDomain() domain.DeviceSpec {
	return domain.DeviceSpec{
		Brand:       s.Brand,
		Model:       s.Model,
		ReleaseYear: s.ReleaseYear,
		StorageGB:   s.StorageGB,
		Attributes:  s.Attributes,
	}
}

func signalsToDomain(in []SignalInput) []domain.ConditionSignal {
	out := make([]domain.ConditionSignal, 0, len(in))
	for _, s := range in {
		out = append(out, domain.ConditionSignal{
			Issue:    domain.IssueType(s.IssueType),
			Severity: s.Severity,
			Location: s.Location,
		})
	}
	return out
}

func signalsFromDomain(in []domain.ConditionSignal) []SignalInput {
	out := make([]SignalInput, 0, len(in))
	for _, s := range in {
		out = append(out, SignalInput{
			IssueType: string(s.Issue),
			Severity:  s.Severity,
			Location:  s.Location,
		})
	}
	return out
}

func observationsToDomain(in []ObservationInput) []domain.MarketObservation {
	out := make([]domain.MarketObservation, 0, len(in))
	for _, o := range in {
		out = append(out, domain.MarketObservation{
			Price:     decimal.NewFromFloat(o.Price),
			Currency:  o.Currency,
			Source:    o.Source,
			Timestamp: o.Timestamp,
			Condition: o.Condition,
		})
	}
	return out
}

func bandFromDomain(b domain.PriceBand) BandOutput {
	return BandOutput{
		Low:        b.Low.InexactFloat64(),
		Median:     b.Median.InexactFloat64(),
		High:       b.High.InexactFloat64(),
		SampleSize: b.SampleSize,
		Currency:   b.Currency,
	}
}

func assessmentFromDomain(a domain.ConditionAssessment) AssessmentOutput {
	return AssessmentOutput{
		Score:   a.Score,
		Grade:   string(a.Grade),
		Signals: signalsFromDomain(a.Signals),
	}
}

func reportFromDomain(r domain.JustificationReport) ReportOutput {
	factors := make([]FactorOutput, 0, len(r.Factors))
	for _, f := range r.Factors {
		factors = append(factors, FactorOutput{
			Kind:        string(f.Kind),
			Effect:      f.Effect,
			Explanation: f.Explanation,
		})
	}
	return ReportOutput{
		Language: string(r.Language),
		Summary:  r.Summary,
		Factors:  factors,
	}
}
