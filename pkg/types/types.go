// Package domain defines the core business types for the device valuator.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// IssueType represents the category of a detected physical issue.
type IssueType string

// Issue type constants.
const (
	IssueScratch          IssueType = "scratch"
	IssueCrack            IssueType = "crack"
	IssueDent             IssueType = "dent"
	IssueDiscoloration    IssueType = "discoloration"
	IssueMissingPart      IssueType = "missing_part"
	IssueFunctionalDefect IssueType = "functional_defect"
)

// Grade represents the categorical condition grade derived from the
// numeric condition score.
type Grade string

// Grade constants.
const (
	GradeExcellent Grade = "excellent"
	GradeGood      Grade = "good"
	GradeFair      Grade = "fair"
	GradePoor      Grade = "poor"
	GradeDamaged   Grade = "damaged"
)

// Confidence represents how much market and condition evidence backed a
// recommended price.
type Confidence string

// Confidence constants.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Language represents a supported justification report language.
type Language string

// Language constants.
const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
)

// ConditionSignal is a single issue detected by the vision collaborator.
// Signals are immutable once received.
type ConditionSignal struct {
	Issue    IssueType `json:"issue_type"`
	Severity float64   `json:"severity"` // 0.0-1.0
	Location string    `json:"location,omitempty"`
}

// ConditionAssessment is the normalized condition derived from a set of
// signals. Never mutated after creation.
type ConditionAssessment struct {
	Score   float64           `json:"score"` // 0-100
	Grade   Grade             `json:"grade"`
	Signals []ConditionSignal `json:"signals"`
}

// MarketObservation is a single raw price observation for a device model.
// Externally sourced; may be noisy or duplicated across scrapes.
type MarketObservation struct {
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Condition string          `json:"listing_condition,omitempty"`
}

// PriceBand is a robust statistical summary of cleaned market observations.
// SampleSize == 0 marks the insufficient-data sentinel; the price fields
// carry no meaning in that case.
type PriceBand struct {
	Low        decimal.Decimal `json:"low"`
	Median     decimal.Decimal `json:"median"`
	High       decimal.Decimal `json:"high"`
	SampleSize int             `json:"sample_size"`
	Currency   string          `json:"currency"`
}

// Insufficient reports whether the band is the insufficient-data sentinel.
func (b PriceBand) Insufficient() bool {
	return b.SampleSize == 0
}

// InsufficientBand returns the sentinel band for a target currency.
func InsufficientBand(currency string) PriceBand {
	return PriceBand{Currency: currency}
}

// DeviceSpec holds the technical identity of the device being valued.
// Supplied by the spec extraction collaborator; read-only input.
type DeviceSpec struct {
	Brand       string            `json:"brand"`
	Model       string            `json:"model"`
	ReleaseYear int               `json:"release_year,omitempty"`
	StorageGB   int               `json:"storage_gb,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// ValuationResult is the priced outcome of a single valuation request.
// Owned by the caller once returned.
type ValuationResult struct {
	RecommendedPrice decimal.Decimal     `json:"recommended_price"`
	Currency         string              `json:"currency"`
	Confidence       Confidence          `json:"confidence"`
	Band             PriceBand           `json:"price_band"`
	Assessment       ConditionAssessment `json:"condition_assessment"`
	Spec             DeviceSpec          `json:"spec"`
}

// FactorKind identifies a contributor in a justification report.
type FactorKind string

// Factor kind constants.
const (
	FactorMarketBand      FactorKind = "market_band"
	FactorConditionGrade  FactorKind = "condition_grade"
	FactorConditionSignal FactorKind = "condition_signal"
	FactorFallbackNotice  FactorKind = "fallback_notice"
)

// Factor is one ordered entry in a justification report. Effect holds the
// numeric weight or adjustment the factor contributed, as already present
// in the ValuationResult.
type Factor struct {
	Kind        FactorKind `json:"kind"`
	Effect      string     `json:"effect"`
	Explanation string     `json:"explanation"`
}

// JustificationReport is the structured, language-specific explanation of
// how a recommended price was derived. Derived read-only artifact.
type JustificationReport struct {
	Language Language `json:"language"`
	Summary  string   `json:"summary"`
	Factors  []Factor `json:"factors"`
}

// ReferencePrice is a cached "new" market reference price for a device
// model, used by the fallback pricing heuristic.
type ReferencePrice struct {
	ID        string          `json:"id"         db:"id"`
	Brand     string          `json:"brand"      db:"brand"`
	Model     string          `json:"model"      db:"model"`
	Price     decimal.Decimal `json:"price"      db:"price"`
	Currency  string          `json:"currency"   db:"currency"`
	Source    string          `json:"source"     db:"source"`
	FetchedAt time.Time       `json:"fetched_at" db:"fetched_at"`
}
