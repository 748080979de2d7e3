package search

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency-anchored price patterns. A bare number is never treated as a
// price; it must sit next to a recognized currency marker.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:EGP|LE|ج\.م|جنيه)\s*([0-9][0-9,]*(?:\.[0-9]{2})?)`),
	regexp.MustCompile(`(?i)([0-9][0-9,]*(?:\.[0-9]{2})?)\s*(?:EGP|LE|ج\.م|جنيه)`),
}

// Words that indicate a nearby number is not a price (ratings, warranty
// periods, installment counts).
var invalidContext = []string{
	"star", "rating", "review", "piece", "item", "year",
	"warranty", "month", "قسط", "شهور",
}

// Listings containing these markers refer to used or refurbished units.
var usedMarkers = []string{
	"used", "refurbished", "open box", "renewed", "مستعمل", "مجدد",
}

const contextRadius = 20

// Extractor pulls plausible prices out of listing text.
type Extractor struct {
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
}

// NewExtractor returns an extractor with the default plausible price range.
func NewExtractor() *Extractor {
	return &Extractor{
		MinPrice: decimal.NewFromInt(100),
		MaxPrice: decimal.NewFromInt(200000),
	}
}

// Price extracts the best price candidate from text. When several
// currency-anchored numbers survive the context filter, the highest one is
// returned; accessory and installment figures skew low. The second return
// value is false when no usable price was found.
func (e *Extractor) Price(text string) (decimal.Decimal, bool) {
	lower := strings.ToLower(text)

	var best decimal.Decimal
	found := false

	for _, pat := range pricePatterns {
		for _, m := range pat.FindAllStringSubmatchIndex(text, -1) {
			raw := strings.ReplaceAll(text[m[2]:m[3]], ",", "")
			val, err := decimal.NewFromString(raw)
			if err != nil {
				continue
			}
			if e.suspectContext(lower, m[0], m[1]) {
				continue
			}
			if val.LessThan(e.MinPrice) || val.GreaterThan(e.MaxPrice) {
				continue
			}
			if !found || val.GreaterThan(best) {
				best = val
				found = true
			}
		}
	}

	return best, found
}

// suspectContext reports whether the text surrounding a match contains a
// word that disqualifies the number as a price.
func (e *Extractor) suspectContext(lower string, start, end int) bool {
	from := max(0, start-contextRadius)
	to := min(len(lower), end+contextRadius)
	window := lower[from:to]

	for _, word := range invalidContext {
		if strings.Contains(window, word) {
			return true
		}
	}
	return false
}

// mentionsUsed reports whether listing text refers to a used or
// refurbished unit, in English or Arabic.
func mentionsUsed(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range usedMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
