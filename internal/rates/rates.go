// Package rates implements the currency conversion table used by the
// market aggregator.
package rates

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Table is a RateProvider backed by an in-memory table of rates into a
// single base currency. Conversions between two non-base currencies go
// through the base. Safe for concurrent use.
type Table struct {
	mu   sync.RWMutex
	base string
	// toBase holds how many units of the base currency one unit of the
	// keyed currency is worth.
	toBase map[string]decimal.Decimal
}

// NewTable creates a rate table with the given base currency.
func NewTable(base string, toBase map[string]decimal.Decimal) *Table {
	normalized := make(map[string]decimal.Decimal, len(toBase))
	for code, r := range toBase {
		normalized[strings.ToUpper(code)] = r
	}
	return &Table{
		base:   strings.ToUpper(base),
		toBase: normalized,
	}
}

// Rate returns the multiplier converting an amount in from-currency to
// to-currency. ok is false when either currency is unknown; callers drop
// the observation rather than failing.
func (t *Table) Rate(from, to string) (decimal.Decimal, bool) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)

	if from == to {
		return decimal.NewFromInt(1), true
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	fromRate, ok := t.rateToBase(from)
	if !ok {
		return decimal.Decimal{}, false
	}
	toRate, ok := t.rateToBase(to)
	if !ok {
		return decimal.Decimal{}, false
	}
	if toRate.IsZero() {
		return decimal.Decimal{}, false
	}

	return fromRate.Div(toRate), true
}

// Update replaces the rate for a currency code.
func (t *Table) Update(code string, toBase decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.toBase[strings.ToUpper(code)] = toBase
}

func (t *Table) rateToBase(code string) (decimal.Decimal, bool) {
	if code == t.base {
		return decimal.NewFromInt(1), true
	}
	r, ok := t.toBase[code]
	return r, ok
}
