package rates

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable() *Table {
	return NewTable("EGP", map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(50),
		"eur": decimal.NewFromInt(55), // codes normalize to upper case
	})
}

func TestTable_RateToBase(t *testing.T) {
	t.Parallel()

	r, ok := newTestTable().Rate("USD", "EGP")
	require.True(t, ok)
	assert.True(t, r.Equal(decimal.NewFromInt(50)))
}

func TestTable_RateFromBase(t *testing.T) {
	t.Parallel()

	r, ok := newTestTable().Rate("EGP", "USD")
	require.True(t, ok)
	assert.True(t, r.Equal(decimal.NewFromFloat(0.02)))
}

func TestTable_CrossRate(t *testing.T) {
	t.Parallel()

	r, ok := newTestTable().Rate("EUR", "USD")
	require.True(t, ok)
	assert.True(t, r.Equal(decimal.NewFromFloat(1.1)), "55/50 via EGP, got %s", r)
}

func TestTable_Identity(t *testing.T) {
	t.Parallel()

	r, ok := newTestTable().Rate("jpy", "JPY")
	require.True(t, ok, "identity conversion needs no table entry")
	assert.True(t, r.Equal(decimal.NewFromInt(1)))
}

func TestTable_UnknownCurrency(t *testing.T) {
	t.Parallel()

	_, ok := newTestTable().Rate("XON", "EGP")
	assert.False(t, ok)

	_, ok = newTestTable().Rate("USD", "XON")
	assert.False(t, ok)
}

func TestTable_Update(t *testing.T) {
	t.Parallel()

	tbl := newTestTable()
	tbl.Update("USD", decimal.NewFromInt(48))

	r, ok := tbl.Rate("USD", "EGP")
	require.True(t, ok)
	assert.True(t, r.Equal(decimal.NewFromInt(48)))
}
