package handlers_test

import (
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hossamelshenawy/device-valuator/internal/api/handlers"
	"github.com/hossamelshenawy/device-valuator/internal/rates"
	"github.com/hossamelshenawy/device-valuator/pkg/market"
)

func newBandsAPI(t *testing.T) humatest.TestAPI {
	t.Helper()

	table := rates.NewTable("EGP", map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(48),
	})
	h := handlers.NewBandsHandler(table, market.DefaultConfig())

	_, api := humatest.New(t)
	handlers.RegisterBandRoutes(api, h)
	return api
}

func TestBandsHandler_Aggregate(t *testing.T) {
	t.Parallel()

	api := newBandsAPI(t)

	resp := api.Post("/api/v1/bands", map[string]any{
		"currency": "EGP",
		"observations": []map[string]any{
			{"price": 10000, "currency": "EGP", "source": "a"},
			{"price": 11000, "currency": "EGP", "source": "b"},
			{"price": 12000, "currency": "EGP", "source": "c"},
			{"price": 13000, "currency": "EGP", "source": "d"},
			{"price": 14000, "currency": "EGP", "source": "e"},
		},
	})
	require.Equal(t, http.StatusOK, resp.Code)

	body := resp.Body.String()
	assert.Contains(t, body, `"median":12000`)
	assert.Contains(t, body, `"sample_size":5`)
	assert.Contains(t, body, `"insufficient":false`)
}

func TestBandsHandler_ConvertsCurrency(t *testing.T) {
	t.Parallel()

	api := newBandsAPI(t)

	resp := api.Post("/api/v1/bands", map[string]any{
		"currency": "EGP",
		"observations": []map[string]any{
			{"price": 200, "currency": "USD", "source": "a"},
			{"price": 250, "currency": "USD", "source": "b"},
			{"price": 300, "currency": "USD", "source": "c"},
		},
	})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"median":12000`)
}

func TestBandsHandler_InsufficientSamples(t *testing.T) {
	t.Parallel()

	api := newBandsAPI(t)

	resp := api.Post("/api/v1/bands", map[string]any{
		"currency": "EGP",
		"observations": []map[string]any{
			{"price": 10000, "currency": "EGP", "source": "a"},
			{"price": 11000, "currency": "EGP", "source": "b"},
		},
	})
	require.Equal(t, http.StatusOK, resp.Code)

	body := resp.Body.String()
	assert.Contains(t, body, `"insufficient":true`)
	assert.Contains(t, body, `"sample_size":0`)
}

func TestBandsHandler_EmptyObservationsRejected(t *testing.T) {
	t.Parallel()

	api := newBandsAPI(t)

	resp := api.Post("/api/v1/bands", map[string]any{
		"currency":     "EGP",
		"observations": []any{},
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Body.String(), `expected array length >= 1`)
}
