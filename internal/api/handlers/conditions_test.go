package handlers_test

import (
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hossamelshenawy/device-valuator/internal/api/handlers"
	"github.com/hossamelshenawy/device-valuator/pkg/condition"
	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
)

func TestConditionsHandler_Normalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantBody   string
	}{
		{
			name:       "no signals scores a flawless device",
			body:       map[string]any{"signals": []any{}},
			wantStatus: http.StatusOK,
			wantBody:   `"grade":"excellent"`,
		},
		{
			name: "light scratch stays excellent",
			body: map[string]any{
				"signals": []map[string]any{
					{"issue_type": "scratch", "severity": 0.5},
				},
			},
			wantStatus: http.StatusOK,
			wantBody:   `"score":96`,
		},
		{
			name: "compound severe damage bottoms out the grade",
			body: map[string]any{
				"signals": []map[string]any{
					{"issue_type": "functional_defect", "severity": 1},
					{"issue_type": "crack", "severity": 1},
					{"issue_type": "missing_part", "severity": 1},
				},
			},
			wantStatus: http.StatusOK,
			wantBody:   `"grade":"damaged"`,
		},
		{
			name: "negative severity rejected by schema",
			body: map[string]any{
				"signals": []map[string]any{
					{"issue_type": "dent", "severity": -0.1},
				},
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `expected number >= 0`,
		},
		{
			name: "unknown issue type rejected by schema",
			body: map[string]any{
				"signals": []map[string]any{
					{"issue_type": "possessed", "severity": 0.5},
				},
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `expected value to be one of`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := handlers.NewConditionsHandler(nil)

			_, api := humatest.New(t)
			handlers.RegisterConditionRoutes(api, h)

			resp := api.Post("/api/v1/conditions", tt.body)
			require.Equal(t, tt.wantStatus, resp.Code)
			if tt.wantBody != "" {
				assert.Contains(t, resp.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestConditionsHandler_CustomPenalties(t *testing.T) {
	t.Parallel()

	h := handlers.NewConditionsHandler(condition.Penalties{
		domain.IssueScratch: 50,
	})

	_, api := humatest.New(t)
	handlers.RegisterConditionRoutes(api, h)

	resp := api.Post("/api/v1/conditions", map[string]any{
		"signals": []map[string]any{
			{"issue_type": "scratch", "severity": 1},
		},
	})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"score":50`)
}
