package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/hossamelshenawy/device-valuator/pkg/condition"
)

// ConditionsHandler normalizes raw condition signals into a score and grade.
type ConditionsHandler struct {
	penalties condition.Penalties
}

// NewConditionsHandler creates a new ConditionsHandler. A nil penalties map
// falls back to the defaults.
func NewConditionsHandler(p condition.Penalties) *ConditionsHandler {
	if p == nil {
		p = condition.DefaultPenalties()
	}
	return &ConditionsHandler{penalties: p}
}

// ConditionInput is the request body for the condition endpoint.
type ConditionInput struct {
	Body struct {
		Signals []SignalInput `json:"signals" doc:"Observed condition issues; empty means flawless"`
	}
}

// ConditionOutput is the response body for the condition endpoint.
type ConditionOutput struct {
	Body AssessmentOutput
}

// Normalize scores the submitted signals.
func (h *ConditionsHandler) Normalize(ctx context.Context, input *ConditionInput) (*ConditionOutput, error) {
	assessment, err := condition.Normalize(signalsToDomain(input.Body.Signals), h.penalties)
	if err != nil {
		if errors.Is(err, condition.ErrInvalidSignal) {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		return nil, err
	}

	out := &ConditionOutput{}
	out.Body = assessmentFromDomain(assessment)
	return out, nil
}

// RegisterConditionRoutes registers condition endpoints with the Huma API.
func RegisterConditionRoutes(api huma.API, h *ConditionsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "normalize-condition",
		Method:      http.MethodPost,
		Path:        "/api/v1/conditions",
		Summary:     "Normalize condition signals",
		Description: "Converts raw condition signals into a 0-100 score and grade.",
		Tags:        []string{"conditions"},
		Errors:      []int{http.StatusUnprocessableEntity},
	}, h.Normalize)
}
