package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/hossamelshenawy/device-valuator/internal/engine"
	"github.com/hossamelshenawy/device-valuator/pkg/condition"
	"github.com/hossamelshenawy/device-valuator/pkg/report"
	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
)

// Valuator runs a full valuation request. Implemented by engine.Engine.
type Valuator interface {
	Valuate(ctx context.Context, req engine.Request) (*engine.Result, error)
}

// ValuationsHandler handles full valuation requests.
type ValuationsHandler struct {
	engine Valuator
}

// NewValuationsHandler creates a new ValuationsHandler.
func NewValuationsHandler(v Valuator) *ValuationsHandler {
	return &ValuationsHandler{engine: v}
}

// ValuationInput is the request body for the valuation endpoint.
type ValuationInput struct {
	Body struct {
		Product      string             `json:"product,omitempty" doc:"Free-text device name, used when spec is omitted" example:"Samsung Galaxy S21 128GB"`
		Spec         *SpecInput         `json:"spec,omitempty" doc:"Device identity; skips extraction when present"`
		Signals      []SignalInput      `json:"signals,omitempty" doc:"Observed condition issues"`
		Observations []ObservationInput `json:"observations,omitempty" doc:"Market listing prices; searched when omitted"`
		Currency     string             `json:"currency,omitempty" doc:"Target currency" example:"EGP"`
		Language     string             `json:"language,omitempty" enum:"en,ar" doc:"Report language (default en)"`
	}
}

// ValuationOutput is the response body for the valuation endpoint.
type ValuationOutput struct {
	Body struct {
		RecommendedPrice float64          `json:"recommended_price" doc:"Recommended resale price"`
		Currency         string           `json:"currency" doc:"Price currency"`
		Confidence       string           `json:"confidence" doc:"Confidence level: high, medium, or low"`
		Band             BandOutput       `json:"price_band" doc:"Market band behind the price"`
		Assessment       AssessmentOutput `json:"condition_assessment" doc:"Normalized condition"`
		Report           ReportOutput     `json:"report" doc:"Structured price justification"`
	}
}

// Valuate runs a valuation request end to end.
func (h *ValuationsHandler) Valuate(ctx context.Context, input *ValuationInput) (*ValuationOutput, error) {
	req := engine.Request{
		Product:      input.Body.Product,
		Signals:      signalsToDomain(input.Body.Signals),
		Observations: observationsToDomain(input.Body.Observations),
		Currency:     input.Body.Currency,
		Language:     domain.Language(input.Body.Language),
	}
	if input.Body.Spec != nil {
		spec := input.Body.Spec.toDomain()
		req.Spec = &spec
	}

	res, err := h.engine.Valuate(ctx, req)
	switch {
	case errors.Is(err, engine.ErrNoDevice):
		return nil, huma.Error422UnprocessableEntity("either spec or product is required")
	case errors.Is(err, condition.ErrInvalidSignal):
		return nil, huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, report.ErrUnsupportedLanguage):
		return nil, huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, engine.ErrNoReferencePrice):
		return nil, huma.Error502BadGateway("no market data or reference price available: " + err.Error())
	case err != nil:
		return nil, err
	}

	out := &ValuationOutput{}
	out.Body.RecommendedPrice = res.Valuation.RecommendedPrice.InexactFloat64()
	out.Body.Currency = res.Valuation.Currency
	out.Body.Confidence = string(res.Valuation.Confidence)
	out.Body.Band = bandFromDomain(res.Valuation.Band)
	out.Body.Assessment = assessmentFromDomain(res.Valuation.Assessment)
	out.Body.Report = reportFromDomain(res.Report)
	return out, nil
}

// RegisterValuationRoutes registers valuation endpoints with the Huma API.
func RegisterValuationRoutes(api huma.API, h *ValuationsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "create-valuation",
		Method:      http.MethodPost,
		Path:        "/api/v1/valuations",
		Summary:     "Value a used device",
		Description: "Normalizes condition, aggregates market prices, and returns a justified resale price.",
		Tags:        []string{"valuations"},
		Errors:      []int{http.StatusUnprocessableEntity, http.StatusBadGateway},
	}, h.Valuate)
}
