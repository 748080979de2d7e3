package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/hossamelshenawy/device-valuator/pkg/market"
)

// BandsHandler aggregates raw market observations into a price band.
type BandsHandler struct {
	rates market.RateProvider
	cfg   market.Config
}

// NewBandsHandler creates a new BandsHandler.
func NewBandsHandler(rates market.RateProvider, cfg market.Config) *BandsHandler {
	return &BandsHandler{rates: rates, cfg: cfg}
}

// BandInput is the request body for the band endpoint.
type BandInput struct {
	Body struct {
		Observations []ObservationInput `json:"observations" minItems:"1" doc:"Raw market listing prices"`
		Currency     string             `json:"currency" minLength:"3" doc:"Target currency for the band" example:"EGP"`
	}
}

// BandOutputBody is the response body for the band endpoint.
type BandOutputBody struct {
	Body struct {
		BandOutput
		Insufficient bool `json:"insufficient" doc:"True when too few observations survived cleaning"`
	}
}

// Aggregate cleans the submitted observations and returns a price band.
func (h *BandsHandler) Aggregate(ctx context.Context, input *BandInput) (*BandOutputBody, error) {
	band := market.Aggregate(
		observationsToDomain(input.Body.Observations),
		input.Body.Currency,
		h.rates,
		h.cfg,
	)

	out := &BandOutputBody{}
	out.Body.BandOutput = bandFromDomain(band)
	out.Body.Insufficient = band.Insufficient()
	return out, nil
}

// RegisterBandRoutes registers band endpoints with the Huma API.
func RegisterBandRoutes(api huma.API, h *BandsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "aggregate-band",
		Method:      http.MethodPost,
		Path:        "/api/v1/bands",
		Summary:     "Aggregate market observations",
		Description: "Cleans raw listing prices and summarizes them into a robust price band.",
		Tags:        []string{"bands"},
	}, h.Aggregate)
}
