package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
)

// Validation errors.
var (
	ErrMissingField = errors.New("missing required field")
	ErrOutOfRange   = errors.New("value out of valid range")
)

// SpecExtractor produces a DeviceSpec from a product name and raw search
// snippets.
type SpecExtractor interface {
	ExtractSpec(
		ctx context.Context,
		product string,
		snippets []string,
	) (domain.DeviceSpec, error)
}

// LLMSpecExtractor implements SpecExtractor using a Backend.
type LLMSpecExtractor struct {
	backend     Backend
	temperature float64
	maxTokens   int
}

// SpecExtractorOption configures the LLMSpecExtractor.
type SpecExtractorOption func(*LLMSpecExtractor)

// WithTemperature sets the temperature for extraction calls.
func WithTemperature(t float64) SpecExtractorOption {
	return func(e *LLMSpecExtractor) {
		e.temperature = t
	}
}

// WithMaxTokens sets the max tokens for extraction responses.
func WithMaxTokens(n int) SpecExtractorOption {
	return func(e *LLMSpecExtractor) {
		e.maxTokens = n
	}
}

// NewLLMSpecExtractor creates a new LLMSpecExtractor.
func NewLLMSpecExtractor(backend Backend, opts ...SpecExtractorOption) *LLMSpecExtractor {
	e := &LLMSpecExtractor{
		backend:     backend,
		temperature: 0.1,
		maxTokens:   512,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type specPayload struct {
	Brand       string            `json:"brand"`
	Model       string            `json:"model"`
	ReleaseYear *int              `json:"release_year"`
	StorageGB   *int              `json:"storage_gb"`
	Attributes  map[string]string `json:"attributes"`
}

// ExtractSpec asks the backend for structured attributes and validates the
// response before returning it.
func (e *LLMSpecExtractor) ExtractSpec(
	ctx context.Context,
	product string,
	snippets []string,
) (domain.DeviceSpec, error) {
	prompt, err := RenderSpecPrompt(product, snippets)
	if err != nil {
		return domain.DeviceSpec{}, err
	}

	resp, err := e.backend.Generate(ctx, GenerateRequest{
		Prompt:      prompt,
		Format:      FormatJSON,
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	})
	if err != nil {
		return domain.DeviceSpec{}, fmt.Errorf("calling LLM for spec extraction: %w", err)
	}

	var payload specPayload
	if err := json.Unmarshal([]byte(resp.Content), &payload); err != nil {
		return domain.DeviceSpec{}, fmt.Errorf("parsing LLM JSON response: %w", err)
	}

	spec := domain.DeviceSpec{
		Brand:      payload.Brand,
		Model:      payload.Model,
		Attributes: payload.Attributes,
	}
	if payload.ReleaseYear != nil {
		spec.ReleaseYear = *payload.ReleaseYear
	}
	if payload.StorageGB != nil {
		spec.StorageGB = *payload.StorageGB
	}

	if err := ValidateSpec(spec); err != nil {
		return domain.DeviceSpec{}, fmt.Errorf("validating extracted spec: %w", err)
	}

	return spec, nil
}

// ValidateSpec checks an extracted DeviceSpec for required fields and sane
// ranges.
func ValidateSpec(spec domain.DeviceSpec) error {
	if spec.Model == "" {
		return fmt.Errorf("model: %w", ErrMissingField)
	}

	if spec.ReleaseYear != 0 {
		maxYear := time.Now().Year() + 1
		if spec.ReleaseYear < 1990 || spec.ReleaseYear > maxYear {
			return fmt.Errorf(
				"release_year %d: %w (must be 1990-%d)",
				spec.ReleaseYear, ErrOutOfRange, maxYear,
			)
		}
	}

	if spec.StorageGB < 0 {
		return fmt.Errorf("storage_gb %d: %w (must be >= 0)", spec.StorageGB, ErrOutOfRange)
	}

	return nil
}
