package nutrition

import (
	"errors"

	"github.com/nutriscan/nutriscan/internal/inference"
)

var (
	ErrNoImageProvided  = errors.New("no image provided")
	ErrUnparsableOutput = errors.New("unparsable model output")
	ErrInvalidSchema    = errors.New("invalid nutrition schema")
)

// Kind names the failure class of err for logs and API error codes.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoImageProvided):
		return "NoImageProvided"
	case errors.Is(err, inference.ErrGatewayUnavailable):
		return "GatewayUnavailable"
	case errors.Is(err, inference.ErrProvider):
		return "ProviderError"
	case errors.Is(err, inference.ErrMalformedResponse):
		return "MalformedProviderResponse"
	case errors.Is(err, ErrUnparsableOutput):
		return "UnparsableModelOutput"
	case errors.Is(err, ErrInvalidSchema):
		return "InvalidNutritionSchema"
	default:
		return "Internal"
	}
}
