package inference

import (
	"context"
	"errors"
	"fmt"
)

// Gateway performs exactly one model call per Infer and returns the model's
// raw text. Implementations must not retry internally.
type Gateway interface {
	Infer(ctx context.Context, req Request) (string, error)
}

// Request is the envelope handed to a Gateway. Image is set only for the
// image-analysis path; its presence selects the vision model.
type Request struct {
	// System is an optional instruction sent ahead of Prompt.
	System string
	Prompt string
	Image  *Image
}

// Image is an inline image payload.
type Image struct {
	Data      []byte
	MediaType string
}

var (
	// ErrGatewayUnavailable covers transport failures: DNS, connection, timeout.
	ErrGatewayUnavailable = errors.New("model gateway unavailable")
	// ErrProvider is matched by every *ProviderError.
	ErrProvider = errors.New("model provider error")
	// ErrMalformedResponse means the provider answered successfully but the
	// body lacked the expected message content.
	ErrMalformedResponse = errors.New("malformed provider response")
)

// ProviderError is a non-success status returned by the provider.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Message)
}

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// NormaliseMIME maps browser MIME types to the four image types accepted by
// the hosted vision models. Unknown types are coerced to jpeg.
func NormaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
