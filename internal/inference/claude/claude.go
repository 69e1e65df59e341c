package claude

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/nutriscan/nutriscan/internal/inference"
)

type Options struct {
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	// BaseURL overrides the Anthropic API root; tests point it at httptest.
	BaseURL string
}

// Gateway implements inference.Gateway on the Anthropic Messages API. Claude
// models are multimodal, so one model serves both image and chat requests.
type Gateway struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

func NewGateway(opts Options) *Gateway {
	clientOpts := []anthropic.ClientOption{
		anthropic.WithHTTPClient(&http.Client{Timeout: opts.Timeout}),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, anthropic.WithBaseURL(opts.BaseURL))
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Gateway{
		client:    anthropic.NewClient(opts.APIKey, clientOpts...),
		model:     opts.Model,
		maxTokens: maxTokens,
	}
}

// buildMessages puts the image block ahead of the prompt text, the order
// Anthropic recommends for vision requests.
func buildMessages(req inference.Request) []anthropic.Message {
	var content []anthropic.MessageContent
	if req.Image != nil {
		content = append(content, anthropic.NewImageMessageContent(
			anthropic.NewMessageContentSource(
				anthropic.MessagesContentSourceTypeBase64,
				inference.NormaliseMIME(req.Image.MediaType),
				base64.StdEncoding.EncodeToString(req.Image.Data),
			),
		))
	}
	content = append(content, anthropic.NewTextMessageContent(req.Prompt))
	return []anthropic.Message{{Role: anthropic.RoleUser, Content: content}}
}

func (g *Gateway) Infer(ctx context.Context, req inference.Request) (string, error) {
	resp, err := g.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(g.model),
		System:    req.System,
		Messages:  buildMessages(req),
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		return "", translateError(err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("%w: empty content", inference.ErrMalformedResponse)
	}
	return resp.GetFirstContentText(), nil
}

func translateError(err error) error {
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		return &inference.ProviderError{StatusCode: statusForType(string(apiErr.Type)), Message: apiErr.Message}
	}
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) {
		return &inference.ProviderError{StatusCode: reqErr.StatusCode}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", inference.ErrGatewayUnavailable, err)
	}
	return fmt.Errorf("%w: %v", inference.ErrMalformedResponse, err)
}

// statusForType recovers the HTTP status from the Anthropic error type, which
// is all the client library exposes for decoded API errors.
func statusForType(errType string) int {
	switch errType {
	case "invalid_request_error":
		return http.StatusBadRequest
	case "authentication_error":
		return http.StatusUnauthorized
	case "permission_error":
		return http.StatusForbidden
	case "not_found_error":
		return http.StatusNotFound
	case "request_too_large":
		return http.StatusRequestEntityTooLarge
	case "rate_limit_error":
		return http.StatusTooManyRequests
	case "overloaded_error":
		return 529
	default:
		return http.StatusInternalServerError
	}
}
