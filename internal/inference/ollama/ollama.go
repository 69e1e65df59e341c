// Package ollama implements inference.Gateway on a local Ollama server's
// generate endpoint, for running without a hosted provider.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nutriscan/nutriscan/internal/inference"
)

type Options struct {
	Host      string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Gateway sends every request to one multimodal model.
type Gateway struct {
	host      string
	model     string
	maxTokens int
	client    *http.Client
}

func NewGateway(opts Options) *Gateway {
	return &Gateway{
		host:      strings.TrimRight(opts.Host, "/"),
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		client:    &http.Client{Timeout: opts.Timeout},
	}
}

type generateRequest struct {
	Model   string         `json:"model"`
	System  string         `json:"system,omitempty"`
	Prompt  string         `json:"prompt"`
	Images  []string       `json:"images,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]int `json:"options,omitempty"`
}

func (g *Gateway) Infer(ctx context.Context, in inference.Request) (string, error) {
	body := generateRequest{
		Model:  g.model,
		System: in.System,
		Prompt: in.Prompt,
		Stream: false,
	}
	if in.Image != nil {
		body.Images = []string{base64.StdEncoding.EncodeToString(in.Image.Data)}
	}
	if g.maxTokens > 0 {
		body.Options = map[string]int{"num_predict": g.maxTokens}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", inference.ErrGatewayUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", inference.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", inference.ErrGatewayUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &errBody)
		return "", &inference.ProviderError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	var respBody struct {
		Response *string `json:"response"`
	}
	if err := json.Unmarshal(raw, &respBody); err != nil {
		return "", fmt.Errorf("%w: %v", inference.ErrMalformedResponse, err)
	}
	if respBody.Response == nil {
		return "", fmt.Errorf("%w: no response field", inference.ErrMalformedResponse)
	}
	return *respBody.Response, nil
}
