// Package openai implements inference.Gateway against any OpenAI-compatible
// chat-completions endpoint (Groq, OpenAI, local proxies).
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nutriscan/nutriscan/internal/inference"
)

const defaultBaseURL = "https://api.groq.com/openai/v1"

type request struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

// message.Content is either a plain string or a slice of parts.
type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type part struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type response struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type Options struct {
	APIKey      string
	BaseURL     string
	VisionModel string
	TextModel   string
	MaxTokens   int
	Timeout     time.Duration
}

type Gateway struct {
	apiKey      string
	baseURL     string
	visionModel string
	textModel   string
	maxTokens   int
	client      *http.Client
}

func NewGateway(opts Options) *Gateway {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Gateway{
		apiKey:      opts.APIKey,
		baseURL:     baseURL,
		visionModel: opts.VisionModel,
		textModel:   opts.TextModel,
		maxTokens:   opts.MaxTokens,
		client:      &http.Client{Timeout: opts.Timeout},
	}
}

// buildMessages constructs the role-tagged message list. Image requests carry
// the prompt and the image as a data URI in a single user turn.
func buildMessages(req inference.Request) []message {
	var msgs []message
	if req.System != "" {
		msgs = append(msgs, message{Role: "system", Content: req.System})
	}
	if req.Image == nil {
		return append(msgs, message{Role: "user", Content: req.Prompt})
	}
	return append(msgs, message{
		Role: "user",
		Content: []part{
			{Type: "text", Text: req.Prompt},
			{Type: "image_url", ImageURL: &imageURL{URL: dataURI(req.Image)}},
		},
	})
}

func dataURI(img *inference.Image) string {
	return "data:" + inference.NormaliseMIME(img.MediaType) + ";base64," +
		base64.StdEncoding.EncodeToString(img.Data)
}

func (g *Gateway) model(req inference.Request) string {
	if req.Image != nil {
		return g.visionModel
	}
	return g.textModel
}

func (g *Gateway) Infer(ctx context.Context, req inference.Request) (string, error) {
	body := request{
		Model:     g.model(req),
		Messages:  buildMessages(req),
		MaxTokens: g.maxTokens,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", inference.ErrGatewayUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close provider response body", "error", err)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", inference.ErrGatewayUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody errorResponse
		_ = json.Unmarshal(raw, &errBody)
		return "", &inference.ProviderError{StatusCode: resp.StatusCode, Message: errBody.Error.Message}
	}

	var respBody response
	if err := json.Unmarshal(raw, &respBody); err != nil {
		return "", fmt.Errorf("%w: %v", inference.ErrMalformedResponse, err)
	}
	if len(respBody.Choices) == 0 || respBody.Choices[0].Message.Content == nil {
		return "", fmt.Errorf("%w: no message content in first choice", inference.ErrMalformedResponse)
	}

	return *respBody.Choices[0].Message.Content, nil
}
