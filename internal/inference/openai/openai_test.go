package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriscan/nutriscan/internal/inference"
)

func newTestGateway(url string) *Gateway {
	return NewGateway(Options{
		APIKey:      "gsk-test",
		BaseURL:     url,
		VisionModel: "vision-model",
		TextModel:   "text-model",
		MaxTokens:   1024,
		Timeout:     time.Second,
	})
}

func replyWith(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func TestInferImageRequestShape(t *testing.T) {
	var got map[string]interface{}
	var auth, path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		replyWith(`{"foodName":"Apple"}`)(w, r)
	}))
	defer server.Close()

	g := newTestGateway(server.URL)
	out, err := g.Infer(context.Background(), inference.Request{
		Prompt: "analyze",
		Image:  &inference.Image{Data: []byte{0xFF, 0xD8}, MediaType: "image/png"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"foodName":"Apple"}`, out)

	assert.Equal(t, "Bearer gsk-test", auth)
	assert.Equal(t, "/chat/completions", path)
	assert.Equal(t, "vision-model", got["model"])
	assert.EqualValues(t, 1024, got["max_tokens"])

	msgs := got["messages"].([]interface{})
	require.Len(t, msgs, 1)
	parts := msgs[0].(map[string]interface{})["content"].([]interface{})
	require.Len(t, parts, 2)
	assert.Equal(t, "analyze", parts[0].(map[string]interface{})["text"])
	img := parts[1].(map[string]interface{})["image_url"].(map[string]interface{})
	assert.Equal(t, "data:image/png;base64,/9g=", img["url"])
}

func TestInferTextUsesTextModelAndSystemRole(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		replyWith("drink water")(w, r)
	}))
	defer server.Close()

	g := newTestGateway(server.URL)
	out, err := g.Infer(context.Background(), inference.Request{System: "be brief", Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "drink water", out)

	assert.Equal(t, "text-model", got["model"])
	msgs := got["messages"].([]interface{})
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]interface{})["role"])
	assert.Equal(t, "be brief", msgs[0].(map[string]interface{})["content"])
	assert.Equal(t, "user", msgs[1].(map[string]interface{})["role"])
	assert.Equal(t, "hi", msgs[1].(map[string]interface{})["content"])
}

func TestInferProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	_, err := newTestGateway(server.URL).Infer(context.Background(), inference.Request{Prompt: "hi"})
	require.Error(t, err)

	var pe *inference.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusTooManyRequests, pe.StatusCode)
	assert.Equal(t, "rate limited", pe.Message)
	assert.ErrorIs(t, err, inference.ErrProvider)
}

func TestInferProviderErrorWithoutJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestGateway(server.URL).Infer(context.Background(), inference.Request{Prompt: "hi"})
	var pe *inference.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusBadGateway, pe.StatusCode)
	assert.Empty(t, pe.Message)
}

func TestInferMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "<html>oops</html>"},
		{name: "no choices", body: `{"choices":[]}`},
		{name: "no content", body: `{"choices":[{"message":{"role":"assistant"}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestGateway(server.URL).Infer(context.Background(), inference.Request{Prompt: "hi"})
			assert.ErrorIs(t, err, inference.ErrMalformedResponse)
		})
	}
}

func TestInferTransportFailure(t *testing.T) {
	server := httptest.NewServer(replyWith("unused"))
	url := server.URL
	server.Close()

	_, err := newTestGateway(url).Infer(context.Background(), inference.Request{Prompt: "hi"})
	assert.ErrorIs(t, err, inference.ErrGatewayUnavailable)
}

func TestInferTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	g := NewGateway(Options{BaseURL: server.URL, TextModel: "m", Timeout: 50 * time.Millisecond})
	_, err := g.Infer(context.Background(), inference.Request{Prompt: "hi"})
	assert.ErrorIs(t, err, inference.ErrGatewayUnavailable)
}

func TestNewGatewayDefaultsBaseURL(t *testing.T) {
	g := NewGateway(Options{})
	assert.Equal(t, defaultBaseURL, g.baseURL)

	g = NewGateway(Options{BaseURL: "http://localhost:8080/v1/"})
	assert.Equal(t, "http://localhost:8080/v1", g.baseURL)
}
