package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriscan/nutriscan/internal/inference"
)

func TestOllamaInferWithImage(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llava","response":"{\"foodName\":\"Milk\"}","done":true}`))
	}))
	defer server.Close()

	gw := NewGateway(Options{Host: server.URL + "/", Model: "llava", MaxTokens: 512})
	imageData := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	out, err := gw.Infer(context.Background(), inference.Request{
		Prompt: "analyze",
		Image:  &inference.Image{Data: imageData, MediaType: "image/jpeg"},
	})

	require.NoError(t, err)
	assert.Equal(t, `{"foodName":"Milk"}`, out)
	assert.Equal(t, "llava", got.Model)
	assert.Equal(t, "analyze", got.Prompt)
	assert.False(t, got.Stream)
	assert.Equal(t, []string{base64.StdEncoding.EncodeToString(imageData)}, got.Images)
	assert.Equal(t, 512, got.Options["num_predict"])
}

func TestOllamaInferChatSendsSystem(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"Sure."}`))
	}))
	defer server.Close()

	out, err := NewGateway(Options{Host: server.URL, Model: "llava"}).Infer(context.Background(), inference.Request{System: "be brief", Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Sure.", out)
	assert.Equal(t, "be brief", got.System)
	assert.Empty(t, got.Images)
}

func TestOllamaInferNetworkError(t *testing.T) {
	gw := NewGateway(Options{Host: "http://localhost:99999", Model: "llava"})

	_, err := gw.Infer(context.Background(), inference.Request{Prompt: "hi"})
	assert.ErrorIs(t, err, inference.ErrGatewayUnavailable)
}

func TestOllamaInferErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'llava' not found"}`))
	}))
	defer server.Close()

	_, err := NewGateway(Options{Host: server.URL, Model: "llava"}).Infer(context.Background(), inference.Request{Prompt: "hi"})
	var pe *inference.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusNotFound, pe.StatusCode)
	assert.Contains(t, pe.Message, "not found")
	assert.ErrorIs(t, err, inference.ErrProvider)
}

func TestOllamaInferInvalidResponse(t *testing.T) {
	for name, body := range map[string]string{
		"not json":      "not json",
		"missing field": `{"done":true}`,
		"null response": `{"response":null}`,
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			_, err := NewGateway(Options{Host: server.URL, Model: "llava"}).Infer(context.Background(), inference.Request{Prompt: "hi"})
			assert.ErrorIs(t, err, inference.ErrMalformedResponse)
		})
	}
}
