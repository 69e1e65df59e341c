package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriscan/nutriscan/internal/config"
	"github.com/nutriscan/nutriscan/internal/inference/claude"
	"github.com/nutriscan/nutriscan/internal/inference/ollama"
	"github.com/nutriscan/nutriscan/internal/inference/openai"
)

func TestNewGateway(t *testing.T) {
	t.Run("openai", func(t *testing.T) {
		gw, err := newGateway(&config.Config{ModelBackend: "openai", ModelAPIKey: "k"}, slog.Default())
		require.NoError(t, err)
		assert.IsType(t, &openai.Gateway{}, gw)
	})

	t.Run("claude", func(t *testing.T) {
		gw, err := newGateway(&config.Config{ModelBackend: "claude", ClaudeAPIKey: "k"}, slog.Default())
		require.NoError(t, err)
		assert.IsType(t, &claude.Gateway{}, gw)
	})

	t.Run("ollama", func(t *testing.T) {
		gw, err := newGateway(&config.Config{ModelBackend: "ollama", OllamaHost: "http://localhost:11434", OllamaModel: "llava"}, slog.Default())
		require.NoError(t, err)
		assert.IsType(t, &ollama.Gateway{}, gw)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := newGateway(&config.Config{ModelBackend: "openai"}, slog.Default())
		assert.Error(t, err)
		_, err = newGateway(&config.Config{ModelBackend: "claude"}, slog.Default())
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := newGateway(&config.Config{ModelBackend: "gemini", ModelAPIKey: "k"}, slog.Default())
		assert.Error(t, err)
	})
}
