package main

import (
	"fmt"
	"log"
	"log/slog"

	"github.com/nutriscan/nutriscan/internal/config"
	"github.com/nutriscan/nutriscan/internal/db"
	"github.com/nutriscan/nutriscan/internal/inference"
	"github.com/nutriscan/nutriscan/internal/inference/claude"
	"github.com/nutriscan/nutriscan/internal/inference/ollama"
	"github.com/nutriscan/nutriscan/internal/inference/openai"
	"github.com/nutriscan/nutriscan/internal/logging"
	"github.com/nutriscan/nutriscan/internal/photostore/local"
	"github.com/nutriscan/nutriscan/internal/service"
	"github.com/nutriscan/nutriscan/internal/store"
	"github.com/nutriscan/nutriscan/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	gateway, err := newGateway(cfg, logger)
	if err != nil {
		logger.Error("failed to configure model backend", "error", err)
		return
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	photoStg, err := local.NewLocalPhotoStore(cfg.PhotoPath)
	if err != nil {
		logger.Error("failed to initialize photo store", "error", err)
		return
	}

	pipeline := service.NewPipeline(gateway, logger)
	history := service.NewHistoryService(store.NewHistoryStore(database), store.NewPreferenceStore(database), photoStg, logger)
	server := web.NewServer(pipeline, history, cfg.CORSOrigin, logger)

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

func newGateway(cfg *config.Config, logger *slog.Logger) (inference.Gateway, error) {
	switch cfg.ModelBackend {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			return nil, fmt.Errorf("CLAUDE_API_KEY is required when MODEL_BACKEND=claude")
		}
		logger.Info("using Claude model backend", "model", cfg.ClaudeModel)
		return claude.NewGateway(claude.Options{
			APIKey:    cfg.ClaudeAPIKey,
			Model:     cfg.ClaudeModel,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.ModelTimeout,
		}), nil
	case "ollama":
		logger.Info("using Ollama model backend", "host", cfg.OllamaHost, "model", cfg.OllamaModel)
		return ollama.NewGateway(ollama.Options{
			Host:      cfg.OllamaHost,
			Model:     cfg.OllamaModel,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.ModelTimeout,
		}), nil
	case "openai", "":
		if cfg.ModelAPIKey == "" {
			return nil, fmt.Errorf("MODEL_API_KEY or GROQ_API_KEY is required when MODEL_BACKEND=openai")
		}
		logger.Info("using OpenAI-compatible model backend",
			"base_url", cfg.ModelBaseURL,
			"vision_model", cfg.VisionModel,
			"text_model", cfg.TextModel,
		)
		return openai.NewGateway(openai.Options{
			APIKey:      cfg.ModelAPIKey,
			BaseURL:     cfg.ModelBaseURL,
			VisionModel: cfg.VisionModel,
			TextModel:   cfg.TextModel,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.ModelTimeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown MODEL_BACKEND %q", cfg.ModelBackend)
	}
}
