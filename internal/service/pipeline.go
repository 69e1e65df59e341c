package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nutriscan/nutriscan/internal/inference"
	"github.com/nutriscan/nutriscan/internal/logging"
	"github.com/nutriscan/nutriscan/internal/nutrition"
)

// ChatFallbackReply is returned instead of any chat failure.
const ChatFallbackReply = "Sorry, I could not process that. Please try again."

// ErrChatFailed accompanies ChatFallbackReply. It deliberately carries no
// detail about the underlying failure.
var ErrChatFailed = errors.New("chat failed")

// Pipeline turns a food photo or a chat question, plus the user's dietary
// context, into a model call and a validated answer. It holds no mutable
// state and is safe for concurrent use.
type Pipeline struct {
	gateway inference.Gateway
	logger  *slog.Logger
}

func NewPipeline(gateway inference.Gateway, logger *slog.Logger) *Pipeline {
	return &Pipeline{gateway: gateway, logger: logger}
}

// AnalyzeImage returns a validated NutritionRecord or an error whose kind is
// reported by nutrition.Kind. Failures are never retried here.
func (p *Pipeline) AnalyzeImage(ctx context.Context, imageData []byte, mimeType string, prefs []nutrition.Preference, restrictions string) (*nutrition.NutritionRecord, error) {
	log := logging.FromContext(ctx, p.logger)

	if len(imageData) == 0 {
		return nil, nutrition.ErrNoImageProvided
	}

	dc := nutrition.BuildDietaryContext(prefs, restrictions)
	if !dc.IsEmpty() {
		log.Debug("diet context", "context", dc.String())
	}

	log.Info("image analysis started", "mime_type", mimeType, "bytes", len(imageData))
	start := time.Now()

	raw, err := p.gateway.Infer(ctx, inference.Request{
		Prompt: nutrition.AnalysisPrompt(dc),
		Image:  &inference.Image{Data: imageData, MediaType: mimeType},
	})
	if err != nil {
		log.Error("image analysis failed", "kind", nutrition.Kind(err), "error", err)
		return nil, err
	}

	record, err := nutrition.ParseRecord(raw)
	if err != nil {
		log.Error("image analysis failed", "kind", nutrition.Kind(err), "error", err)
		log.Debug("unusable model output", "raw", raw)
		return nil, err
	}

	for _, w := range record.RangeWarnings() {
		log.Warn("nutrition value out of range", "food_name", record.FoodName, "warning", w)
	}
	log.Info("image analysis complete", "food_name", record.FoodName, "duration_ms", time.Since(start).Milliseconds())
	return record, nil
}

// Chat answers a question about food. On any failure it returns
// ChatFallbackReply together with ErrChatFailed.
func (p *Pipeline) Chat(ctx context.Context, message string, facts *nutrition.FoodFacts, prefs []nutrition.Preference, restrictions string) (string, error) {
	log := logging.FromContext(ctx, p.logger)

	dc := nutrition.BuildDietaryContext(prefs, restrictions)
	raw, err := p.gateway.Infer(ctx, inference.Request{
		System: nutrition.ChatPrompt(facts, dc),
		Prompt: message,
	})
	if err != nil {
		log.Error("chat failed", "kind", nutrition.Kind(err), "error", err)
		return ChatFallbackReply, ErrChatFailed
	}

	reply, err := nutrition.NormalizeReply(raw)
	if err != nil {
		log.Error("chat failed", "kind", nutrition.Kind(err), "error", err)
		return ChatFallbackReply, ErrChatFailed
	}

	log.Info("chat reply sent", "chars", len(reply))
	return reply, nil
}
