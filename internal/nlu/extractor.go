package nlu

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/avvvet/orderbot/internal/models"
	"github.com/avvvet/orderbot/internal/prompts"
)

// Extractor turns one free-text utterance into a recognized intent. The
// result is consumed immediately; implementations keep no per-conversation
// state.
type Extractor interface {
	Recognize(ctx context.Context, utterance string) (*models.RecognizedIntent, error)
}

// LLMExtractor recognizes intents with an OpenAI-compatible chat model.
type LLMExtractor struct {
	model   llms.Model
	catalog *Catalog
	timeout time.Duration
	logger  *zap.Logger
}

// NewLLMExtractor connects to the model endpoint. All three credentials must
// be present; the caller checks Config.NLUConfigured before constructing.
func NewLLMExtractor(apiKey, modelName, endpoint string, timeout time.Duration, catalog *Catalog, logger *zap.Logger) (*LLMExtractor, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}

	model, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(modelName),
		openai.WithBaseURL(endpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	return &LLMExtractor{
		model:   model,
		catalog: catalog,
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (e *LLMExtractor) Recognize(ctx context.Context, utterance string) (*models.RecognizedIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	prompt := prompts.BuildExtractionPrompt(utterance, e.catalog.Items())

	content, err := llms.GenerateFromSinglePrompt(ctx, e.model, prompt,
		llms.WithTemperature(0.1), // low temperature for consistent extraction
		llms.WithMaxTokens(500),
	)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	intent, err := prompts.ParseExtraction(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}

	e.clean(intent)

	e.logger.Debug("utterance recognized",
		zap.String("intent", intent.Intent),
		zap.Strings("items", intent.Entities.Items),
		zap.String("datetime", intent.Entities.Datetime),
	)

	return intent, nil
}

// clean drops itemList values the model invented that are not in the catalog,
// keeping the raw phrases in Deliver so the caller can warn about them.
func (e *LLMExtractor) clean(intent *models.RecognizedIntent) {
	var items []string
	for _, item := range intent.Entities.Items {
		if canonical, ok := e.catalog.Match(item); ok {
			items = append(items, canonical)
		}
	}
	intent.Entities.Items = items
}
