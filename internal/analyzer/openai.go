// internal/analyzer/openai.go
package analyzer

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"meal-assistant/internal/common/logger"
	"meal-assistant/internal/models"
)

const systemPrompt = `Tu es un analyseur nutritionnel. On te décrit un aliment ou un repas ` +
	`et tu réponds UNIQUEMENT avec un objet JSON de la forme: ` +
	`{"foods":["..."],"protein_g":0,"calories":0,"carbs_g":0,"fat_g":0,"fiber_g":0,` +
	`"estimated_weight_g":100,"confidence":0.0,"source":"","explanation":""}. ` +
	`Les valeurs nutritionnelles décrivent estimated_weight_g grammes d'aliment. ` +
	`Si tu ne reconnais aucun aliment, réponds {"foods":[],"confidence":0}.`

// OpenAIAnalyzer calls the OpenAI chat-completion API for text and image
// meal analysis.
type OpenAIAnalyzer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  logger.Logger
}

// NewOpenAIAnalyzer builds the analyzer. BaseURL may point at a compatible
// gateway; Model defaults to gpt-4o-mini.
func NewOpenAIAnalyzer(cfg Config, log logger.Logger) (*OpenAIAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("analyzer API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIAnalyzer{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   model,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "analyzer"}),
	}, nil
}

// AnalyzeText returns a raw nutrition estimate for a food description.
func (a *OpenAIAnalyzer) AnalyzeText(ctx context.Context, description string) (*models.RawMealEstimate, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: description},
	}
	return a.complete(ctx, messages)
}

// AnalyzeImage returns a raw nutrition estimate for a meal photo. The
// optional description is passed along as a caption.
func (a *OpenAIAnalyzer) AnalyzeImage(ctx context.Context, photo []byte, description string) (*models.RawMealEstimate, error) {
	caption := description
	if caption == "" {
		caption = "Analyse ce repas."
	}
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: caption},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(photo),
					},
				},
			},
		},
	}
	return a.complete(ctx, messages)
}

func (a *OpenAIAnalyzer) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (*models.RawMealEstimate, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: 0.2,
		MaxTokens:   500,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoEstimate
	}

	estimate, err := decodeEstimate(resp.Choices[0].Message.Content)
	if err != nil {
		a.logger.Warn("unparsable analyzer answer", map[string]interface{}{
			"model": a.model,
		})
		return nil, err
	}

	a.logger.Debug("estimate received", map[string]interface{}{
		"foods":      estimate.DetectedFoods,
		"confidence": estimate.Confidence,
	})
	return estimate, nil
}
