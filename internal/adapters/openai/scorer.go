package openai

import (
	"context"
	"fmt"

	"github.com/mikey/phishguard/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Scorer asks an OpenAI chat model for the probability that a text is machine-generated
type Scorer struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewScorer creates a new OpenAI scorer
func NewScorer(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Scorer {
	return &Scorer{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Name identifies the scorer in logs and metrics
func (s *Scorer) Name() string {
	return "openai"
}

// ScoreText returns the model's machine-generated probability for text
func (s *Scorer) ScoreText(ctx context.Context, text string) (float64, error) {
	prompt := fmt.Sprintf(utils.ScorePrompt, s.textProcessor.ProcessText(text, s.maxBodySize))

	req := openai.ChatCompletionRequest{
		Model: s.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: utils.ScoreSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		TopP:        s.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return 0, fmt.Errorf("empty response from OpenAI")
	}

	score, err := utils.ParseScoreResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("OpenAI scored text",
		zap.String("model", s.modelName),
		zap.String("response_id", resp.ID),
		zap.Float64("score", score))
	return score, nil
}
