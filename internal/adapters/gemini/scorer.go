package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/phishguard/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Scorer asks a Gemini model for the probability that a text is machine-generated
type Scorer struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewScorer creates a new Gemini scorer
func NewScorer(
	ctx context.Context,
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*Scorer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.ResponseMIMEType = "application/json"

	return &Scorer{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Name identifies the scorer in logs and metrics
func (s *Scorer) Name() string {
	return "gemini"
}

// Close closes the Gemini client
func (s *Scorer) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// ScoreText returns the model's machine-generated probability for text
func (s *Scorer) ScoreText(ctx context.Context, text string) (float64, error) {
	prompt := fmt.Sprintf(utils.ScorePrompt, s.textProcessor.ProcessText(text, s.maxBodySize))

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return 0, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	responseText := responseText(resp)
	if responseText == "" {
		return 0, fmt.Errorf("empty response from Gemini")
	}

	score, err := utils.ParseScoreResponse(responseText)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("Gemini scored text",
		zap.String("model", s.modelName),
		zap.Float64("score", score))
	return score, nil
}

// responseText joins the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
