package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ScorePrompt asks a language model for the probability that a body of text
// was machine-generated. The body is substituted for %s.
const ScorePrompt = `You are a detector of machine-generated text. Estimate the probability that the following email body was written by a language model rather than a person.
Respond with a JSON object containing:
- ai_probability: number between 0 and 1 (higher means more likely machine-generated)
- explanation: string (one short sentence)

Email body:
%s

Respond only with the JSON object and nothing else.`

// ScoreSystemPrompt is sent as the system message where the API supports one
const ScoreSystemPrompt = "You are a machine-generated text detector. Respond only with JSON."

// ErrNoProbability is returned when a model response lacks ai_probability
var ErrNoProbability = errors.New("response has no ai_probability")

// ScoreResponse is the JSON object a model returns for ScorePrompt
type ScoreResponse struct {
	AIProbability *float64 `json:"ai_probability"`
	Explanation   string   `json:"explanation"`
}

// ParseScoreResponse decodes a model response, falling back to the outermost
// {...} block when the model wrapped the JSON in prose or code fences
func ParseScoreResponse(text string) (float64, error) {
	var resp ScoreResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		start := strings.IndexByte(text, '{')
		end := strings.LastIndexByte(text, '}')
		if start < 0 || end <= start {
			return 0, fmt.Errorf("failed to extract JSON from model response: %w", err)
		}
		if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
			return 0, fmt.Errorf("failed to parse model response as JSON: %w", err)
		}
	}
	if resp.AIProbability == nil {
		return 0, ErrNoProbability
	}
	return *resp.AIProbability, nil
}
