package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text(`{"ai_probability": `),
				genai.Blob{MIMEType: "image/png"},
				genai.Text(`0.4}`),
			}},
		}},
	}
	if got := responseText(resp); got != `{"ai_probability": 0.4}` {
		t.Errorf("responseText = %q", got)
	}

	for _, empty := range []*genai.GenerateContentResponse{
		nil,
		{},
		{Candidates: []*genai.Candidate{{}}},
	} {
		if got := responseText(empty); got != "" {
			t.Errorf("responseText = %q, want empty", got)
		}
	}
}
