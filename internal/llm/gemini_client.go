package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient connects to the Gemini API with the given key.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is not configured (GEMINI_API_KEY)")
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (g *GeminiClient) Analyze(ctx context.Context, req AnalysisRequest) (*Analysis, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(BuildAnalysisPrompt(req)), nil)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	text := result.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedOutput)
	}
	return ParseAnalysis(text)
}
