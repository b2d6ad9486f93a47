package insights

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiGenerator implements Generator on the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Gemini client. An empty apiKey falls back to
// the SDK's environment lookup (GOOGLE_API_KEY / GEMINI_API_KEY).
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if model == "" {
		model = DefaultModelName
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiGenerator: create genai client: %w", err)
	}

	return &GeminiGenerator{client: client, model: model}, nil
}

// Model returns the configured model name.
func (g *GeminiGenerator) Model() string {
	return g.model
}

// Generate sends a single-turn text prompt and returns the reply text.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("Generate: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Generate: empty response from model")
	}

	return text, nil
}

var _ Generator = (*GeminiGenerator)(nil)
