package summarize

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/mmgoodnow/disco-snails/internal/models"
)

// Gemini generates summaries through the Google GenAI API.
type Gemini struct {
	client *genai.Client
	model  string
}

type GeminiOptions struct {
	APIKey string
	Model  string
}

func NewGemini(ctx context.Context, opts GeminiOptions) (*Gemini, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("google api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Summarize(ctx context.Context, title string, transcript []models.TranscriptMessage) (string, error) {
	prompt := BuildPrompt(title, transcript)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Placeholder, nil
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return orPlaceholder(sb.String()), nil
}

func (g *Gemini) Backend() string { return "gemini" }
