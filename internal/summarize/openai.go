package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mmgoodnow/disco-snails/internal/models"
)

const defaultOpenAIBaseURL = "https://api.openai.com"

// OpenAI calls an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	httpClient *resty.Client
	model      string
}

type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func NewOpenAI(opts OpenAIOptions) *OpenAI {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gpt-5-mini"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 75 * time.Second
	}
	return &OpenAI{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetAuthToken(strings.TrimSpace(opts.APIKey)).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout),
		model: model,
	}
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *OpenAI) Summarize(ctx context.Context, title string, transcript []models.TranscriptMessage) (string, error) {
	req := chatCompletionRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "user", Content: BuildPrompt(title, transcript)},
		},
	}
	var completion chatCompletionResponse
	resp, err := o.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&completion).
		Post("/v1/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("chat completion error: %s", resp.String())
	}
	if len(completion.Choices) == 0 {
		return Placeholder, nil
	}
	return orPlaceholder(completion.Choices[0].Message.Content), nil
}

func (o *OpenAI) Backend() string { return "openai" }
