// Package summarize turns a thread transcript into a short generated
// summary via an external text-generation API.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmgoodnow/disco-snails/internal/models"
)

// Placeholder is stored when the backend returns no usable content.
const Placeholder = "(no summary)"

// Summarizer generates a summary for one thread. Implementations make
// a single request per call; failures propagate to the caller.
type Summarizer interface {
	Summarize(ctx context.Context, title string, transcript []models.TranscriptMessage) (string, error)
	Backend() string
}

// Config selects and configures a backend.
type Config struct {
	Backend       string // "openai" or "gemini"
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	GoogleAPIKey  string
	GoogleModel   string
}

// New builds the configured summarizer backend.
func New(ctx context.Context, cfg Config) (Summarizer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "openai":
		return NewOpenAI(OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		}), nil
	case "gemini":
		return NewGemini(ctx, GeminiOptions{
			APIKey: cfg.GoogleAPIKey,
			Model:  cfg.GoogleModel,
		})
	default:
		return nil, fmt.Errorf("unsupported summarizer backend: %s", cfg.Backend)
	}
}

// BuildPrompt serializes the transcript into the instructional template
// sent to the generation API: one block per message, author line first,
// content tab-indented underneath.
func BuildPrompt(title string, transcript []models.TranscriptMessage) string {
	var sb strings.Builder
	for _, message := range transcript {
		sb.WriteString(message.User)
		sb.WriteString(":\n")
		sb.WriteString(indented(message.Content))
		sb.WriteString("\n")
	}

	return fmt.Sprintf(`
You are summarizing a Discord support thread for cross-seed, a BitTorrent cross-seeding automation tool: https://cross-seed.org.

Thread title: %q

Conversation:
%s

I am the primary developer and don't have time to read these threads. Summarize this thread:
- What was the user's problem?
- What troubleshooting was done?
- What was the final resolution (or current status)?
- What improvements could we make to the docs or the app that would help? (0 to 1 improvements only)

Return 3-4 CONCISE notes formatted as HTML with <h4> and <p> tags.
`, title, sb.String())
}

func indented(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = "\t" + line
	}
	return strings.Join(lines, "\n")
}

func orPlaceholder(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return Placeholder
	}
	return text
}
