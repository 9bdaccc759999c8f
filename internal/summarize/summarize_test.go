package summarize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmgoodnow/disco-snails/internal/models"
)

func TestBuildPromptIndentsTranscript(t *testing.T) {
	transcript := []models.TranscriptMessage{
		{User: "alice", Content: "first line\nsecond line"},
		{User: "bob", Content: "reply"},
	}
	prompt := BuildPrompt("weird seeding issue", transcript)

	assert.Contains(t, prompt, "Thread title: \"weird seeding issue\"")
	assert.Contains(t, prompt, "alice:\n\tfirst line\n\tsecond line\n")
	assert.Contains(t, prompt, "bob:\n\treply\n")
	assert.Contains(t, prompt, "Return 3-4 CONCISE notes")
}

func TestOpenAISummarize(t *testing.T) {
	var gotBody chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  <h4>Problem</h4><p>Seeding stalled.</p>  "}}]}`))
	}))
	defer server.Close()

	s := NewOpenAI(OpenAIOptions{APIKey: "sk-test", BaseURL: server.URL, Model: "gpt-5-mini"})
	summary, err := s.Summarize(context.Background(), "thread", []models.TranscriptMessage{{User: "alice", Content: "help"}})
	require.NoError(t, err)

	assert.Equal(t, "<h4>Problem</h4><p>Seeding stalled.</p>", summary)
	assert.Equal(t, "gpt-5-mini", gotBody.Model)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "user", gotBody.Messages[0].Role)
	assert.Contains(t, gotBody.Messages[0].Content, "alice:\n\thelp")
}

func TestOpenAISummarizeEmptyContentFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"   "}}]}`))
	}))
	defer server.Close()

	s := NewOpenAI(OpenAIOptions{APIKey: "sk-test", BaseURL: server.URL})
	summary, err := s.Summarize(context.Background(), "thread", nil)
	require.NoError(t, err)
	assert.Equal(t, Placeholder, summary)
}

func TestOpenAISummarizeErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer server.Close()

	s := NewOpenAI(OpenAIOptions{APIKey: "sk-test", BaseURL: server.URL})
	_, err := s.Summarize(context.Background(), "thread", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestNewSelectsBackend(t *testing.T) {
	s, err := New(context.Background(), Config{Backend: "openai", OpenAIAPIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "openai", s.Backend())

	_, err = New(context.Background(), Config{Backend: "gemini"})
	require.Error(t, err) // missing google api key

	_, err = New(context.Background(), Config{Backend: "markov"})
	require.Error(t, err)
}
