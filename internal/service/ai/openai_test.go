package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/persona-chat/backend/internal/config"
	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
)

func newOpenAITestEngine(t *testing.T, handler http.HandlerFunc) *OpenAIEngine {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	temperature := 0.7
	return NewOpenAIEngine(config.AIConfig{
		Provider:    config.ProviderOpenAI,
		APIKey:      "sk-test",
		Model:       "gpt-4",
		BaseURL:     srv.URL + "/",
		Temperature: &temperature,
	}, option.WithMaxRetries(0))
}

func TestOpenAIEngineComplete(t *testing.T) {
	var body struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	engine := newOpenAITestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Great choice!"}}]
		}`))
	})

	reply, err := engine.Complete(context.Background(), []chat.PromptMessage{
		{Role: chat.RoleSystem, Content: "You sell coffee"},
		{Role: chat.RoleAssistant, Content: "What's your favorite roast?"},
		{Role: chat.RoleUser, Content: "Dark roast"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Great choice!", reply)

	assert.Equal(t, "gpt-4", body.Model)
	assert.InDelta(t, 0.7, body.Temperature, 1e-9)
	require.Len(t, body.Messages, 3)
	assert.Equal(t, "system", body.Messages[0].Role)
	assert.Equal(t, "assistant", body.Messages[1].Role)
	assert.Equal(t, "user", body.Messages[2].Role)
	assert.Equal(t, "Dark roast", body.Messages[2].Content)
}

func TestOpenAIEngineNoChoices(t *testing.T) {
	engine := newOpenAITestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"gpt-4","choices":[]}`))
	})

	_, err := engine.Complete(context.Background(), []chat.PromptMessage{{Role: chat.RoleUser, Content: "hi"}})
	assert.Error(t, err)
}

func TestOpenAIEngineServerError(t *testing.T) {
	engine := newOpenAITestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	})

	_, err := engine.Complete(context.Background(), []chat.PromptMessage{{Role: chat.RoleUser, Content: "hi"}})
	assert.Error(t, err)
}

func TestNewEngineRequiresCredentials(t *testing.T) {
	_, err := NewEngine(context.Background(), config.AIConfig{Provider: config.ProviderOpenAI, Model: "gpt-4"})
	assert.Error(t, err)

	engine, err := NewEngine(context.Background(), config.AIConfig{Provider: config.ProviderOpenAI, Model: "gpt-4", APIKey: "sk"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIEngine{}, engine)
}
