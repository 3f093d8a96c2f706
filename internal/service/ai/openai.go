package ai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/zhouzirui/persona-chat/backend/internal/config"
	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
)

// OpenAIEngine is an Engine backed by the OpenAI chat completions API.
type OpenAIEngine struct {
	client      openai.Client
	model       string
	temperature *float64
	maxTokens   *int
}

// NewOpenAIEngine creates an engine from the OpenAI settings in cfg.
func NewOpenAIEngine(cfg config.AIConfig, opts ...option.RequestOption) *OpenAIEngine {
	clientOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	clientOpts = append(clientOpts, opts...)

	return &OpenAIEngine{
		client:      openai.NewClient(clientOpts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Complete sends the prompt as a chat completion request.
func (e *OpenAIEngine) Complete(ctx context.Context, messages []chat.PromptMessage) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(e.model),
		Messages: toOpenAIMessages(messages),
	}
	if e.temperature != nil {
		params.Temperature = openai.Float(*e.temperature)
	}
	if e.maxTokens != nil {
		params.MaxTokens = openai.Int(int64(*e.maxTokens))
	}

	response, err := e.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	content := response.Choices[0].Message.Content
	if content == "" {
		return "", ErrEmptyReply
	}
	return content, nil
}

func toOpenAIMessages(messages []chat.PromptMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case chat.RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case chat.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		}
	}
	return out
}
