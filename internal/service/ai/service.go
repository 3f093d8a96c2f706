package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
)

// Service is an Engine backed by an eino chat model chain.
type Service struct {
	chain compose.Runnable[[]*schema.Message, *schema.Message]
}

// NewService compiles a single-node chain around chatModel.
func NewService(ctx context.Context, chatModel model.BaseChatModel) (*Service, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	chain := compose.NewChain[[]*schema.Message, *schema.Message]()
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chain: runnable,
	}, nil
}

// Complete runs the chain over the prompt and returns the reply content.
func (s *Service) Complete(ctx context.Context, messages []chat.PromptMessage) (string, error) {
	response, err := s.chain.Invoke(ctx, toSchemaMessages(messages))
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil || response.Content == "" {
		return "", ErrEmptyReply
	}

	log.Debug().Int("prompt_messages", len(messages)).Int("length", len(response.Content)).Msg("[ai] generated response")
	return response.Content, nil
}

func toSchemaMessages(messages []chat.PromptMessage) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleSystem:
			out = append(out, schema.SystemMessage(msg.Content))
		case chat.RoleUser:
			out = append(out, schema.UserMessage(msg.Content))
		case chat.RoleAssistant:
			out = append(out, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return out
}
