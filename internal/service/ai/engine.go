package ai

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/zhouzirui/persona-chat/backend/internal/config"
	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
)

// ErrEmptyReply is returned when the engine answers without any text.
var ErrEmptyReply = errors.New("completion engine returned an empty reply")

// Engine maps an ordered prompt (one system entry followed by the transcript)
// to a single reply text.
type Engine interface {
	Complete(ctx context.Context, messages []chat.PromptMessage) (string, error)
}

// NewEngine builds the completion engine selected by cfg.Provider.
func NewEngine(ctx context.Context, cfg config.AIConfig) (Engine, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("credentials for AI provider %q are not configured", cfg.Provider)
	}

	switch cfg.Provider {
	case config.ProviderArk:
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create chat model")
		}
		svc, err := NewService(ctx, chatModel)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case config.ProviderOpenAI:
		return NewOpenAIEngine(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
}
