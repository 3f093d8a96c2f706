package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
)

type fakeChatModel struct {
	reply string
	err   error
	input []*schema.Message
}

func (m *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.input = input
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func TestServiceCompletePassesOrderedPrompt(t *testing.T) {
	fake := &fakeChatModel{reply: "Great choice!"}
	svc, err := NewService(context.Background(), fake)
	require.NoError(t, err)

	reply, err := svc.Complete(context.Background(), []chat.PromptMessage{
		{Role: chat.RoleSystem, Content: "You sell coffee"},
		{Role: chat.RoleAssistant, Content: "What's your favorite roast?"},
		{Role: chat.RoleUser, Content: "Dark roast"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Great choice!", reply)

	require.Len(t, fake.input, 3)
	assert.Equal(t, schema.System, fake.input[0].Role)
	assert.Equal(t, "You sell coffee", fake.input[0].Content)
	assert.Equal(t, schema.Assistant, fake.input[1].Role)
	assert.Equal(t, schema.User, fake.input[2].Role)
	assert.Equal(t, "Dark roast", fake.input[2].Content)
}

func TestServiceCompleteEmptyReply(t *testing.T) {
	svc, err := NewService(context.Background(), &fakeChatModel{})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), []chat.PromptMessage{{Role: chat.RoleUser, Content: "hi"}})
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestServiceCompleteModelError(t *testing.T) {
	svc, err := NewService(context.Background(), &fakeChatModel{err: errors.New("rate limited")})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), []chat.PromptMessage{{Role: chat.RoleUser, Content: "hi"}})
	assert.Error(t, err)
}

func TestNewServiceRequiresModel(t *testing.T) {
	_, err := NewService(context.Background(), nil)
	assert.Error(t, err)
}
