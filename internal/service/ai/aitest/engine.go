// Package aitest provides a scriptable completion engine for tests.
package aitest

import (
	"context"
	"sync"

	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
)

// ReplyFunc produces the reply for one call.
type ReplyFunc func(ctx context.Context, messages []chat.PromptMessage) (string, error)

// Engine records every prompt it receives and answers through Reply.
type Engine struct {
	mu    sync.Mutex
	calls [][]chat.PromptMessage
	Reply ReplyFunc
}

// Fixed returns an engine that always answers reply.
func Fixed(reply string) *Engine {
	return &Engine{Reply: func(context.Context, []chat.PromptMessage) (string, error) {
		return reply, nil
	}}
}

// Failing returns an engine that always fails with err.
func Failing(err error) *Engine {
	return &Engine{Reply: func(context.Context, []chat.PromptMessage) (string, error) {
		return "", err
	}}
}

// Blocking returns an engine that waits until the call's context is done.
func Blocking() *Engine {
	return &Engine{Reply: func(ctx context.Context, _ []chat.PromptMessage) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
}

func (e *Engine) Complete(ctx context.Context, messages []chat.PromptMessage) (string, error) {
	e.mu.Lock()
	e.calls = append(e.calls, append([]chat.PromptMessage(nil), messages...))
	reply := e.Reply
	e.mu.Unlock()

	return reply(ctx, messages)
}

// SetReply swaps the reply function.
func (e *Engine) SetReply(fn ReplyFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Reply = fn
}

// Calls returns the prompts received so far.
func (e *Engine) Calls() [][]chat.PromptMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]chat.PromptMessage(nil), e.calls...)
}

// LastCall returns the most recent prompt, or nil.
func (e *Engine) LastCall() []chat.PromptMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.calls) == 0 {
		return nil
	}
	return e.calls[len(e.calls)-1]
}
