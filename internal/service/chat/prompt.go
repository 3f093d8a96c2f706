package chat

import "github.com/zhouzirui/persona-chat/backend/internal/model/chat"

// BuildPrompt assembles the engine input: one system entry carrying the rendered
// instruction, then every transcript message in order.
func BuildPrompt(systemPrompt string, transcript []chat.Message) []chat.PromptMessage {
	prompt := make([]chat.PromptMessage, 0, len(transcript)+1)
	prompt = append(prompt, chat.PromptMessage{Role: chat.RoleSystem, Content: systemPrompt})
	for _, msg := range transcript {
		prompt = append(prompt, chat.PromptMessage{Role: msg.Role, Content: msg.Content})
	}
	return prompt
}
