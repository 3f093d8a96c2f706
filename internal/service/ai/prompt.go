package ai

import (
	"strings"

	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
)

// Placeholder returns the token a template uses to reference a parameter.
func Placeholder(name string) string {
	return "$" + name
}

// Render substitutes every occurrence of the recognised placeholders in template
// with the matching parameter, or the empty string when the parameter is absent.
// Replacement is a single literal pass: substituted values are never re-scanned.
func Render(template string, params map[string]string) string {
	if template == "" {
		return ""
	}

	pairs := make([]string, 0, 2*len(chat.ParameterNames))
	for _, name := range chat.ParameterNames {
		pairs = append(pairs, Placeholder(name), params[name])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// RenderSystemPrompt renders the system instruction of a session configuration.
func RenderSystemPrompt(cfg chat.RenderConfig) string {
	return Render(cfg.Template, cfg.Parameters)
}
