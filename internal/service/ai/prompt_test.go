package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
)

func TestRenderEmptyTemplate(t *testing.T) {
	assert.Equal(t, "", Render("", map[string]string{chat.ParamCategory: "X"}))
	assert.Equal(t, "", Render("", nil))
	assert.Equal(t, "", RenderSystemPrompt(chat.RenderConfig{}))
}

func TestRenderReplacesEveryOccurrence(t *testing.T) {
	assert.Equal(t, "X X", Render("$category $category", map[string]string{chat.ParamCategory: "X"}))
}

func TestRenderMissingParameterBecomesEmpty(t *testing.T) {
	got := Render("[$personality] sells $businessDescription", map[string]string{
		chat.ParamBusinessDescription: "coffee",
	})
	assert.Equal(t, "[] sells coffee", got)
}

func TestRenderIsLiteral(t *testing.T) {
	tests := []struct {
		name     string
		template string
		params   map[string]string
		want     string
	}{
		{
			name:     "no recursive expansion",
			template: "$category",
			params:   map[string]string{chat.ParamCategory: "$personality", chat.ParamPersonality: "kind"},
			want:     "$personality",
		},
		{
			name:     "unknown tokens untouched",
			template: "$name likes $category",
			params:   map[string]string{chat.ParamCategory: "tea"},
			want:     "$name likes tea",
		},
		{
			name:     "no template syntax",
			template: "{{.category}} ${category}",
			params:   map[string]string{chat.ParamCategory: "tea"},
			want:     "{{.category}} ${category}",
		},
		{
			name:     "all three parameters",
			template: "$businessDescription/$personality/$category",
			params: map[string]string{
				chat.ParamBusinessDescription: "a",
				chat.ParamPersonality:         "b",
				chat.ParamCategory:            "c",
			},
			want: "a/b/c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.template, tt.params))
		})
	}
}

func TestRenderSystemPromptScenario(t *testing.T) {
	cfg := chat.RenderConfig{
		Template:   "You sell $businessDescription",
		Parameters: map[string]string{chat.ParamBusinessDescription: "coffee"},
	}
	assert.Equal(t, "You sell coffee", RenderSystemPrompt(cfg))
}
