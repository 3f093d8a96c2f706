package preset

import "github.com/zhouzirui/persona-chat/backend/internal/model/chat"

// Preset is a ready-made session configuration offered to the frontend.
type Preset struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	BusinessDescription string `json:"businessDescription"`
	Personality         string `json:"personality"`
	Category            string `json:"category"`
	SystemPrompt        string `json:"systemPrompt"`
	FirstQuestion       string `json:"firstQuestion"`
}

// RenderConfig converts the preset into a session configuration.
func (p Preset) RenderConfig() chat.RenderConfig {
	return chat.NewRenderConfig(p.SystemPrompt, p.BusinessDescription, p.Personality, p.Category)
}

const defaultSystemPrompt = `You are a customer research interviewer for $businessDescription.
Your personality is $personality. You are collecting opinions about $category.
Ask one short question at a time, react to what the customer says, and keep the conversation about $category.`

// Seed provides the presets shipped with the service.
func Seed() []Preset {
	return []Preset{
		{
			ID:                  "coffee-roaster",
			Name:                "Coffee roaster",
			BusinessDescription: "a small-batch coffee roaster",
			Personality:         "warm and curious",
			Category:            "coffee roasts",
			SystemPrompt:        defaultSystemPrompt,
			FirstQuestion:       "What's your favorite roast?",
		},
		{
			ID:                  "bike-shop",
			Name:                "Bike shop",
			BusinessDescription: "a neighbourhood bicycle repair shop",
			Personality:         "friendly and practical",
			Category:            "bike maintenance",
			SystemPrompt:        defaultSystemPrompt,
			FirstQuestion:       "When did you last have your bike serviced?",
		},
		{
			ID:                  "bookstore",
			Name:                "Bookstore",
			BusinessDescription: "an independent bookstore",
			Personality:         "thoughtful and a little witty",
			Category:            "reading habits",
			SystemPrompt:        defaultSystemPrompt,
			FirstQuestion:       "What was the last book you couldn't put down?",
		},
	}
}
