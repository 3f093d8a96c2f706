package chat

import (
	"time"

	"github.com/pkg/errors"
)

// Role identifies who authored a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole converts a stored role string back into a Role.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleSystem, RoleUser, RoleAssistant:
		return Role(raw), nil
	default:
		return "", errors.Errorf("unknown role %q", raw)
	}
}

// Message is one immutable transcript entry.
type Message struct {
	Role      Role      `json:"role" bson:"role"`
	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"timestamp" bson:"timestamp"`
}

// PromptMessage is a single entry of the sequence handed to the completion engine.
type PromptMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
