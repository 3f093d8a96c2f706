package chat

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Recognised RenderConfig parameter names.
const (
	ParamBusinessDescription = "businessDescription"
	ParamPersonality         = "personality"
	ParamCategory            = "category"
)

// ParameterNames lists the parameters a template may reference, in placeholder order.
var ParameterNames = []string{ParamBusinessDescription, ParamPersonality, ParamCategory}

// RenderConfig holds the system prompt template and its substitution parameters.
// An empty Template means the session carries no system guidance.
type RenderConfig struct {
	Template   string            `json:"systemPrompt,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// NewRenderConfig builds a RenderConfig from the three recognised parameters.
func NewRenderConfig(template, businessDescription, personality, category string) RenderConfig {
	return RenderConfig{
		Template: template,
		Parameters: map[string]string{
			ParamBusinessDescription: businessDescription,
			ParamPersonality:         personality,
			ParamCategory:            category,
		},
	}
}

// Param returns the named parameter or the empty string.
func (c RenderConfig) Param(name string) string {
	return c.Parameters[name]
}

// Clone returns a copy that shares no map with c.
func (c RenderConfig) Clone() RenderConfig {
	out := RenderConfig{Template: c.Template}
	if c.Parameters != nil {
		out.Parameters = make(map[string]string, len(c.Parameters))
		for k, v := range c.Parameters {
			out.Parameters[k] = v
		}
	}
	return out
}

// State is the derived lifecycle state of a session.
type State int

const (
	// StateCreated means every user message has its assistant reply.
	StateCreated State = iota
	// StateAwaitingReply means the last message is an unanswered user message.
	StateAwaitingReply
)

func (s State) String() string {
	switch s {
	case StateAwaitingReply:
		return "awaiting_reply"
	default:
		return "created"
	}
}

// Session is one user's conversation: its fixed RenderConfig and its transcript.
type Session struct {
	ID          string
	Config      RenderConfig
	OpeningText string
	CreatedAt   time.Time
	Transcript  Transcript
}

// NewSession provisions a session whose transcript holds only the opening message.
func NewSession(cfg RenderConfig, openingText string, now time.Time) (Session, error) {
	transcript, err := NewTranscript(Message{
		Role:      RoleAssistant,
		Content:   openingText,
		CreatedAt: now,
	})
	if err != nil {
		return Session{}, err
	}

	return Session{
		ID:          uuid.NewString(),
		Config:      cfg.Clone(),
		OpeningText: openingText,
		CreatedAt:   now,
		Transcript:  transcript,
	}, nil
}

// Clone returns a deep copy safe to hand across goroutines.
func (s Session) Clone() Session {
	s.Config = s.Config.Clone()
	return s
}

// State derives the lifecycle state from the last transcript entry.
func (s Session) State() State {
	if _, ok := s.PendingUserMessage(); ok {
		return StateAwaitingReply
	}
	return StateCreated
}

// PendingUserMessage returns the trailing user message that has no reply yet.
func (s Session) PendingUserMessage() (Message, bool) {
	last, ok := s.Transcript.Last()
	if !ok || last.Role != RoleUser {
		return Message{}, false
	}
	return last, true
}

// AddUserMessage appends the user's side of a turn.
func (s *Session) AddUserMessage(content string, at time.Time) error {
	return s.Transcript.Append(Message{Role: RoleUser, Content: content, CreatedAt: at})
}

// AddAssistantMessage appends the assistant's reply closing a turn.
func (s *Session) AddAssistantMessage(content string, at time.Time) error {
	return s.Transcript.Append(Message{Role: RoleAssistant, Content: content, CreatedAt: at})
}

// Summary is the list view of a session.
type Summary struct {
	ID          string    `json:"sessionId" bson:"sessionId"`
	CreatedAt   time.Time `json:"timestamp" bson:"timestamp"`
	OpeningText string    `json:"firstQuestion" bson:"firstQuestion"`
}

// Summary projects the session onto its list view.
func (s Session) Summary() Summary {
	return Summary{ID: s.ID, CreatedAt: s.CreatedAt, OpeningText: s.OpeningText}
}

// ConversationEntry tags a transcript message by author. Exactly one field is set.
type ConversationEntry struct {
	UserMessage      string `json:"userMessage,omitempty"`
	AssistantMessage string `json:"assistantMessage,omitempty"`
}

// Conversation is the read-only, author-tagged projection of the transcript.
func (s Session) Conversation() []ConversationEntry {
	messages := s.Transcript.Messages()
	entries := make([]ConversationEntry, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleUser {
			entries = append(entries, ConversationEntry{UserMessage: msg.Content})
		} else {
			entries = append(entries, ConversationEntry{AssistantMessage: msg.Content})
		}
	}
	return entries
}

// Record is the persisted layout of a session, shared by every store backend
// and by the HTTP session view.
type Record struct {
	SessionID           string    `json:"sessionId" bson:"sessionId"`
	BusinessDescription string    `json:"businessDescription" bson:"businessDescription"`
	Personality         string    `json:"personality" bson:"personality"`
	Category            string    `json:"category" bson:"category"`
	SystemPrompt        string    `json:"systemPrompt" bson:"systemPrompt"`
	FirstQuestion       string    `json:"firstQuestion" bson:"firstQuestion"`
	Timestamp           time.Time `json:"timestamp" bson:"timestamp"`
	Messages            []Message `json:"messages" bson:"messages"`
}

// Record flattens the session into its persisted layout.
func (s Session) Record() Record {
	return Record{
		SessionID:           s.ID,
		BusinessDescription: s.Config.Param(ParamBusinessDescription),
		Personality:         s.Config.Param(ParamPersonality),
		Category:            s.Config.Param(ParamCategory),
		SystemPrompt:        s.Config.Template,
		FirstQuestion:       s.OpeningText,
		Timestamp:           s.CreatedAt,
		Messages:            s.Transcript.Messages(),
	}
}

// FromRecord rebuilds a session from its persisted layout.
func FromRecord(r Record) (Session, error) {
	if r.SessionID == "" {
		return Session{}, errors.New("record has no session id")
	}

	transcript, err := RestoreTranscript(r.Messages)
	if err != nil {
		return Session{}, errors.Wrapf(err, "restore transcript of session %s", r.SessionID)
	}

	return Session{
		ID:          r.SessionID,
		Config:      NewRenderConfig(r.SystemPrompt, r.BusinessDescription, r.Personality, r.Category),
		OpeningText: r.FirstQuestion,
		CreatedAt:   r.Timestamp,
		Transcript:  transcript,
	}, nil
}
