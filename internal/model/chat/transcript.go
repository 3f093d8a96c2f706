package chat

import "github.com/pkg/errors"

var (
	ErrEmptyTranscript = errors.New("transcript must start with an assistant message")
	ErrOutOfOrder      = errors.New("message role breaks user/assistant alternation")
	ErrInvalidRole     = errors.New("transcript only holds user and assistant messages")
)

// Transcript is the append-only, strictly alternating message list of a session.
// The first entry is always the assistant's opening message. Appends never touch
// the backing array of earlier copies, so a Transcript can be passed by value.
type Transcript struct {
	messages []Message
}

// NewTranscript seeds a transcript with the assistant's opening message.
func NewTranscript(opening Message) (Transcript, error) {
	var t Transcript
	if err := t.Append(opening); err != nil {
		return Transcript{}, err
	}
	return t, nil
}

// RestoreTranscript rebuilds a transcript from persisted messages, re-checking ordering.
func RestoreTranscript(messages []Message) (Transcript, error) {
	if len(messages) == 0 {
		return Transcript{}, ErrEmptyTranscript
	}

	var t Transcript
	for i, msg := range messages {
		if err := t.Append(msg); err != nil {
			return Transcript{}, errors.Wrapf(err, "message %d", i)
		}
	}
	return t, nil
}

// Append adds msg after the last entry when its role is the expected next one.
func (t *Transcript) Append(msg Message) error {
	if msg.Role != RoleUser && msg.Role != RoleAssistant {
		return ErrInvalidRole
	}

	if len(t.messages) == 0 {
		if msg.Role != RoleAssistant {
			return ErrEmptyTranscript
		}
	} else if t.messages[len(t.messages)-1].Role == msg.Role {
		return ErrOutOfOrder
	}

	next := make([]Message, len(t.messages), len(t.messages)+1)
	copy(next, t.messages)
	t.messages = append(next, msg)
	return nil
}

// Messages returns a copy of the entries in conversation order.
func (t Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len reports the number of entries.
func (t Transcript) Len() int {
	return len(t.messages)
}

// Last returns the most recent entry.
func (t Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}
