package chat

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds. Every error returned by Service matches exactly one of them with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrEngine     = errors.New("engine error")
	ErrStore      = errors.New("store error")
	ErrCanceled   = errors.New("request canceled")
)

// Validation causes callers may want to tell apart.
var (
	ErrAwaitingReply  = errors.New("session is awaiting a reply to its last message")
	ErrNothingToRetry = errors.New("session has no unanswered message")
)

// Caller-facing texts for failures whose cause must stay internal.
const (
	msgEngineFailed = "failed to get a reply from the assistant"
	msgStoreFailed  = "failed to persist session"
)

// Error is the structured failure of a Service operation. Message is safe to show
// to callers; Err carries the internal cause and is only logged.
type Error struct {
	Kind      error
	Op        string
	SessionID string
	Message   string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.SessionID, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.SessionID, e.Message)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// PublicMessage returns the text that may be shown to API callers for err.
func PublicMessage(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	return "internal error"
}

func newError(kind error, op, sessionID, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, SessionID: sessionID, Message: message, Err: cause}
}
