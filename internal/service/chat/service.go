package chat

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/persona-chat/backend/internal/metrics"
	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
	"github.com/zhouzirui/persona-chat/backend/internal/service/ai"
	"github.com/zhouzirui/persona-chat/backend/internal/store"
)

// DefaultEngineTimeout bounds a single completion call.
const DefaultEngineTimeout = 60 * time.Second

// Option customises a Service.
type Option func(*Service)

// WithEngineTimeout overrides DefaultEngineTimeout.
func WithEngineTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock replaces the wall clock used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = func() time.Time { return now().UTC() }
	}
}

// Service owns session lifecycle and runs conversation turns.
// Mutating operations on one session are serialized; different sessions never wait
// on each other.
type Service struct {
	store   store.Store
	engine  ai.Engine
	locks   *keyedLocks
	timeout time.Duration
	now     func() time.Time
}

// NewService wires the conversation manager to its store and completion engine.
// A nil engine is allowed; turns then fail with ErrEngine.
func NewService(st store.Store, engine ai.Engine, opts ...Option) *Service {
	metrics.EnsureRegistered()

	s := &Service{
		store:   st,
		engine:  engine,
		locks:   newKeyedLocks(),
		timeout: DefaultEngineTimeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession provisions a session seeded with openingText as the assistant's
// first message. No engine call is made.
func (s *Service) CreateSession(ctx context.Context, cfg chat.RenderConfig, openingText string) (chat.Session, error) {
	const op = "create_session"

	if strings.TrimSpace(openingText) == "" {
		return chat.Session{}, s.fail(newError(ErrValidation, op, "", "firstQuestion is required", nil))
	}

	session, err := chat.NewSession(cfg, openingText, s.now())
	if err != nil {
		return chat.Session{}, s.fail(newError(ErrValidation, op, "", err.Error(), err))
	}

	if err := s.store.Put(ctx, session); err != nil {
		return chat.Session{}, s.fail(newError(ErrStore, op, session.ID, msgStoreFailed, err))
	}

	metrics.SessionCreated()
	log.Info().Str("op", op).Str("session_id", session.ID).Msg("[chat] session created")
	return session, nil
}

// Turn appends userText, asks the engine for a reply and appends it.
//
// The user message is persisted before the engine is called. If the engine fails,
// the session stays awaiting a reply: calling Turn again with the same text replays
// the pending message, a different text is rejected with ErrAwaitingReply.
func (s *Service) Turn(ctx context.Context, sessionID, userText string) (string, error) {
	const op = "turn"

	if sessionID == "" {
		return "", s.fail(newError(ErrValidation, op, "", "sessionId is required", nil))
	}
	if strings.TrimSpace(userText) == "" {
		return "", s.fail(newError(ErrValidation, op, sessionID, "message is required", nil))
	}

	unlock, err := s.lock(ctx, op, sessionID)
	if err != nil {
		return "", err
	}
	defer unlock()

	session, err := s.load(ctx, op, sessionID)
	if err != nil {
		metrics.RecordTurn(metrics.OutcomeRejected)
		return "", err
	}

	if pending, ok := session.PendingUserMessage(); ok {
		if pending.Content != userText {
			metrics.RecordTurn(metrics.OutcomeRejected)
			return "", s.fail(newError(ErrValidation, op, sessionID, ErrAwaitingReply.Error(), ErrAwaitingReply))
		}
		log.Info().Str("op", op).Str("session_id", sessionID).Msg("[chat] replaying unanswered message")
		return s.reply(ctx, op, session, metrics.OutcomeReplay)
	}

	if err := session.AddUserMessage(userText, s.now()); err != nil {
		metrics.RecordTurn(metrics.OutcomeRejected)
		return "", s.fail(newError(ErrValidation, op, sessionID, err.Error(), err))
	}
	if err := s.store.Put(ctx, session); err != nil {
		metrics.RecordTurn(metrics.OutcomeStore)
		return "", s.fail(newError(ErrStore, op, sessionID, msgStoreFailed, err))
	}

	return s.reply(ctx, op, session, metrics.OutcomeOK)
}

// RetryTurn asks the engine again for the trailing unanswered user message.
func (s *Service) RetryTurn(ctx context.Context, sessionID string) (string, error) {
	const op = "retry_turn"

	if sessionID == "" {
		return "", s.fail(newError(ErrValidation, op, "", "sessionId is required", nil))
	}

	unlock, err := s.lock(ctx, op, sessionID)
	if err != nil {
		return "", err
	}
	defer unlock()

	session, err := s.load(ctx, op, sessionID)
	if err != nil {
		return "", err
	}

	if session.State() != chat.StateAwaitingReply {
		metrics.RecordTurn(metrics.OutcomeRejected)
		return "", s.fail(newError(ErrValidation, op, sessionID, ErrNothingToRetry.Error(), ErrNothingToRetry))
	}

	return s.reply(ctx, op, session, metrics.OutcomeReplay)
}

// reply runs the engine over the session's prompt and closes the turn.
// Callers hold the session lock.
func (s *Service) reply(ctx context.Context, op string, session chat.Session, outcome string) (string, error) {
	if s.engine == nil {
		metrics.RecordTurn(metrics.OutcomeEngine)
		return "", s.fail(newError(ErrEngine, op, session.ID, msgEngineFailed, errors.New("no completion engine configured")))
	}

	prompt := BuildPrompt(ai.RenderSystemPrompt(session.Config), session.Transcript.Messages())

	engineCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := s.engine.Complete(engineCtx, prompt)
	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = ai.ErrEmptyReply
		}
	}
	metrics.ObserveEngine(time.Since(start), err)
	if err != nil {
		metrics.RecordTurn(metrics.OutcomeEngine)
		return "", s.fail(newError(ErrEngine, op, session.ID, msgEngineFailed, err))
	}

	if err := session.AddAssistantMessage(text, s.now()); err != nil {
		metrics.RecordTurn(metrics.OutcomeRejected)
		return "", s.fail(newError(ErrValidation, op, session.ID, err.Error(), err))
	}

	// Persist the reply even if the caller has gone away.
	if err := s.store.Put(context.WithoutCancel(ctx), session); err != nil {
		metrics.RecordTurn(metrics.OutcomeStore)
		return "", s.fail(newError(ErrStore, op, session.ID, msgStoreFailed, err))
	}

	metrics.RecordTurn(outcome)
	log.Debug().
		Str("op", op).
		Str("session_id", session.ID).
		Int("messages", session.Transcript.Len()).
		Dur("engine_duration", time.Since(start)).
		Msg("[chat] turn completed")
	return text, nil
}

// ListSessionSummaries returns all sessions, most recent first.
func (s *Service) ListSessionSummaries(ctx context.Context) ([]chat.Summary, error) {
	const op = "list_sessions"

	summaries, err := s.store.ListSummaries(ctx)
	if err != nil {
		return nil, s.fail(newError(ErrStore, op, "", "failed to fetch sessions", err))
	}
	return summaries, nil
}

// GetSession returns the session together with its author-tagged conversation view.
func (s *Service) GetSession(ctx context.Context, sessionID string) (chat.Session, []chat.ConversationEntry, error) {
	session, err := s.load(ctx, "get_session", sessionID)
	if err != nil {
		return chat.Session{}, nil, err
	}
	return session, session.Conversation(), nil
}

// DeleteSession removes a session permanently. Deleting an unknown or already
// deleted session fails with ErrNotFound.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	const op = "delete_session"

	if sessionID == "" {
		return s.fail(newError(ErrValidation, op, "", "sessionId is required", nil))
	}

	unlock, err := s.lock(ctx, op, sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	removed, err := s.store.Delete(ctx, sessionID)
	if err != nil {
		return s.fail(newError(ErrStore, op, sessionID, "failed to delete session", err))
	}
	if !removed {
		return s.fail(newError(ErrNotFound, op, sessionID, "session not found or already deleted", nil))
	}

	metrics.SessionDeleted()
	log.Info().Str("op", op).Str("session_id", sessionID).Msg("[chat] session deleted")
	return nil
}

func (s *Service) load(ctx context.Context, op, sessionID string) (chat.Session, error) {
	session, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return chat.Session{}, s.fail(newError(ErrNotFound, op, sessionID, "session not found", nil))
	}
	if err != nil {
		return chat.Session{}, s.fail(newError(ErrStore, op, sessionID, "failed to fetch session", err))
	}
	return session, nil
}

func (s *Service) lock(ctx context.Context, op, sessionID string) (func(), error) {
	start := time.Now()
	unlock, err := s.locks.Lock(ctx, sessionID)
	metrics.ObserveLockWait(time.Since(start))
	if err != nil {
		return nil, s.fail(newError(ErrCanceled, op, sessionID, "request canceled while waiting for the session", err))
	}
	return unlock, nil
}

func (s *Service) fail(err *Error) error {
	var event *zerolog.Event
	switch {
	case errors.Is(err.Kind, ErrEngine), errors.Is(err.Kind, ErrStore):
		event = log.Error()
	default:
		event = log.Warn()
	}
	event.
		Str("op", err.Op).
		Str("session_id", err.SessionID).
		AnErr("cause", err.Err).
		Msg(err.Message)
	return err
}
