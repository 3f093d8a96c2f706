package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
	"github.com/zhouzirui/persona-chat/backend/internal/model/preset"
	"github.com/zhouzirui/persona-chat/backend/internal/service/ai/aitest"
	chatservice "github.com/zhouzirui/persona-chat/backend/internal/service/chat"
	"github.com/zhouzirui/persona-chat/backend/internal/store"
)

func setupRouter(t *testing.T) (*chi.Mux, *chatservice.Service) {
	t.Helper()
	chatSvc := chatservice.NewService(store.NewMemoryStore(), aitest.Fixed("ok"))
	handler := New(chatSvc, preset.NewMemoryStore(preset.Seed()))

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestStartReturnsOpeningText(t *testing.T) {
	r, chatSvc := setupRouter(t)

	rec := do(r, http.MethodPost, "/start", map[string]string{
		"businessDescription": "coffee",
		"systemPrompt":        "You sell $businessDescription",
		"firstQuestion":       "What's your favorite roast?",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		SessionID string `json:"sessionId"`
		Reply     string `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "What's your favorite roast?", resp.Reply)

	session, _, err := chatSvc.GetSession(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, chat.NewRenderConfig("You sell $businessDescription", "coffee", "", ""), session.Config)
}

func TestStartRequiresFirstQuestion(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(r, http.MethodPost, "/start", map[string]string{"businessDescription": "coffee"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"firstQuestion is required"}`, rec.Body.String())
}

func TestStartInvalidBody(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/start", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartWithPresetFillsEmptyFields(t *testing.T) {
	r, chatSvc := setupRouter(t)

	rec := do(r, http.MethodPost, "/start", map[string]string{
		"presetId":    "coffee-roaster",
		"personality": "grumpy",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		SessionID string `json:"sessionId"`
		Reply     string `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "What's your favorite roast?", resp.Reply)

	session, _, err := chatSvc.GetSession(context.Background(), resp.SessionID)
	require.NoError(t, err)
	coffee, ok := preset.NewMemoryStore(preset.Seed()).FindByID("coffee-roaster")
	require.True(t, ok)
	coffee.Personality = "grumpy"
	assert.Equal(t, coffee.RenderConfig(), session.Config)
	assert.Equal(t, coffee.FirstQuestion, session.OpeningText)
}

func TestStartUnknownPreset(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(r, http.MethodPost, "/start", map[string]string{"presetId": "missing"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSessionsNewestFirst(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(r, http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sessions":[]}`, rec.Body.String())

	for _, q := range []string{"first?", "second?"} {
		require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/start", map[string]string{"firstQuestion": q}).Code)
	}

	rec = do(r, http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Sessions []struct {
			SessionID     string `json:"sessionId"`
			FirstQuestion string `json:"firstQuestion"`
			Timestamp     string `json:"timestamp"`
		} `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Sessions, 2)
	assert.Equal(t, "second?", resp.Sessions[0].FirstQuestion)
	assert.Equal(t, "first?", resp.Sessions[1].FirstQuestion)
	assert.NotEmpty(t, resp.Sessions[0].Timestamp)
}

func TestGetSession(t *testing.T) {
	r, chatSvc := setupRouter(t)

	session, err := chatSvc.CreateSession(context.Background(), chat.RenderConfig{}, "Hi there")
	require.NoError(t, err)
	_, err = chatSvc.Turn(context.Background(), session.ID, "hello")
	require.NoError(t, err)

	rec := do(r, http.MethodGet, "/session/"+session.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Session      chat.Record              `json:"session"`
		Conversation []chat.ConversationEntry `json:"conversation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, session.ID, resp.Session.SessionID)
	assert.Equal(t, "Hi there", resp.Session.FirstQuestion)
	require.Len(t, resp.Session.Messages, 3)
	assert.Equal(t, []chat.ConversationEntry{
		{AssistantMessage: "Hi there"},
		{UserMessage: "hello"},
		{AssistantMessage: "ok"},
	}, resp.Conversation)
}

func TestGetSessionNotFound(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(r, http.MethodGet, "/session/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSession(t *testing.T) {
	r, chatSvc := setupRouter(t)

	session, err := chatSvc.CreateSession(context.Background(), chat.RenderConfig{}, "Hi")
	require.NoError(t, err)

	rec := do(r, http.MethodDelete, "/session/"+session.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/session/"+session.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/session/"+session.ID, nil).Code)
}
