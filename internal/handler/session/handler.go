package session

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/persona-chat/backend/internal/handler/respond"
	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
	"github.com/zhouzirui/persona-chat/backend/internal/model/preset"
	chatService "github.com/zhouzirui/persona-chat/backend/internal/service/chat"
	"github.com/zhouzirui/persona-chat/backend/pkg/utils"
)

// Handler 会话生命周期的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
	presets preset.Store
}

// New 创建会话处理器
func New(chatSvc *chatService.Service, presets preset.Store) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		presets: presets,
	}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/start", h.handleStart)
	r.Get("/sessions", h.handleListSessions)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Delete("/session/{sessionID}", h.handleDeleteSession)
}

type startRequest struct {
	BusinessDescription string `json:"businessDescription"`
	Personality         string `json:"personality"`
	Category            string `json:"category"`
	SystemPrompt        string `json:"systemPrompt"`
	FirstQuestion       string `json:"firstQuestion"`
	PresetID            string `json:"presetId"`
}

// toPreset 合并请求与可选的预设，请求中非空的字段优先
func (req startRequest) toPreset(base preset.Preset) preset.Preset {
	pick := func(override, fallback string) string {
		if override != "" {
			return override
		}
		return fallback
	}
	return preset.Preset{
		ID:                  base.ID,
		Name:                base.Name,
		BusinessDescription: pick(req.BusinessDescription, base.BusinessDescription),
		Personality:         pick(req.Personality, base.Personality),
		Category:            pick(req.Category, base.Category),
		SystemPrompt:        pick(req.SystemPrompt, base.SystemPrompt),
		FirstQuestion:       pick(req.FirstQuestion, base.FirstQuestion),
	}
}

// handleStart 创建会话，回复即为开场问题
func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var payload startRequest
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}

	var base preset.Preset
	if payload.PresetID != "" {
		p, ok := h.presets.FindByID(payload.PresetID)
		if !ok {
			utils.RespondError(w, http.StatusBadRequest, "preset not found")
			return
		}
		base = p
	}
	merged := payload.toPreset(base)

	session, err := h.chatSvc.CreateSession(r.Context(), merged.RenderConfig(), merged.FirstQuestion)
	if err != nil {
		respond.Error(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"sessionId": session.ID,
		"reply":     session.OpeningText,
	})
}

// handleListSessions 按创建时间倒序列出会话
func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.chatSvc.ListSessionSummaries(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	if summaries == nil {
		summaries = []chat.Summary{}
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"sessions": summaries})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, conversation, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respond.Error(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"session":      session.Record(),
		"conversation": conversation,
	})
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respond.Error(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
