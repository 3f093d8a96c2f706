package chat

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/persona-chat/backend/internal/handler/respond"
	chatService "github.com/zhouzirui/persona-chat/backend/internal/service/chat"
	"github.com/zhouzirui/persona-chat/backend/pkg/utils"
)

// Handler 对话轮次的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Post("/retry", h.handleRetry)
}

// handleChat 执行一次对话轮次
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Message   string `json:"message"`
	}
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}

	reply, err := h.chatSvc.Turn(r.Context(), payload.SessionID, payload.Message)
	if err != nil {
		respond.Error(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// handleRetry 为最后一条未回复的用户消息重新请求回复
func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
	}
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}

	reply, err := h.chatSvc.RetryTurn(r.Context(), payload.SessionID)
	if err != nil {
		respond.Error(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
