package preset

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/persona-chat/backend/internal/model/preset"
	"github.com/zhouzirui/persona-chat/backend/pkg/utils"
)

// Handler 预设会话配置的HTTP处理器
type Handler struct {
	presets preset.Store
}

// New 创建预设处理器
func New(presets preset.Store) *Handler {
	return &Handler{presets: presets}
}

// RegisterRoutes 注册预设相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/presets", h.handleListPresets)
}

func (h *Handler) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets := h.presets.List()
	if presets == nil {
		presets = []preset.Preset{}
	}
	utils.RespondJSON(w, http.StatusOK, presets)
}
