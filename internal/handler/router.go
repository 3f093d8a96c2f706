package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/persona-chat/backend/internal/handler/chat"
	"github.com/zhouzirui/persona-chat/backend/internal/handler/preset"
	"github.com/zhouzirui/persona-chat/backend/internal/handler/session"
	"github.com/zhouzirui/persona-chat/backend/internal/metrics"
	middlewarePkg "github.com/zhouzirui/persona-chat/backend/internal/middleware"
	presetModel "github.com/zhouzirui/persona-chat/backend/internal/model/preset"
	chatService "github.com/zhouzirui/persona-chat/backend/internal/service/chat"
	"github.com/zhouzirui/persona-chat/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
// staticDir, when set, is served at the root for the browser UI.
func NewRouter(presets presetModel.Store, chatSvc *chatService.Service, staticDir string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	session.New(chatSvc, presets).RegisterRoutes(r)
	chat.New(chatSvc).RegisterRoutes(r)
	chat.NewWebSocketHandler(chatSvc).RegisterRoutes(r)
	preset.New(presets).RegisterRoutes(r)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	if staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(staticDir)))
	}

	return r
}
