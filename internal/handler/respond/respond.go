// Package respond maps conversation-manager errors onto HTTP responses.
package respond

import (
	"errors"
	"net/http"

	chatService "github.com/zhouzirui/persona-chat/backend/internal/service/chat"
	"github.com/zhouzirui/persona-chat/backend/pkg/utils"
)

// StatusFor returns the HTTP status for an error returned by the chat service.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, chatService.ErrAwaitingReply):
		return http.StatusConflict
	case errors.Is(err, chatService.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatService.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, chatService.ErrEngine):
		return http.StatusBadGateway
	case errors.Is(err, chatService.ErrCanceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as `{"error": ...}` using only its caller-safe message.
func Error(w http.ResponseWriter, err error) {
	utils.RespondError(w, StatusFor(err), chatService.PublicMessage(err))
}
