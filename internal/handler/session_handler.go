package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/annoforge/annotator-api/pkg/response"
)

type sessionService interface {
	ClearSession(ctx context.Context, sessionID string) error
}

// SessionHandler exposes session lifecycle endpoints.
type SessionHandler struct {
	sessions sessionService
}

// NewSessionHandler builds a new handler.
func NewSessionHandler(sessions sessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Clear godoc
// @Summary Discard all uploaded templates and annotations
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session/clear [post]
func (h *SessionHandler) Clear(c *gin.Context) {
	if err := h.sessions.ClearSession(c.Request.Context(), sessionFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"cleared": true}, nil)
}
