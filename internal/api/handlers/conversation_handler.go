package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/services"
)

// ConversationHandler exposes the interviewer's audit log of a session.
type ConversationHandler struct {
	svc services.InterviewerService
}

func NewConversationHandler(svc services.InterviewerService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

func (h *ConversationHandler) ListBySession(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	sessionID := c.Param("session_id")
	limit := queryLimit(c, 200, 1000)

	rows, err := h.svc.Log(c.Request.Context(), sessionID, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":    sessionID,
		"conversations": rows,
	})
}
