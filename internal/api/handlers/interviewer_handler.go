package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/api/middleware"
	"github.com/yoockh/yoointerview/internal/interviewapi"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

// InterviewerHandler serves the conversational interviewer API used by the
// session client.
type InterviewerHandler struct {
	svc services.InterviewerService
}

func NewInterviewerHandler(svc services.InterviewerService) *InterviewerHandler {
	return &InterviewerHandler{svc: svc}
}

// Start accepts an optional body; a request without one starts an
// interview with default context.
func (h *InterviewerHandler) Start(c *gin.Context) {
	var req interviewapi.StartRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewerHandler.Start", "invalid request body", err))
			return
		}
	}

	out, err := h.svc.Start(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.CtxSessionID, out.SessionID)
	c.JSON(http.StatusOK, out)
}

func (h *InterviewerHandler) Respond(c *gin.Context) {
	var req interviewapi.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewerHandler.Respond", "Invalid session ID", err))
		return
	}
	c.Set(middleware.CtxSessionID, req.SessionID)

	out, err := h.svc.Respond(c.Request.Context(), req.SessionID, req.Response)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *InterviewerHandler) End(c *gin.Context) {
	out, err := h.svc.End(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *InterviewerHandler) Status(c *gin.Context) {
	out, err := h.svc.Status(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
