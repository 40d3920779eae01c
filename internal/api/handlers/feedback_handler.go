package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

type FeedbackHandler struct {
	svc services.FeedbackService
}

func NewFeedbackHandler(svc services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{svc: svc}
}

type CreateFeedbackRequest struct {
	Transcript []models.Message `json:"transcript" binding:"required,min=1"`
	FeedbackID string           `json:"feedbackId"`
}

func (h *FeedbackHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "FeedbackHandler.Create", "invalid request body", err))
		return
	}

	id, err := h.svc.Create(c.Request.Context(), services.CreateFeedbackParams{
		InterviewID: c.Param("id"),
		UserID:      userID,
		Transcript:  req.Transcript,
		FeedbackID:  req.FeedbackID,
	})
	if err != nil {
		c.JSON(utils.HTTPStatus(err), gin.H{"success": false, "code": codeOf(err), "message": utils.Message(err, "failed to create feedback")})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "feedbackId": id})
}

func (h *FeedbackHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	f, err := h.svc.GetByInterview(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}
