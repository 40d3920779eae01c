package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

type InterviewHandler struct {
	svc services.InterviewService
}

func NewInterviewHandler(svc services.InterviewService) *InterviewHandler {
	return &InterviewHandler{svc: svc}
}

type CreateInterviewRequest struct {
	Role      string   `json:"role"`
	Level     string   `json:"level"`
	Type      string   `json:"type"`
	Techstack []string `json:"techstack"`
	Questions []string `json:"questions"`
}

type SaveTranscriptRequest struct {
	Transcript      []models.Message `json:"transcript" binding:"required"`
	VoiceBased      bool             `json:"voiceBased"`
	DurationMinutes *float64         `json:"durationMinutes"`
}

func (h *InterviewHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Create", "invalid request body", err))
		return
	}

	id, err := h.svc.CreateDocument(c.Request.Context(), services.CreateInterviewParams{
		UserID:    userID,
		Role:      req.Role,
		Level:     req.Level,
		Type:      req.Type,
		Techstack: req.Techstack,
		Questions: req.Questions,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "interviewId": id})
}

func (h *InterviewHandler) Get(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	in, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, in)
}

func (h *InterviewHandler) ListMine(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	out, err := h.svc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interviews": out})
}

// Latest lists other users' finalized interviews.
func (h *InterviewHandler) Latest(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	out, err := h.svc.Latest(c.Request.Context(), userID, queryLimit(c, 20, 100))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interviews": out})
}

func (h *InterviewHandler) SaveTranscript(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req SaveTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.SaveTranscript", "invalid request body", err))
		return
	}

	err := h.svc.SaveTranscript(c.Request.Context(), services.SaveTranscriptParams{
		InterviewID:     c.Param("id"),
		UserID:          userID,
		Transcript:      req.Transcript,
		VoiceBased:      req.VoiceBased,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *InterviewHandler) ExportTranscript(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	url, err := h.svc.ExportTranscript(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
