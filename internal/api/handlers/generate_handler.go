package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/interviewapi"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

type GenerateHandler struct {
	svc services.GenerateService
}

func NewGenerateHandler(svc services.GenerateService) *GenerateHandler {
	return &GenerateHandler{svc: svc}
}

// Generate answers {success, error} rather than APIError; the form that
// calls it only checks the flag.
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req interviewapi.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, interviewapi.GenerateResponse{Success: false, Error: "invalid request body"})
		return
	}

	id, err := h.svc.Generate(c.Request.Context(), req)
	if err != nil {
		c.JSON(utils.HTTPStatus(err), interviewapi.GenerateResponse{Success: false, Error: utils.Message(err, "failed to generate interview")})
		return
	}
	c.JSON(http.StatusOK, interviewapi.GenerateResponse{Success: true, InterviewID: id})
}
