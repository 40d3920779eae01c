package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/interviewapi"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

const maxAudioBytes = 10 << 20

type STTHandler struct {
	svc services.STTService
	// Wait bounds how long GET /stt blocks for a transcription.
	Wait time.Duration
}

func NewSTTHandler(svc services.STTService) *STTHandler {
	return &STTHandler{svc: svc, Wait: 5 * time.Second}
}

// Listen hands out the oldest pending transcription. Errors are reported in
// the body with status "error" so the client can retry.
func (h *STTHandler) Listen(c *gin.Context) {
	out, err := h.svc.Next(c.Request.Context(), h.Wait)
	if err != nil {
		c.JSON(http.StatusOK, interviewapi.STTResponse{
			Status:  interviewapi.STTStatusError,
			Message: "Speech recognition error: " + utils.Message(err, "unavailable"),
		})
		return
	}
	c.JSON(http.StatusOK, out)
}

// Stop discards pending audio and transcriptions, e.g. when the candidate
// leaves the interview.
func (h *STTHandler) Stop(c *gin.Context) {
	out, err := h.svc.Stop(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Upload queues a raw audio body (LINEAR16, 16 kHz) for transcription.
func (h *STTHandler) Upload(c *gin.Context) {
	audio, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAudioBytes+1))
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "STTHandler.Upload", "failed to read audio", err))
		return
	}
	if len(audio) > maxAudioBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, "STTHandler.Upload", "audio too large", nil))
		return
	}

	id, err := h.svc.EnqueueAudio(c.Request.Context(), audio, c.Query("language"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "id": id})
}
