package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/api/handlers"
	"github.com/yoockh/yoointerview/internal/api/middleware"
)

type Deps struct {
	Interviewer  *handlers.InterviewerHandler
	STT          *handlers.STTHandler
	WS           *handlers.WSHandler
	Generate     *handlers.GenerateHandler
	Interview    *handlers.InterviewHandler
	Feedback     *handlers.FeedbackHandler
	Conversation *handlers.ConversationHandler

	Metrics http.Handler
	// Auth guards the /interviews routes; defaults to middleware.JWTAuth().
	Auth gin.HandlerFunc
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	auth := d.Auth
	if auth == nil {
		auth = middleware.JWTAuth()
	}

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "Interview API"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	// Interviewer service (called by the session client)
	api := r.Group("/api")
	api.POST("/start-interview", d.Interviewer.Start)
	api.POST("/respond", d.Interviewer.Respond)
	api.POST("/end-interview/:session_id", d.Interviewer.End)
	api.GET("/interview-status/:session_id", d.Interviewer.Status)
	api.POST("/vapi/generate", d.Generate.Generate)
	api.GET("/sessions/:session_id/log", auth, middleware.RequireAdmin(), d.Conversation.ListBySession)

	// Speech capture
	r.GET("/stt", d.STT.Listen)
	r.POST("/stt/audio", d.STT.Upload)
	r.POST("/stt/stop", d.STT.Stop)
	r.GET("/ws/stt", d.WS.AudioWS)

	// Protected routes (JWT)
	in := r.Group("/interviews")
	in.Use(auth)

	in.POST("", d.Interview.Create)
	in.GET("", d.Interview.ListMine)
	in.GET("/latest", d.Interview.Latest)
	in.GET("/:id", d.Interview.Get)
	in.PUT("/:id/transcript", d.Interview.SaveTranscript)
	in.GET("/:id/transcript/export", d.Interview.ExportTranscript)
	in.POST("/:id/feedback", d.Feedback.Create)
	in.GET("/:id/feedback", d.Feedback.Get)
}
