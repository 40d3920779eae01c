package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// quietRoutes are only logged when they fail.
var quietRoutes = map[string]bool{
	"/api/health": true,
	"/metrics":    true,
}

// RequestLogger tags each request with an X-Request-Id and logs it once
// finished, with the user and interview session it touched.
func RequestLogger(l *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header("X-Request-Id", reqID)
		c.Set(CtxRequestID, reqID)

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		if status < 400 && quietRoutes[route] {
			return
		}

		fields := logrus.Fields{
			"request_id": reqID,
			"method":     c.Request.Method,
			"route":      route,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
		}
		if v := c.GetString(CtxUserID); v != "" {
			fields["user_id"] = v
		}
		sessionID := c.Param("session_id")
		if sessionID == "" {
			sessionID = c.GetString(CtxSessionID)
		}
		if sessionID != "" {
			fields["session_id"] = sessionID
		}
		if v := c.Param("id"); v != "" {
			fields["interview_id"] = v
		}
		entry := l.WithFields(fields)
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request")
		}
	}
}
