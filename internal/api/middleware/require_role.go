package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/utils"
)

// RequireRole lets through only requests whose app role is one of allowed.
// It must run after JWTAuth.
func RequireRole(allowed ...string) gin.HandlerFunc {
	allow := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			allow[a] = true
		}
	}
	need := strings.Join(allowed, " or ")

	return func(c *gin.Context) {
		role := strings.ToLower(strings.TrimSpace(c.GetString(CtxRole)))
		if !allow[role] {
			c.AbortWithStatusJSON(http.StatusForbidden, apiError{
				Code:    utils.CodeForbidden,
				Message: need + " role required",
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin guards operator routes such as the conversation log.
func RequireAdmin() gin.HandlerFunc { return RequireRole(RoleAdmin) }
